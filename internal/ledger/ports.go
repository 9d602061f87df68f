// Package ledger owns expense reads and writes: validation, the narrow
// store contract, and cursorless offset pagination over the ledger.
package ledger

import (
	"context"

	"spendlog/internal/core"
)

// ExpenseFilter scopes a fetch. A nil Window means the caller imposes no
// date bound; Search is a case-insensitive substring match on the
// description; CategoryID narrows to one category when non-empty.
type ExpenseFilter struct {
	Window     *core.Window
	CategoryID string
	Search     string
}

// ExpenseUpdate is a partial edit; nil fields are left untouched.
type ExpenseUpdate struct {
	AmountCents *int64
	Description *string
	Date        *core.Date
	CategoryID  *string
}

// Store is the ledger store adapter. Implementations return records with
// category display fields already joined, ordered by expense date
// descending then created-at descending. All id-scoped operations are
// additionally scoped to the owning user and report core.ErrNotFound
// when nothing matches.
type Store interface {
	FetchExpenses(ctx context.Context, userID string, f ExpenseFilter, offset, limit int) ([]core.Expense, error)
	GetExpense(ctx context.Context, id, userID string) (core.Expense, error)
	InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	UpdateExpense(ctx context.Context, id, userID string, upd ExpenseUpdate) error
	DeleteExpense(ctx context.Context, id, userID string) error

	FetchBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	GetBudget(ctx context.Context, userID, categoryID string) (core.Budget, error)
	UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	DeleteBudget(ctx context.Context, userID, categoryID string) error

	FetchCategories(ctx context.Context) ([]core.Category, error)
}

// BudgetChecker runs the post-insert budget evaluation. Wired to the
// budget engine in main; optional so the ledger stays testable alone.
type BudgetChecker interface {
	NotifyOnTransition(ctx context.Context, userID, categoryID string) error
}

// SyncPublisher mirrors ledger writes to the export pipeline. Publish
// failures never fail the underlying write.
type SyncPublisher interface {
	PublishExpenseSync(ctx context.Context, expenseID, userID string) error
	PublishExpenseDelete(ctx context.Context, expenseID, userID string) error
}
