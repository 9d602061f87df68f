package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/reporting"
)

// DefaultPageSize matches the expense list page length of the UI.
const DefaultPageSize = 20

// Page is one slice of the filtered ledger. HasMore is true iff the
// page came back exactly full: a short page always means the data ran
// out. A page that is full at the true end of data therefore costs one
// extra empty fetch; accepted, the protocol has no total count.
type Page struct {
	Expenses   []core.Expense `json:"expenses"`
	HasMore    bool           `json:"has_more"`
	TotalCents int64          `json:"total_cents"`
}

// DayGroup is the display grouping of a fetched page: one entry per
// distinct expense date, subtotaled.
type DayGroup struct {
	Date          core.Date      `json:"date"`
	SubtotalCents int64          `json:"subtotal_cents"`
	Expenses      []core.Expense `json:"expenses"`
}

// Service orchestrates expense operations: validate, write, then the
// budget check and export publish that follow a write.
type Service struct {
	store   Store
	budgets BudgetChecker
	syncPub SyncPublisher
	now     func() time.Time
}

func NewService(store Store, budgets BudgetChecker, syncPub SyncPublisher) *Service {
	return &Service{store: store, budgets: budgets, syncPub: syncPub, now: time.Now}
}

// WithNow overrides the clock; tests only.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create validates and inserts an expense, then runs the budget
// transition check on the just-inserted state. The check and the export
// publish are best-effort: their failure never rolls back or fails the
// insert.
func (s *Service) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(s.now()); err != nil {
		return core.Expense{}, err
	}

	created, err := s.store.InsertExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	// Evaluation must observe the inserted row, so it runs strictly after.
	if s.budgets != nil {
		if err := s.budgets.NotifyOnTransition(ctx, created.UserID, created.CategoryID); err != nil {
			slog.ErrorContext(ctx, "Budget check after insert failed",
				"component", "ledger", "expense_id", created.ID, "error", err)
		}
	}

	if s.syncPub != nil {
		if err := s.syncPub.PublishExpenseSync(ctx, created.ID, created.UserID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense sync message",
				"component", "ledger", "expense_id", created.ID, "error", err)
		}
	}

	return created, nil
}

// Update applies a partial edit, validating the changed fields before
// the store is touched.
func (s *Service) Update(ctx context.Context, id, userID string, upd ExpenseUpdate) error {
	if upd.AmountCents != nil && *upd.AmountCents <= 0 {
		return core.ErrInvalidAmount
	}
	if upd.Description != nil && len(*upd.Description) > core.MaxDescriptionLen {
		return core.ErrDescriptionTooLong
	}
	if upd.Date != nil {
		if upd.Date.IsZero() {
			return core.ErrInvalidDate
		}
		if upd.Date.After(core.DateOf(s.now())) {
			return core.ErrFutureDate
		}
	}
	if upd.CategoryID != nil && *upd.CategoryID == "" {
		return core.ErrMissingCategory
	}

	if err := s.store.UpdateExpense(ctx, id, userID, upd); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	if s.syncPub != nil {
		if err := s.syncPub.PublishExpenseSync(ctx, id, userID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense sync message",
				"component", "ledger", "expense_id", id, "error", err)
		}
	}
	return nil
}

// Delete removes a single expense, conditional on both id and owner so
// a guessed id can never touch another user's record.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if err := s.store.DeleteExpense(ctx, id, userID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	if s.syncPub != nil {
		if err := s.syncPub.PublishExpenseDelete(ctx, id, userID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense delete message",
				"component", "ledger", "expense_id", id, "error", err)
		}
	}
	return nil
}

// List returns page n of the filtered ledger, pageSize records per
// page. A nil filter window defaults to the current month.
func (s *Service) List(ctx context.Context, userID string, f ExpenseFilter, page, pageSize int) (Page, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}
	if f.Window == nil {
		w := core.CurrentMonth(s.now())
		f.Window = &w
	}

	expenses, err := s.store.FetchExpenses(ctx, userID, f, page*pageSize, pageSize)
	if err != nil {
		return Page{}, fmt.Errorf("fetch expenses: %w", err)
	}

	return Page{
		Expenses:   expenses,
		HasMore:    len(expenses) == pageSize,
		TotalCents: reporting.TotalOf(expenses),
	}, nil
}

// Get loads a single owned expense.
func (s *Service) Get(ctx context.Context, id, userID string) (core.Expense, error) {
	return s.store.GetExpense(ctx, id, userID)
}

// Categories returns the reference category list in display order.
func (s *Service) Categories(ctx context.Context) ([]core.Category, error) {
	return s.store.FetchCategories(ctx)
}

// GroupByDate splits a fetched page into per-date groups with
// subtotals. Pure post-processing: input order (date descending from
// the store) is preserved.
func GroupByDate(expenses []core.Expense) []DayGroup {
	index := make(map[string]int, len(expenses))
	var groups []DayGroup
	for _, e := range expenses {
		key := e.Date.String()
		i, seen := index[key]
		if !seen {
			index[key] = len(groups)
			groups = append(groups, DayGroup{Date: e.Date})
			i = len(groups) - 1
		}
		groups[i].Expenses = append(groups[i].Expenses, e)
		groups[i].SubtotalCents += e.AmountCents
	}
	return groups
}
