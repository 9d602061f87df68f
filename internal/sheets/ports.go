package sheets

import (
	"context"

	"spendlog/internal/core"
)

// Ports for outbound export adapters.
type (
	// ExpenseWriter appends one expense row to the export target and
	// returns an adapter-specific row reference.
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// ExpenseRemover removes a previously exported row by expense id.
	ExpenseRemover interface {
		Remove(ctx context.Context, expenseID string) error
	}
)
