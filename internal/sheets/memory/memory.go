// Package memory is an in-process export target for tests and local
// runs without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"spendlog/internal/core"
	ports "spendlog/internal/sheets"
)

type Writer struct {
	mu   sync.Mutex
	rows []core.Expense
}

var (
	_ ports.ExpenseWriter  = (*Writer)(nil)
	_ ports.ExpenseRemover = (*Writer)(nil)
)

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Append(ctx context.Context, e core.Expense) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, e)
	return fmt.Sprintf("row-%d", len(w.rows)), nil
}

func (w *Writer) Remove(ctx context.Context, expenseID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, e := range w.rows {
		if e.ID == expenseID {
			w.rows = append(w.rows[:i], w.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// Rows returns a copy of the exported rows in append order.
func (w *Writer) Rows() []core.Expense {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]core.Expense, len(w.rows))
	copy(out, w.rows)
	return out
}
