package ledger

import (
	"context"
	"errors"
	"fmt"

	"spendlog/internal/core"
)

// SetBudget creates or updates the monthly limit for one category. A
// zero limit means "no budget set" and deletes the row instead of
// storing a zero; deleting an already-unset budget is a no-op. The
// returned budget is nil when the limit was cleared.
func (s *Service) SetBudget(ctx context.Context, userID, categoryID string, limitCents int64) (*core.Budget, error) {
	if limitCents < 0 {
		return nil, core.ErrInvalidAmount
	}

	if limitCents == 0 {
		err := s.store.DeleteBudget(ctx, userID, categoryID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("delete budget: %w", err)
		}
		return nil, nil
	}

	b := core.Budget{UserID: userID, CategoryID: categoryID, MonthlyLimitCents: limitCents}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	saved, err := s.store.UpsertBudget(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("upsert budget: %w", err)
	}
	return &saved, nil
}

// Budgets returns all configured budgets for the user with category
// display fields joined.
func (s *Service) Budgets(ctx context.Context, userID string) ([]core.Budget, error) {
	return s.store.FetchBudgets(ctx, userID)
}
