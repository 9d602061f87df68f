// Package dashboard assembles the per-user overview: window totals,
// the 7-day series, the category breakdown, budget progress, and the
// most recent entries.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/budget"
	"spendlog/internal/core"
	"spendlog/internal/ledger"
	"spendlog/internal/reporting"
)

// RecentLimit is how many latest expenses the overview carries.
const RecentLimit = 5

type Overview struct {
	TodayCents     int64                   `json:"today_cents"`
	YesterdayCents int64                   `json:"yesterday_cents"`
	MonthCents     int64                   `json:"month_cents"`
	LastMonthCents int64                   `json:"last_month_cents"`
	Last7Days      []reporting.DayTotal    `json:"last_7_days"`
	Breakdown      []reporting.CategorySum `json:"breakdown"`
	Budgets        []budget.BudgetStatus   `json:"budgets"`
	Recent         []core.Expense          `json:"recent"`
}

type Service struct {
	store   ledger.Store
	budgets *budget.Engine
	now     func() time.Time
}

func NewService(store ledger.Store, budgets *budget.Engine) *Service {
	return &Service{store: store, budgets: budgets, now: time.Now}
}

// WithNow overrides the clock; tests only.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Build runs the independent reads concurrently and fails as a whole if
// any of them fails; a dashboard with silently missing panels would be
// worse than an error.
func (s *Service) Build(ctx context.Context, userID string) (Overview, error) {
	now := s.now()

	today := core.Today(now)
	yesterday := core.Yesterday(now)
	month := core.CurrentMonth(now)
	lastMonth := core.LastMonth(now)
	last7 := core.Last7Days(now)

	var ov Overview
	g, gctx := errgroup.WithContext(ctx)

	fetchTotal := func(w core.Window, dst *int64) func() error {
		return func() error {
			expenses, err := s.store.FetchExpenses(gctx, userID, ledger.ExpenseFilter{Window: &w}, 0, 0)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", w, err)
			}
			*dst = reporting.TotalOf(expenses)
			return nil
		}
	}

	g.Go(fetchTotal(today, &ov.TodayCents))
	g.Go(fetchTotal(yesterday, &ov.YesterdayCents))
	g.Go(fetchTotal(lastMonth, &ov.LastMonthCents))

	g.Go(func() error {
		expenses, err := s.store.FetchExpenses(gctx, userID, ledger.ExpenseFilter{Window: &month}, 0, 0)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", month, err)
		}
		ov.MonthCents = reporting.TotalOf(expenses)
		ov.Breakdown = reporting.CategoryBreakdown(expenses)
		return nil
	})

	g.Go(func() error {
		expenses, err := s.store.FetchExpenses(gctx, userID, ledger.ExpenseFilter{Window: &last7}, 0, 0)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", last7, err)
		}
		ov.Last7Days = reporting.SumByDay(expenses, last7)
		return nil
	})

	g.Go(func() error {
		expenses, err := s.store.FetchExpenses(gctx, userID, ledger.ExpenseFilter{}, 0, RecentLimit)
		if err != nil {
			return fmt.Errorf("fetch recent: %w", err)
		}
		ov.Recent = expenses
		return nil
	})

	g.Go(func() error {
		statuses, err := s.budgets.EvaluateAll(gctx, userID)
		if err != nil {
			return fmt.Errorf("evaluate budgets: %w", err)
		}
		ov.Budgets = statuses
		return nil
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return ov, nil
}
