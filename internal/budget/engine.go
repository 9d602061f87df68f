// Package budget derives per-category budget consumption from the
// ledger and decides which notifications to emit. Statuses are computed
// on demand and never persisted.
package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/ledger"
	"spendlog/internal/notify"
	"spendlog/internal/reporting"
)

type Status string

const (
	// StatusNoBudget means no limit is set: the category is excluded
	// from alerting and from over-budget counts.
	StatusNoBudget Status = "no_budget"
	StatusOnTrack  Status = "on_track"
	StatusWarning  Status = "warning"
	StatusExceeded Status = "exceeded"
)

// warningThreshold and exceededThreshold are percentages of the monthly
// limit. Boundaries are closed on the left: exactly 80% is already a
// warning, exactly 100% is already exceeded.
const (
	warningThreshold  = 80.0
	exceededThreshold = 100.0
)

// Classify maps spend against a limit. Percentage is meaningless (zero)
// when no limit is set.
func Classify(spentCents, limitCents int64) (Status, float64) {
	if limitCents == 0 {
		return StatusNoBudget, 0
	}
	pct := float64(spentCents) / float64(limitCents) * 100
	switch {
	case pct >= exceededThreshold:
		return StatusExceeded, pct
	case pct >= warningThreshold:
		return StatusWarning, pct
	default:
		return StatusOnTrack, pct
	}
}

// BudgetStatus is the derived state of one category for the current
// month.
type BudgetStatus struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Color        string  `json:"color"`
	Emoji        string  `json:"emoji"`
	SpentCents   int64   `json:"spent_cents"`
	LimitCents   int64   `json:"limit_cents"`
	Percentage   float64 `json:"percentage"`
	Status       Status  `json:"status"`
}

// OverBudget reports strictly more than 100% consumed.
func (bs BudgetStatus) OverBudget() bool { return bs.Percentage > exceededThreshold }

// RemainingCents is the headroom left; negative when exceeded.
func (bs BudgetStatus) RemainingCents() int64 { return bs.LimitCents - bs.SpentCents }

// Engine joins aggregated spend with configured limits. The display
// currency is threaded in from configuration so notification bodies
// format amounts the way the user sees them everywhere else.
type Engine struct {
	store    ledger.Store
	sink     notify.Sink
	currency core.Currency
	now      func() time.Time
}

func NewEngine(store ledger.Store, sink notify.Sink, currency core.Currency) *Engine {
	return &Engine{store: store, sink: sink, currency: currency, now: time.Now}
}

// WithNow overrides the clock; tests only.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Evaluate computes the current-month status of one category. An absent
// budget row is a valid NoBudget state, not an error; store failures
// propagate with nothing emitted.
func (e *Engine) Evaluate(ctx context.Context, userID, categoryID string) (BudgetStatus, error) {
	b, err := e.store.GetBudget(ctx, userID, categoryID)
	if errors.Is(err, core.ErrNotFound) {
		return BudgetStatus{CategoryID: categoryID, Status: StatusNoBudget}, nil
	}
	if err != nil {
		return BudgetStatus{}, fmt.Errorf("fetch budget: %w", err)
	}

	window := core.CurrentMonth(e.now())
	expenses, err := e.store.FetchExpenses(ctx, userID, ledger.ExpenseFilter{
		Window:     &window,
		CategoryID: categoryID,
	}, 0, 0)
	if err != nil {
		return BudgetStatus{}, fmt.Errorf("fetch expenses: %w", err)
	}

	return buildStatus(b, reporting.TotalOf(expenses)), nil
}

// EvaluateAll computes statuses for every category that has a budget
// with a positive limit; unset categories are omitted entirely. One
// expense fetch covers all categories.
func (e *Engine) EvaluateAll(ctx context.Context, userID string) ([]BudgetStatus, error) {
	budgets, err := e.store.FetchBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch budgets: %w", err)
	}

	window := core.CurrentMonth(e.now())
	expenses, err := e.store.FetchExpenses(ctx, userID, ledger.ExpenseFilter{Window: &window}, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}
	spent := reporting.SumByCategory(expenses)

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		if b.MonthlyLimitCents <= 0 {
			continue
		}
		statuses = append(statuses, buildStatus(b, spent[b.CategoryID]))
	}
	return statuses, nil
}

func buildStatus(b core.Budget, spentCents int64) BudgetStatus {
	status, pct := Classify(spentCents, b.MonthlyLimitCents)
	return BudgetStatus{
		CategoryID:   b.CategoryID,
		CategoryName: b.Category.Name,
		Color:        b.Category.Color,
		Emoji:        b.Category.Emoji,
		SpentCents:   spentCents,
		LimitCents:   b.MonthlyLimitCents,
		Percentage:   pct,
		Status:       status,
	}
}
