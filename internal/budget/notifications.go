package budget

import (
	"context"
	"fmt"
	"strings"

	"spendlog/internal/core"
	"spendlog/internal/notify"
)

// NotifyOnTransition evaluates one category right after an expense was
// inserted into it and emits at most one notification. The check is
// deliberately not idempotent: calling it again without a new expense
// re-emits the same severity, and periodic callers must dedupe
// themselves. Store failures propagate with nothing emitted.
func (e *Engine) NotifyOnTransition(ctx context.Context, userID, categoryID string) error {
	st, err := e.Evaluate(ctx, userID, categoryID)
	if err != nil {
		return err
	}

	n, emit := transitionNotification(st, e.currency)
	if !emit {
		return nil
	}
	if err := e.sink.Publish(ctx, n); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func transitionNotification(st BudgetStatus, cur core.Currency) (notify.Notification, bool) {
	switch st.Status {
	case StatusExceeded:
		return notify.Notification{
			Severity: notify.SeverityError,
			Title:    fmt.Sprintf("🚨 Budget Exceeded: %s", st.CategoryName),
			Body: fmt.Sprintf("You've spent %s (%.1f%%) of your %s budget.",
				core.Format(st.SpentCents, cur), st.Percentage, core.Format(st.LimitCents, cur)),
			DurationMS: 8000,
		}, true
	case StatusWarning:
		return notify.Notification{
			Severity: notify.SeverityWarning,
			Title:    fmt.Sprintf("⚠️ Budget Alert: %s", st.CategoryName),
			Body: fmt.Sprintf("You've used %.1f%% of your budget. %s remaining.",
				st.Percentage, core.Format(st.RemainingCents(), cur)),
			DurationMS: 6000,
		}, true
	default:
		return notify.Notification{}, false
	}
}

// BuildSummary collapses one evaluation pass into at most one
// notification: a single message naming all exceeded categories, or,
// only when none are exceeded, a single message naming all warnings.
// The collapsing exists to avoid a toast flood when several categories
// cross thresholds in the same pass.
func BuildSummary(statuses []BudgetStatus) (notify.Notification, bool) {
	var exceeded, warnings []string
	for _, st := range statuses {
		switch st.Status {
		case StatusExceeded:
			exceeded = append(exceeded, st.CategoryName)
		case StatusWarning:
			warnings = append(warnings, st.CategoryName)
		}
	}

	if len(exceeded) > 0 {
		return notify.Notification{
			Severity:   notify.SeverityError,
			Title:      fmt.Sprintf("💸 %d Budget%s Exceeded", len(exceeded), plural(len(exceeded))),
			Body:       fmt.Sprintf("%s over budget this month.", strings.Join(exceeded, ", ")),
			DurationMS: 10000,
		}, true
	}
	if len(warnings) > 0 {
		return notify.Notification{
			Severity:   notify.SeverityWarning,
			Title:      fmt.Sprintf("⚠️ %d Budget Warning%s", len(warnings), plural(len(warnings))),
			Body:       fmt.Sprintf("%s approaching budget limits.", strings.Join(warnings, ", ")),
			DurationMS: 8000,
		}, true
	}
	return notify.Notification{}, false
}

// PublishSummary runs BuildSummary and pushes the result, if any, to
// the sink.
func (e *Engine) PublishSummary(ctx context.Context, statuses []BudgetStatus) error {
	n, emit := BuildSummary(statuses)
	if !emit {
		return nil
	}
	if err := e.sink.Publish(ctx, n); err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
