// Package reporting computes grouped spending totals from raw expense
// records. Every function is pure: records are fetched elsewhere and
// all arithmetic stays in base-cents.
package reporting

import (
	"spendlog/internal/core"
)

// DayTotal is the spend of one calendar day.
type DayTotal struct {
	Date       core.Date `json:"date"`
	TotalCents int64     `json:"total_cents"`
}

// CategorySum carries a category's total together with the display
// fields charts need.
type CategorySum struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Emoji      string `json:"emoji"`
	TotalCents int64  `json:"total_cents"`
}

// SumByDay returns one entry per calendar day of the window, in order,
// zero-filled for days without expenses. The fixed length is what keeps
// chart widths stable regardless of data.
func SumByDay(expenses []core.Expense, w core.Window) []DayTotal {
	byDate := make(map[string]int64)
	for _, e := range expenses {
		if !w.Contains(e.Date) {
			continue
		}
		byDate[e.Date.String()] += e.AmountCents
	}

	out := make([]DayTotal, 0, w.Days())
	for d := w.Start; !d.After(w.End); d = d.AddDays(1) {
		out = append(out, DayTotal{Date: d, TotalCents: byDate[d.String()]})
	}
	return out
}

// SumByCategory groups totals by category ID. Categories with no
// expenses are absent, not zero-valued.
func SumByCategory(expenses []core.Expense) map[string]int64 {
	totals := make(map[string]int64, len(expenses))
	for _, e := range expenses {
		totals[e.CategoryID] += e.AmountCents
	}
	return totals
}

// CategoryBreakdown groups totals by category keeping the joined display
// fields, in first-occurrence order.
func CategoryBreakdown(expenses []core.Expense) []CategorySum {
	index := make(map[string]int, len(expenses))
	out := make([]CategorySum, 0, len(expenses))
	for _, e := range expenses {
		i, seen := index[e.CategoryID]
		if !seen {
			index[e.CategoryID] = len(out)
			out = append(out, CategorySum{
				CategoryID: e.CategoryID,
				Name:       e.Category.Name,
				Color:      e.Category.Color,
				Emoji:      e.Category.Emoji,
			})
			i = len(out) - 1
		}
		out[i].TotalCents += e.AmountCents
	}
	return out
}

// TotalOf is the flat sum of all amounts. Empty input yields zero.
func TotalOf(expenses []core.Expense) int64 {
	var total int64
	for _, e := range expenses {
		total += e.AmountCents
	}
	return total
}
