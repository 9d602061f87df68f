package core

import (
	"testing"
	"time"
)

var ref = time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)

func TestTodayAndYesterday(t *testing.T) {
	today := Today(ref)
	if today.Start.String() != "2025-03-15" || today.End.String() != "2025-03-15" {
		t.Fatalf("today window wrong: %s", today)
	}
	if today.Days() != 1 {
		t.Fatalf("today should span one day, got %d", today.Days())
	}

	y := Yesterday(ref)
	if y.Start.String() != "2025-03-14" || y.End.String() != "2025-03-14" {
		t.Fatalf("yesterday window wrong: %s", y)
	}
}

func TestCurrentMonth(t *testing.T) {
	w := CurrentMonth(ref)
	if w.Start.String() != "2025-03-01" || w.End.String() != "2025-03-15" {
		t.Fatalf("current month wrong: %s", w)
	}
	if w.Days() != 15 {
		t.Fatalf("expected 15 days, got %d", w.Days())
	}
}

func TestLastMonth(t *testing.T) {
	w := LastMonth(ref)
	if w.Start.String() != "2025-02-01" || w.End.String() != "2025-02-28" {
		t.Fatalf("last month wrong: %s", w)
	}

	// January's last month is the prior December.
	jan := time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC)
	w = LastMonth(jan)
	if w.Start.String() != "2024-12-01" || w.End.String() != "2024-12-31" {
		t.Fatalf("year boundary wrong: %s", w)
	}
}

func TestLast7Days(t *testing.T) {
	w := Last7Days(ref)
	if w.Days() != 7 {
		t.Fatalf("expected 7 days, got %d", w.Days())
	}
	if w.Start.String() != "2025-03-09" || w.End.String() != "2025-03-15" {
		t.Fatalf("last 7 days wrong: %s", w)
	}

	// Rolling across a month boundary.
	w = Last7Days(time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC))
	if w.Start.String() != "2025-02-25" {
		t.Fatalf("month boundary wrong: %s", w)
	}
}

func TestLast3Months(t *testing.T) {
	w := Last3Months(ref)
	if w.Start.String() != "2024-12-16" || w.End.String() != "2025-03-15" {
		t.Fatalf("last 3 months wrong: %s", w)
	}
}

func TestWindowsNeverInverted(t *testing.T) {
	instants := []time.Time{
		ref,
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, time.February, 29, 12, 0, 0, 0, time.UTC),
	}
	for _, now := range instants {
		for _, w := range []Window{Today(now), Yesterday(now), CurrentMonth(now), LastMonth(now), Last7Days(now), Last3Months(now)} {
			if w.Start.After(w.End) {
				t.Fatalf("inverted window %s for %s", w, now)
			}
		}
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{Start: NewDate(2025, time.March, 1), End: NewDate(2025, time.March, 15)}
	cases := []struct {
		d  Date
		in bool
	}{
		{NewDate(2025, time.March, 1), true},
		{NewDate(2025, time.March, 15), true},
		{NewDate(2025, time.February, 28), false},
		{NewDate(2025, time.March, 16), false},
	}
	for i, tc := range cases {
		if got := w.Contains(tc.d); got != tc.in {
			t.Fatalf("case %d expected %v", i, tc.in)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-15")
	if err != nil || d.String() != "2025-03-15" {
		t.Fatalf("parse failed: %v %s", err, d)
	}
	if _, err := ParseDate("15/03/2025"); err == nil {
		t.Fatalf("expected error for bad layout")
	}
}
