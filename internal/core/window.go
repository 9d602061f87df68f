package core

import (
	"fmt"
	"time"
)

// dateLayout is the wire and storage form of a calendar date.
const dateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day component. The underlying
// instant is always midnight UTC so dates compare and subtract cleanly.
type Date struct {
	time.Time
}

// NewDate builds a date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date in the instant's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses an ISO calendar date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

// MarshalJSON encodes the date in its wire form, "2006-01-02".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date { return Date{Time: d.AddDate(0, 0, n)} }

func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// Window is a closed calendar-date interval [Start, End], inclusive on
// both ends. Constructors never produce Start > End.
type Window struct {
	Start Date
	End   Date
}

// Days returns the inclusive number of calendar days covered.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start.Time)/(24*time.Hour)) + 1
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Window) String() string {
	return w.Start.String() + ".." + w.End.String()
}

// Today is the single-day window for the reference instant.
func Today(now time.Time) Window {
	d := DateOf(now)
	return Window{Start: d, End: d}
}

// Yesterday is the single-day window for the prior calendar day.
func Yesterday(now time.Time) Window {
	d := DateOf(now).AddDays(-1)
	return Window{Start: d, End: d}
}

// CurrentMonth runs from the first of the month through today.
func CurrentMonth(now time.Time) Window {
	today := DateOf(now)
	return Window{Start: NewDate(today.Year(), today.Month(), 1), End: today}
}

// LastMonth covers the full prior calendar month, crossing year
// boundaries (January's last month is the prior December).
func LastMonth(now time.Time) Window {
	today := DateOf(now)
	firstOfThis := NewDate(today.Year(), today.Month(), 1)
	return Window{Start: Date{Time: firstOfThis.AddDate(0, -1, 0)}, End: firstOfThis.AddDays(-1)}
}

// Last7Days is the rolling seven-day window ending today.
func Last7Days(now time.Time) Window {
	today := DateOf(now)
	return Window{Start: today.AddDays(-6), End: today}
}

// Last3Months is the rolling three-month window ending today. It is not
// calendar-aligned: the start is the day after the same date three
// months back.
func Last3Months(now time.Time) Window {
	today := DateOf(now)
	return Window{Start: Date{Time: today.AddDate(0, -3, 0)}.AddDays(1), End: today}
}
