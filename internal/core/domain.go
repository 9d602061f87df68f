package core

import (
	"errors"
	"strings"
	"time"
)

// MaxDescriptionLen bounds the free-text description of an expense.
const MaxDescriptionLen = 200

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrFutureDate         = errors.New("expense date is in the future")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrMissingCategory    = errors.New("missing category")
	ErrMissingUser        = errors.New("missing user")
	ErrNotFound           = errors.New("not found")
)

type (
	// Category is immutable reference data, created by the seed migration.
	Category struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Color        string `json:"color"`
		IconName     string `json:"icon_name"`
		Emoji        string `json:"emoji"`
		DisplayOrder int    `json:"display_order"`
	}

	// Expense is a single ledger entry. Amounts are base-cents, never floats.
	Expense struct {
		ID          string    `json:"id"`
		UserID      string    `json:"-"`
		CategoryID  string    `json:"category_id"`
		AmountCents int64     `json:"amount_cents"`
		Description string    `json:"description"`
		Date        Date      `json:"date"`       // calendar date of the spend
		CreatedAt   time.Time `json:"created_at"` // tie-break for same-day ordering only
		Category    Category  `json:"category"`   // joined display fields
	}

	// Budget is a per-category monthly limit. A limit of zero is never
	// stored: it means "no budget set" and maps to a row delete.
	Budget struct {
		ID                string   `json:"id"`
		UserID            string   `json:"-"`
		CategoryID        string   `json:"category_id"`
		MonthlyLimitCents int64    `json:"monthly_limit_cents"`
		Category          Category `json:"category"`
	}
)

// Validate checks an expense before it reaches the store. The reference
// instant bounds the expense date: spends cannot be dated in the future.
func (e Expense) Validate(now time.Time) error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrMissingCategory
	}
	if e.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	if len(e.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if e.Date.After(DateOf(now)) {
		return ErrFutureDate
	}
	return nil
}

// Validate checks a budget before upsert. Zero limits are legal input at
// the service layer (they delete the row) but never valid as stored state.
func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(b.CategoryID) == "" {
		return ErrMissingCategory
	}
	if b.MonthlyLimitCents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
