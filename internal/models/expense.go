package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// AmountPlaces is the number of fractional digits an amount may carry.
	AmountPlaces = 2
	// AmountDigits bounds the integer part of an amount, matching NUMERIC(12,2).
	AmountDigits = 10
)

var maxAmount = decimal.New(1, AmountDigits)

// Validation failures reported by Expense.Validate.
var (
	ErrEmptyDescription = errors.New("description must not be empty")
	ErrNonPositive      = errors.New("amount must be a positive value")
	ErrAmountPrecision  = errors.New("amount must have at most two decimal places")
	ErrAmountRange      = errors.New("amount must be below 10000000000")
	ErrMissingDate      = errors.New("date is required")
	ErrInvalidDate      = errors.New("date must be a real calendar day between years 1 and 9999")
)

// Expense represents a single expense record.
type Expense struct {
	// ID is assigned by the store on create. Zero means not persisted or a
	// deployment without a surrogate key.
	ID          int64           `json:"id,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    *string         `json:"category,omitempty"`
	Date        *Date           `json:"date,omitempty"`
}

// NaturalKey is the tuple used to identify a row when no surrogate id exists.
type NaturalKey struct {
	Description string
	Amount      decimal.Decimal
	Category    *string
	Date        *Date
}

// Validate checks the invariants that must hold before an expense is persisted.
func (e Expense) Validate(requireDate bool) error {
	var errs []error
	if strings.TrimSpace(e.Description) == "" {
		errs = append(errs, ErrEmptyDescription)
	}
	if !e.Amount.IsPositive() {
		errs = append(errs, ErrNonPositive)
	} else if !e.Amount.Equal(e.Amount.Round(AmountPlaces)) {
		errs = append(errs, ErrAmountPrecision)
	} else if e.Amount.GreaterThanOrEqual(maxAmount) {
		errs = append(errs, ErrAmountRange)
	}
	switch {
	case e.Date == nil:
		if requireDate {
			errs = append(errs, ErrMissingDate)
		}
	case !e.Date.Valid():
		errs = append(errs, ErrInvalidDate)
	}
	return errors.Join(errs...)
}

// NaturalKey returns the field tuple of e.
func (e Expense) NaturalKey() NaturalKey {
	return NaturalKey{
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.Date,
	}
}

// SameIdentity reports whether e and o refer to the same surrogate id.
func (e Expense) SameIdentity(o Expense) bool {
	return e.ID != 0 && e.ID == o.ID
}

// Equal compares two keys field by field. Amounts compare numerically and
// dates by calendar day; absent values only equal other absent values.
func (k NaturalKey) Equal(o NaturalKey) bool {
	if k.Description != o.Description || !k.Amount.Equal(o.Amount) {
		return false
	}
	if (k.Category == nil) != (o.Category == nil) {
		return false
	}
	if k.Category != nil && *k.Category != *o.Category {
		return false
	}
	if (k.Date == nil) != (o.Date == nil) {
		return false
	}
	return k.Date == nil || k.Date.Equal(*o.Date)
}

// CategoryOrEmpty returns the category or "" when absent.
func (e Expense) CategoryOrEmpty() string {
	if e.Category == nil {
		return ""
	}
	return *e.Category
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// DatePtr returns a pointer to d.
func DatePtr(d Date) *Date {
	return &d
}
