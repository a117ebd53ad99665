package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is one purchase transaction for a stock. Fields stay nil/unset until
// the user fills them in, so a freshly appended lot doubles as the entry row
// for the next purchase. A lot with any error string set, or with a missing
// field, is excluded from equity calculations but kept for correction.
type Lot struct {
	Date  *time.Time
	Count decimal.Decimal
	Price decimal.Decimal

	HasCount bool
	HasPrice bool

	DateError  string
	CountError string
	PriceError string
}

// Open reports whether the lot is the blank entry row (no fields, no errors).
func (l Lot) Open() bool {
	return l.Date == nil && !l.HasCount && !l.HasPrice &&
		l.DateError == "" && l.CountError == "" && l.PriceError == ""
}

// Valid reports whether the lot participates in equity calculations:
// all three fields populated and no validation errors pending.
func (l Lot) Valid() bool {
	return l.Date != nil && l.HasCount && l.HasPrice &&
		l.DateError == "" && l.CountError == "" && l.PriceError == ""
}

// CountValue returns the share count as a float64. Zero when unset.
func (l Lot) CountValue() float64 {
	if !l.HasCount {
		return 0
	}
	return l.Count.InexactFloat64()
}

// PriceValue returns the price per share as a float64. Zero when unset.
func (l Lot) PriceValue() float64 {
	if !l.HasPrice {
		return 0
	}
	return l.Price.InexactFloat64()
}
