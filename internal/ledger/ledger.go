// Package ledger validates and maintains the purchase lots of a stock.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"PortfolioLens/internal/exchange"
	"PortfolioLens/internal/model"
)

// Field names a lot input field.
type Field string

const (
	FieldDate  Field = "date"
	FieldCount Field = "count"
	FieldPrice Field = "price"
)

// Validation messages surfaced next to the offending field.
const (
	msgInvalidDate      = "Purchase date must be before the latest market close."
	msgUnparseableDate  = "Purchase date is not a valid date."
	msgNonPositiveCount = "Number of shares must be greater than 0."
	msgNegativePrice    = "Price per share cannot be negative."
	msgUnparseable      = "Value is not a valid number."
)

const dateFormat = "2006-01-02"

// ValidationError reports a rejected field value. It is stored on the lot
// for display and never propagated past the mutation that produced it.
type ValidationError struct {
	Field  Field
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lot %s: %s", e.Field, e.Reason)
}

// AddEmptyLot appends an open lot to the stock iff none exists. Calling it
// repeatedly without filling any field leaves exactly one open lot.
func AddEmptyLot(stock *model.Stock) {
	for _, lot := range stock.Lots {
		if lot.Open() {
			return
		}
	}
	stock.Lots = append(stock.Lots, model.Lot{})
}

// SetField parses and validates a raw input value for one lot field. A
// rejected value sets that field's error message and leaves the stored value
// unchanged; an accepted value stores it and clears only that field's
// previous error. Errors on other fields are untouched.
func SetField(stock *model.Stock, index int, field Field, raw string) *ValidationError {
	if index < 0 || index >= len(stock.Lots) {
		return &ValidationError{Field: field, Reason: "no such lot"}
	}
	lot := &stock.Lots[index]

	var verr *ValidationError
	switch field {
	case FieldDate:
		verr = setDate(stock, lot, raw)
	case FieldCount:
		verr = setCount(lot, raw)
	case FieldPrice:
		verr = setPrice(lot, raw)
	default:
		return &ValidationError{Field: field, Reason: "unknown field"}
	}

	if verr == nil && lot.Valid() {
		AddEmptyLot(stock)
	}
	return verr
}

func setDate(stock *model.Stock, lot *model.Lot, raw string) *ValidationError {
	lot.DateError = ""
	d, err := time.ParseInLocation(dateFormat, raw, exchange.Location)
	if err != nil {
		lot.DateError = msgUnparseableDate
		return &ValidationError{Field: FieldDate, Reason: msgUnparseableDate}
	}
	// A lot cannot be dated later than the newest known price point,
	// comparing at 09:30 exchange-local on the candidate day.
	if last, ok := stock.PriceHistory.Last(); ok {
		if exchange.AtMarketOpen(d).After(last.Time) {
			lot.DateError = msgInvalidDate
			return &ValidationError{Field: FieldDate, Reason: msgInvalidDate}
		}
	}
	lot.Date = &d
	return nil
}

func setCount(lot *model.Lot, raw string) *ValidationError {
	lot.CountError = ""
	v, err := decimal.NewFromString(raw)
	if err != nil {
		lot.CountError = msgUnparseable
		return &ValidationError{Field: FieldCount, Reason: msgUnparseable}
	}
	if !v.IsPositive() {
		lot.CountError = msgNonPositiveCount
		return &ValidationError{Field: FieldCount, Reason: msgNonPositiveCount}
	}
	lot.Count = v
	lot.HasCount = true
	return nil
}

func setPrice(lot *model.Lot, raw string) *ValidationError {
	lot.PriceError = ""
	v, err := decimal.NewFromString(raw)
	if err != nil {
		lot.PriceError = msgUnparseable
		return &ValidationError{Field: FieldPrice, Reason: msgUnparseable}
	}
	// Zero is permitted: gifted shares have no cost basis.
	if v.IsNegative() {
		lot.PriceError = msgNegativePrice
		return &ValidationError{Field: FieldPrice, Reason: msgNegativePrice}
	}
	lot.Price = v
	lot.HasPrice = true
	return nil
}

// RemoveLot removes the lot at index. An open lot is re-appended when the
// removal leaves none, so an entry row is always available.
func RemoveLot(stock *model.Stock, index int) {
	if index < 0 || index >= len(stock.Lots) {
		return
	}
	stock.Lots = append(stock.Lots[:index], stock.Lots[index+1:]...)
	AddEmptyLot(stock)
}

// ValidLots returns the lots that participate in equity calculations,
// sorted ascending by purchase date. The sort is stable: same-day lots keep
// their insertion order.
func ValidLots(stock *model.Stock) []model.Lot {
	out := make([]model.Lot, 0, len(stock.Lots))
	for _, lot := range stock.Lots {
		if lot.Valid() {
			out = append(out, lot)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(*out[j].Date)
	})
	return out
}
