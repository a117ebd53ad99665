package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioLens/internal/exchange"
	"PortfolioLens/internal/model"
)

func stockWithHistory(last time.Time) *model.Stock {
	return &model.Stock{
		Symbol: "AAPL",
		Lots:   []model.Lot{{}},
		PriceHistory: model.PriceSeries{
			{Time: last.AddDate(0, 0, -1), Close: 10},
			{Time: last, Close: 11},
		},
	}
}

func TestAddEmptyLot_Idempotent(t *testing.T) {
	stock := &model.Stock{Symbol: "AAPL"}

	AddEmptyLot(stock)
	AddEmptyLot(stock)

	require.Len(t, stock.Lots, 1)
	assert.True(t, stock.Lots[0].Open())
}

func TestSetField_AcceptsValidValues(t *testing.T) {
	last := exchange.AtMidnight(2024, 3, 6)
	stock := stockWithHistory(last)

	require.Nil(t, SetField(stock, 0, FieldDate, "2024-03-05"))
	require.Nil(t, SetField(stock, 0, FieldCount, "2.5"))
	require.Nil(t, SetField(stock, 0, FieldPrice, "10.00"))

	lot := stock.Lots[0]
	assert.True(t, lot.Valid())
	assert.Equal(t, 2.5, lot.CountValue())
	assert.Equal(t, 10.0, lot.PriceValue())
}

func TestSetField_CompletedLotAppendsOpenLot(t *testing.T) {
	last := exchange.AtMidnight(2024, 3, 6)
	stock := stockWithHistory(last)

	SetField(stock, 0, FieldDate, "2024-03-05")
	SetField(stock, 0, FieldCount, "2")
	SetField(stock, 0, FieldPrice, "10")

	require.Len(t, stock.Lots, 2)
	assert.True(t, stock.Lots[1].Open())
}

func TestSetField_RejectsFutureDate(t *testing.T) {
	last := exchange.AtMidnight(2024, 3, 6)
	stock := stockWithHistory(last)

	// Establish a prior valid date first.
	require.Nil(t, SetField(stock, 0, FieldDate, "2024-03-04"))
	prior := *stock.Lots[0].Date

	// 09:30 on 2024-03-07 is after the last known point (midnight 03-06).
	verr := SetField(stock, 0, FieldDate, "2024-03-07")

	require.NotNil(t, verr)
	assert.Equal(t, FieldDate, verr.Field)
	assert.NotEmpty(t, stock.Lots[0].DateError)
	// The stored date is unchanged by the rejected value.
	assert.True(t, stock.Lots[0].Date.Equal(prior))
}

func TestSetField_RejectsNonPositiveCount(t *testing.T) {
	stock := &model.Stock{Lots: []model.Lot{{}}}

	for _, raw := range []string{"0", "-1", "abc"} {
		verr := SetField(stock, 0, FieldCount, raw)
		require.NotNil(t, verr, "raw %q", raw)
		assert.NotEmpty(t, stock.Lots[0].CountError)
		assert.False(t, stock.Lots[0].HasCount)
	}
}

func TestSetField_ZeroPricePermitted(t *testing.T) {
	stock := &model.Stock{Lots: []model.Lot{{}}}

	require.Nil(t, SetField(stock, 0, FieldPrice, "0"))
	assert.True(t, stock.Lots[0].HasPrice)
	assert.Equal(t, 0.0, stock.Lots[0].PriceValue())

	verr := SetField(stock, 0, FieldPrice, "-0.01")
	require.NotNil(t, verr)
	assert.NotEmpty(t, stock.Lots[0].PriceError)
}

func TestSetField_ErrorsAreIndependent(t *testing.T) {
	stock := &model.Stock{Lots: []model.Lot{{}}}

	SetField(stock, 0, FieldCount, "-1")
	SetField(stock, 0, FieldPrice, "-1")
	require.NotEmpty(t, stock.Lots[0].CountError)
	require.NotEmpty(t, stock.Lots[0].PriceError)

	// Fixing the count clears only the count error.
	require.Nil(t, SetField(stock, 0, FieldCount, "3"))
	assert.Empty(t, stock.Lots[0].CountError)
	assert.NotEmpty(t, stock.Lots[0].PriceError)
}

func TestRemoveLot_ReappendsOpenLot(t *testing.T) {
	stock := &model.Stock{Lots: []model.Lot{{}}}
	SetField(stock, 0, FieldCount, "1")
	SetField(stock, 0, FieldPrice, "5")
	require.Len(t, stock.Lots, 1) // still incomplete, no open lot appended

	RemoveLot(stock, 0)

	require.Len(t, stock.Lots, 1)
	assert.True(t, stock.Lots[0].Open())
}

func TestValidLots_FiltersAndSorts(t *testing.T) {
	last := exchange.AtMidnight(2024, 3, 6)
	stock := stockWithHistory(last)
	stock.Lots = []model.Lot{{}, {}, {}, {}}

	// Lot 0: valid, later date.
	SetField(stock, 0, FieldDate, "2024-03-05")
	SetField(stock, 0, FieldCount, "1")
	SetField(stock, 0, FieldPrice, "10")
	// Lot 1: valid, earlier date.
	SetField(stock, 1, FieldDate, "2024-03-04")
	SetField(stock, 1, FieldCount, "2")
	SetField(stock, 1, FieldPrice, "9")
	// Lot 2: incomplete.
	SetField(stock, 2, FieldCount, "4")
	// Lot 3: in error.
	SetField(stock, 3, FieldDate, "2024-03-04")
	SetField(stock, 3, FieldCount, "-4")
	SetField(stock, 3, FieldPrice, "1")

	lots := ValidLots(stock)

	require.Len(t, lots, 2)
	assert.Equal(t, 2.0, lots[0].CountValue()) // 03-04 first
	assert.Equal(t, 1.0, lots[1].CountValue())
}

func TestValidLots_StableTieBreak(t *testing.T) {
	last := exchange.AtMidnight(2024, 3, 6)
	stock := stockWithHistory(last)
	stock.Lots = []model.Lot{{}, {}}

	SetField(stock, 0, FieldDate, "2024-03-04")
	SetField(stock, 0, FieldCount, "1")
	SetField(stock, 0, FieldPrice, "10")
	SetField(stock, 1, FieldDate, "2024-03-04")
	SetField(stock, 1, FieldCount, "2")
	SetField(stock, 1, FieldPrice, "11")

	lots := ValidLots(stock)

	require.Len(t, lots, 2)
	assert.Equal(t, 1.0, lots[0].CountValue())
	assert.Equal(t, 2.0, lots[1].CountValue())
}
