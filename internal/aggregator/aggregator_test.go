package aggregator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioLens/internal/exchange"
	"PortfolioLens/internal/model"
)

func day(d int) time.Time { return exchange.AtMidnight(2024, 3, d) }

func lot(purchase time.Time, count, price float64) model.Lot {
	return model.Lot{
		Date:     &purchase,
		Count:    decimal.NewFromFloat(count),
		Price:    decimal.NewFromFloat(price),
		HasCount: true,
		HasPrice: true,
	}
}

// Stocks X and Y from the two-stock net scenario: X priced 10/12/15 with two
// shares at 10 from the first day, Y priced 5/6 with ten shares at 5 from
// the second day.
func twoStocks() []model.Stock {
	return []model.Stock{
		{
			Symbol: "X",
			Lots:   []model.Lot{lot(day(4), 2, 10), {}},
			PriceHistory: model.PriceSeries{
				{Time: day(4), Close: 10},
				{Time: day(5), Close: 12},
				{Time: day(6), Close: 15},
			},
		},
		{
			Symbol: "Y",
			Lots:   []model.Lot{lot(day(5), 10, 5), {}},
			PriceHistory: model.PriceSeries{
				{Time: day(5), Close: 5},
				{Time: day(6), Close: 6},
			},
		},
	}
}

func TestAggregate_TwoStockNetScenario(t *testing.T) {
	res := Aggregate(twoStocks(), model.ModeAbsolute)

	require.Equal(t, []string{"X", "Y"}, res.Order)
	require.Len(t, res.PerStock, 2)
	require.Len(t, res.Net, 3)

	// T0: only X holds a point; Y is absent before its first purchase.
	assert.True(t, res.Net[0].Time.Equal(day(4)))
	assert.InDelta(t, 0.0, res.Net[0].Equity, 1e-9)
	// T1: X contributes 4, Y's baseline contributes 0.
	assert.InDelta(t, 4.0, res.Net[1].Equity, 1e-9)
	// T2: X(10) + Y(10).
	assert.InDelta(t, 20.0, res.Net[2].Equity, 1e-9)

	assert.InDelta(t, 70.0, res.Net[1].Invested, 1e-9)
	assert.InDelta(t, 12.0, res.Net[1].Shares, 1e-9)
}

func TestAggregate_MergeSumsExactTimestamps(t *testing.T) {
	res := Aggregate(twoStocks(), model.ModeAbsolute)

	// Merge correctness: the net point at a shared timestamp is the exact
	// sum of the per-stock equities there.
	xT2 := res.PerStock["X"][2]
	yT2 := res.PerStock["Y"][1]
	require.True(t, xT2.Time.Equal(yT2.Time))
	assert.InDelta(t, xT2.Equity+yT2.Equity, res.Net[2].Equity, 1e-9)
}

func TestAggregate_NetTimestampsUniqueSorted(t *testing.T) {
	res := Aggregate(twoStocks(), model.ModeAbsolute)

	for i := 1; i < len(res.Net); i++ {
		assert.True(t, res.Net[i-1].Time.Before(res.Net[i].Time))
	}
}

func TestAggregate_NoNetForSingleStock(t *testing.T) {
	stocks := twoStocks()[:1]

	res := Aggregate(stocks, model.ModeAbsolute)

	assert.Equal(t, []string{"X"}, res.Order)
	assert.Nil(t, res.Net)
}

func TestAggregate_DropsEmptyProjections(t *testing.T) {
	stocks := twoStocks()
	stocks[1].Lots = []model.Lot{{}} // Y has no valid lots

	res := Aggregate(stocks, model.ModeAbsolute)

	assert.Equal(t, []string{"X"}, res.Order)
	_, ok := res.PerStock["Y"]
	assert.False(t, ok)
	assert.Nil(t, res.Net)
}

func TestAggregate_OrderByEarliestLot(t *testing.T) {
	stocks := twoStocks()
	// Give Y an earlier first purchase than X.
	stocks[1].Lots = []model.Lot{lot(day(3), 10, 5), {}}
	stocks[1].PriceHistory = model.PriceSeries{
		{Time: day(3), Close: 5},
		{Time: day(5), Close: 5.5},
		{Time: day(6), Close: 6},
	}

	res := Aggregate(stocks, model.ModeAbsolute)

	assert.Equal(t, []string{"Y", "X"}, res.Order)
}

func TestAggregate_PercentRecomputedNotSummed(t *testing.T) {
	res := Aggregate(twoStocks(), model.ModePercent)

	require.Len(t, res.Net, 3)
	for _, p := range res.Net {
		require.True(t, p.PercentValid)
		assert.InDelta(t, p.Equity/p.Invested*100, p.Percent, 1e-9)
	}
	// At T2 the recomputed value differs from the sum of percentages:
	// 20/70*100, not 50% + 20%.
	assert.InDelta(t, 20.0/70.0*100, res.Net[2].Percent, 1e-9)
}

func TestAggregate_EmptyPortfolio(t *testing.T) {
	res := Aggregate(nil, model.ModeAbsolute)

	assert.Empty(t, res.Order)
	assert.Empty(t, res.PerStock)
	assert.Nil(t, res.Net)
}
