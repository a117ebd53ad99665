package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioLens/internal/exchange"
	"PortfolioLens/internal/marketdata"
	"PortfolioLens/internal/model"
)

func fp(v float64) *float64 { return &v }

func TestNormalize_DailyOnly(t *testing.T) {
	daily := marketdata.RawDailySeries{
		"2024-03-06": {Close: 12, Volume: 200},
		"2024-03-04": {Close: 10, Volume: 100, Dividend: 0.5},
		"2024-03-05": {Close: 11, Volume: 150},
	}

	got := Normalize(daily, nil)

	require.Len(t, got, 3)
	assert.True(t, got[0].Time.Equal(exchange.AtMidnight(2024, 3, 4)))
	assert.Equal(t, 10.0, got[0].Close)
	assert.Equal(t, 0.5, got[0].Dividend)
	assert.Equal(t, 11.0, got[1].Close)
	assert.Equal(t, 12.0, got[2].Close)
}

func TestNormalize_IntradaySupersedesLastDaily(t *testing.T) {
	daily := marketdata.RawDailySeries{
		"2024-03-05": {Close: 11},
		"2024-03-06": {Close: 12},
	}
	intraday := marketdata.RawIntradaySeries{
		{Date: "20240306", Minute: "09:30", Close: fp(11.5), Volume: fp(10)},
		{Date: "20240306", Minute: "09:31", Close: fp(11.6), Volume: fp(20)},
	}

	got := Normalize(daily, intraday)

	require.Len(t, got, 3)
	// The 2024-03-06 daily bar is gone, replaced by the minute bars.
	assert.Equal(t, 11.0, got[0].Close)
	assert.Equal(t, 11.5, got[1].Close)
	assert.Equal(t, 11.6, got[2].Close)
	want := time.Date(2024, 3, 6, 9, 31, 0, 0, exchange.Location)
	assert.True(t, got[2].Time.Equal(want))
}

func TestNormalize_ForwardFillsMissingClose(t *testing.T) {
	daily := marketdata.RawDailySeries{
		"2024-03-05": {Close: 11, Volume: 100},
		"2024-03-06": {Close: 12},
	}
	intraday := marketdata.RawIntradaySeries{
		{Date: "20240306", Minute: "09:30", Close: fp(11.5), Volume: fp(10)},
		{Date: "20240306", Minute: "09:31"}, // no trades this minute
	}

	got := Normalize(daily, intraday)

	require.Len(t, got, 3)
	assert.Equal(t, 11.5, got[2].Close)
	assert.Equal(t, 10.0, got[2].Volume)
	assert.Equal(t, 0.0, got[2].Dividend)
}

func TestNormalize_DropsUnusableBars(t *testing.T) {
	daily := marketdata.RawDailySeries{
		"not-a-date": {Close: 5},
		"2024-03-05": {Close: 11},
	}
	// The malformed daily date is skipped, the remaining daily bar is
	// superseded by the intraday payload, and the unparseable minute is
	// dropped. Only the valid minute bar survives.
	intraday := marketdata.RawIntradaySeries{
		{Date: "20240306", Minute: "bad", Close: fp(1)},
		{Date: "20240306", Minute: "09:30", Close: fp(11.2)},
	}

	got := Normalize(daily, intraday)

	require.Len(t, got, 1)
	assert.Equal(t, 11.2, got[0].Close)
}

func TestNormalize_EmptyInputs(t *testing.T) {
	assert.Empty(t, Normalize(nil, nil))
	assert.Empty(t, Normalize(marketdata.RawDailySeries{}, marketdata.RawIntradaySeries{}))
}

func TestAddTick_AppendsNewMinute(t *testing.T) {
	history := model.PriceSeries{
		{Time: time.Date(2024, 3, 6, 9, 30, 0, 0, exchange.Location), Close: 11.5, Volume: 10},
	}

	got, changed := AddTick(history, marketdata.RawIntradayBar{
		Date: "20240306", Minute: "09:31", Close: fp(11.6), Volume: fp(5),
	})

	assert.True(t, changed)
	require.Len(t, got, 2)
	assert.Equal(t, 11.6, got[1].Close)
}

func TestAddTick_ReplacesFormingPoint(t *testing.T) {
	when := time.Date(2024, 3, 6, 9, 31, 0, 0, exchange.Location)
	history := model.PriceSeries{
		{Time: when, Close: 11.5, Volume: 10},
	}

	got, changed := AddTick(history, marketdata.RawIntradayBar{
		Date: "20240306", Minute: "09:31", Close: fp(11.8), Volume: fp(25),
	})

	assert.True(t, changed)
	require.Len(t, got, 1)
	assert.Equal(t, 11.8, got[0].Close)
	// The original series is untouched: points are replaced, not mutated.
	assert.Equal(t, 11.5, history[0].Close)
}

func TestAddTick_IgnoresStaleAndIdentical(t *testing.T) {
	history := model.PriceSeries{
		{Time: time.Date(2024, 3, 6, 9, 31, 0, 0, exchange.Location), Close: 11.5, Volume: 10},
	}

	_, changed := AddTick(history, marketdata.RawIntradayBar{
		Date: "20240306", Minute: "09:30", Close: fp(11.0),
	})
	assert.False(t, changed)

	_, changed = AddTick(history, marketdata.RawIntradayBar{
		Date: "20240306", Minute: "09:31", Close: fp(11.5), Volume: fp(10),
	})
	assert.False(t, changed)
}

func TestAddTick_ForwardFillsMissingClose(t *testing.T) {
	history := model.PriceSeries{
		{Time: time.Date(2024, 3, 6, 9, 30, 0, 0, exchange.Location), Close: 11.5, Volume: 10},
	}

	got, changed := AddTick(history, marketdata.RawIntradayBar{
		Date: "20240306", Minute: "09:31",
	})

	assert.True(t, changed)
	require.Len(t, got, 2)
	assert.Equal(t, 11.5, got[1].Close)
	assert.Equal(t, 10.0, got[1].Volume)
}
