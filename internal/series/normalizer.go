// Package series converts raw provider payloads into canonical price series.
package series

import (
	"sort"
	"time"

	"PortfolioLens/internal/exchange"
	"PortfolioLens/internal/marketdata"
	"PortfolioLens/internal/model"
)

const (
	dailyDateFormat    = "2006-01-02"
	intradayDateFormat = "20060102"
	minuteFormat       = "15:04"
)

// Normalize converts a daily payload plus an optional today's-intraday
// payload into one ascending, timestamp-unique price series. Timestamps are
// pinned to the exchange-local offset so alignment is deterministic across
// viewers. Providers intermittently omit fields, so malformed entries are
// skipped and missing intraday closes are forward-filled from the preceding
// point; the result is always the best-effort partial series, never an error.
func Normalize(daily marketdata.RawDailySeries, intraday marketdata.RawIntradaySeries) model.PriceSeries {
	out := make(model.PriceSeries, 0, len(daily)+len(intraday))

	for date, bar := range daily {
		d, err := time.ParseInLocation(dailyDateFormat, date, exchange.Location)
		if err != nil {
			continue
		}
		out = append(out, model.PricePoint{
			Time:     d,
			Close:    bar.Close,
			Volume:   bar.Volume,
			Dividend: bar.Dividend,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	if len(intraday) > 0 {
		// The newest daily bar covers the day the intraday payload
		// describes; the minute bars supersede it.
		if len(out) > 0 {
			out = out[:len(out)-1]
		}
		for _, bar := range intraday {
			p, ok := intradayPoint(bar, out)
			if !ok {
				continue
			}
			out = appendPoint(out, p)
		}
	}
	return out
}

// AddTick folds a single new minute bar into an existing series, replacing
// the currently-forming latest point when the timestamp matches. Returns the
// updated series and whether it changed.
func AddTick(history model.PriceSeries, bar marketdata.RawIntradayBar) (model.PriceSeries, bool) {
	p, ok := intradayPoint(bar, history)
	if !ok {
		return history, false
	}
	if last, exists := history.Last(); exists {
		if p.Time.Before(last.Time) {
			return history, false
		}
		if p.Time.Equal(last.Time) {
			if last == p {
				return history, false
			}
			out := history.Clone()
			out[len(out)-1] = p
			return out, true
		}
	}
	return append(history.Clone(), p), true
}

// intradayPoint builds a price point from a minute bar, forward-filling a
// missing close/volume from the last point of prior. A bar with no close and
// no prior point is unusable and dropped.
func intradayPoint(bar marketdata.RawIntradayBar, prior model.PriceSeries) (model.PricePoint, bool) {
	t, err := time.ParseInLocation(intradayDateFormat+" "+minuteFormat, bar.Date+" "+bar.Minute, exchange.Location)
	if err != nil {
		return model.PricePoint{}, false
	}
	p := model.PricePoint{Time: t}
	if bar.Close != nil {
		p.Close = *bar.Close
		if bar.Volume != nil {
			p.Volume = *bar.Volume
		}
		return p, true
	}
	last, ok := prior.Last()
	if !ok {
		return model.PricePoint{}, false
	}
	p.Close = last.Close
	p.Volume = last.Volume
	return p, true
}

// appendPoint keeps the series ascending and timestamp-unique: a duplicate
// timestamp replaces the existing latest point, an older one is dropped.
func appendPoint(s model.PriceSeries, p model.PricePoint) model.PriceSeries {
	last, ok := s.Last()
	if !ok {
		return append(s, p)
	}
	switch {
	case p.Time.After(last.Time):
		return append(s, p)
	case p.Time.Equal(last.Time):
		s[len(s)-1] = p
		return s
	default:
		return s
	}
}
