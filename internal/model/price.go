package model

import "time"

// PricePoint is a single entry in a stock's canonical price series.
type PricePoint struct {
	Time     time.Time
	Close    float64
	Volume   float64
	Dividend float64
}

// PriceSeries is an ascending, timestamp-unique sequence of price points.
type PriceSeries []PricePoint

// Last returns the newest point in the series, or false when empty.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// From returns the sub-series of points with timestamps at or after t.
// The underlying array is shared; callers must not mutate the result.
func (s PriceSeries) From(t time.Time) PriceSeries {
	for i, p := range s {
		if !p.Time.Before(t) {
			return s[i:]
		}
	}
	return nil
}

// Clone returns an independent copy of the series.
func (s PriceSeries) Clone() PriceSeries {
	if s == nil {
		return nil
	}
	out := make(PriceSeries, len(s))
	copy(out, s)
	return out
}
