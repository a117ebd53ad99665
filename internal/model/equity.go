package model

import "time"

// EquityPoint is one point of a projected equity series: current value of the
// holding minus the amount invested, at an instant. Derived, never persisted.
type EquityPoint struct {
	Time     time.Time
	Equity   float64
	Invested float64
	Shares   float64
	Dividend float64

	// Percent is Equity / Invested * 100. Only meaningful in percent mode
	// and only when Invested is nonzero (PercentValid).
	Percent      float64
	PercentValid bool
}

// EquitySeries is an ascending, timestamp-unique sequence of equity points.
type EquitySeries []EquityPoint
