// Package projector computes a stock's net-equity series from its price
// history and purchase lots.
package projector

import (
	"PortfolioLens/internal/ledger"
	"PortfolioLens/internal/model"
)

// Project combines a stock's price series with its valid lots into a
// per-timestamp equity series.
//
// Each retained price point accumulates, over every lot whose purchase date
// has been reached, the close price times the lot's share count minus the
// amount paid for the lot. A nonzero dividend at a point is added to the
// close before that arithmetic, treating distributions as price
// appreciation. The first retained point is defined as exactly zero, so the
// series always grows from a zero baseline at the moment of first purchase.
//
// A stock with no valid lots, or with fewer than two price points,
// contributes nothing and yields an empty series.
func Project(stock *model.Stock, mode model.DisplayMode) model.EquitySeries {
	lots := ledger.ValidLots(stock)
	if len(lots) == 0 || len(stock.PriceHistory) < 2 {
		return nil
	}

	// Only points from the earliest purchase date onward matter. A purchase
	// on a non-trading day is tolerated: its contribution begins at the
	// next available point.
	points := stock.PriceHistory.From(*lots[0].Date)
	if len(points) == 0 {
		return nil
	}

	out := make(model.EquitySeries, 0, len(points))
	for i, p := range points {
		close := p.Close + p.Dividend

		var equity, invested, shares float64
		for _, lot := range lots {
			if p.Time.Before(*lot.Date) {
				break
			}
			count := lot.CountValue()
			paid := lot.PriceValue() * count
			equity += close*count - paid
			invested += paid
			shares += count
		}

		if i == 0 {
			equity = 0 // zero baseline at first purchase
		}

		ep := model.EquityPoint{
			Time:     p.Time,
			Equity:   equity,
			Invested: invested,
			Shares:   shares,
			Dividend: p.Dividend,
		}
		if mode == model.ModePercent && invested != 0 {
			ep.Percent = equity / invested * 100
			ep.PercentValid = true
		}
		out = append(out, ep)
	}
	return out
}
