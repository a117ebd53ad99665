// Package aggregator merges per-stock equity series into one aligned
// multi-series timeline with a synthetic combined Net series.
package aggregator

import (
	"sort"

	"PortfolioLens/internal/ledger"
	"PortfolioLens/internal/model"
	"PortfolioLens/internal/projector"
)

// Result is the aggregated output consumed by the renderer.
type Result struct {
	// Order lists retained symbols by the purchase date of each stock's
	// earliest valid lot, ascending. Determines series stacking order.
	Order    []string
	PerStock map[string]model.EquitySeries
	// Net is the combined series, present only when two or more stocks are
	// retained.
	Net  model.EquitySeries
	Mode model.DisplayMode
}

// Aggregate projects every stock and merges the results. Stocks whose
// projection is empty are dropped entirely and never block the others.
func Aggregate(stocks []model.Stock, mode model.DisplayMode) Result {
	res := Result{PerStock: make(map[string]model.EquitySeries), Mode: mode}

	type retained struct {
		symbol   string
		earliest int64
	}
	var kept []retained
	for i := range stocks {
		stock := &stocks[i]
		proj := projector.Project(stock, mode)
		if len(proj) == 0 {
			continue
		}
		lots := ledger.ValidLots(stock)
		res.PerStock[stock.Symbol] = proj
		kept = append(kept, retained{stock.Symbol, lots[0].Date.UnixNano()})
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].earliest < kept[j].earliest })
	for _, k := range kept {
		res.Order = append(res.Order, k.symbol)
	}

	if len(kept) >= 2 {
		res.Net = mergeNet(res.Order, res.PerStock, mode)
	}
	return res
}

// mergeNet folds every stock's points into one series, deduplicated by exact
// timestamp. Points sharing an instant sum their equity, shares, invested
// amount and dividends; a stock with no data at an instant contributes zero,
// with no interpolation. Percent return is recomputed from the summed values
// rather than summing percentages.
func mergeNet(order []string, perStock map[string]model.EquitySeries, mode model.DisplayMode) model.EquitySeries {
	var all model.EquitySeries
	for _, symbol := range order {
		all = append(all, perStock[symbol]...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Time.Before(all[j].Time) })

	net := make(model.EquitySeries, 0, len(all))
	for _, p := range all {
		if n := len(net); n > 0 && net[n-1].Time.Equal(p.Time) {
			merged := net[n-1]
			merged.Equity += p.Equity
			merged.Invested += p.Invested
			merged.Shares += p.Shares
			merged.Dividend += p.Dividend
			net[n-1] = merged
			continue
		}
		p.Percent = 0
		p.PercentValid = false
		net = append(net, p)
	}

	if mode == model.ModePercent {
		for i := range net {
			if net[i].Invested != 0 {
				net[i].Percent = net[i].Equity / net[i].Invested * 100
				net[i].PercentValid = true
			}
		}
	}
	return net
}
