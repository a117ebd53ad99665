// Package portfolio owns the mutable portfolio aggregate. All state changes
// go through named operations on the Manager; everything downstream computes
// over read-only snapshots.
package portfolio

import (
	"sync"

	"github.com/rs/zerolog"

	"PortfolioLens/internal/exchange"
	"PortfolioLens/internal/ledger"
	"PortfolioLens/internal/marketdata"
	"PortfolioLens/internal/model"
	"PortfolioLens/internal/series"
)

// Manager guards the portfolio with a mutex so fetch handlers and HTTP
// intents can mutate it from any goroutine.
type Manager struct {
	mu sync.Mutex
	pf model.Portfolio

	// universe, when non-empty, restricts the related-symbol lists carried
	// on news articles to known symbols.
	universe map[string]bool

	log zerolog.Logger
}

// NewManager creates a Manager with an empty portfolio in percent mode.
func NewManager(universe []string, log zerolog.Logger) *Manager {
	u := make(map[string]bool, len(universe))
	for _, s := range universe {
		u[s] = true
	}
	return &Manager{
		pf:       model.Portfolio{Mode: model.ModePercent},
		universe: u,
		log:      log.With().Str("component", "portfolio").Logger(),
	}
}

// Snapshot returns a deep copy of the portfolio for pure computation.
func (m *Manager) Snapshot() model.Portfolio {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pf.Clone()
}

// AddStock appends a new stock with one open lot. Returns false when the
// symbol is already in the portfolio.
func (m *Manager) AddStock(symbol, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pf.FindStock(symbol) != nil {
		return false
	}
	m.pf.Stocks = append(m.pf.Stocks, model.Stock{
		Symbol: symbol,
		Name:   name,
		Lots:   []model.Lot{{}},
	})
	m.log.Info().Str("symbol", symbol).Msg("stock added")
	return true
}

// RemoveStock deletes a stock. Returns false when the symbol is unknown.
func (m *Manager) RemoveStock(symbol string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.pf.Stocks {
		if m.pf.Stocks[i].Symbol == symbol {
			m.pf.Stocks = append(m.pf.Stocks[:i], m.pf.Stocks[i+1:]...)
			m.log.Info().Str("symbol", symbol).Msg("stock removed")
			return true
		}
	}
	return false
}

// Symbols returns the portfolio's symbols in display order.
func (m *Manager) Symbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.pf.Stocks))
	for i := range m.pf.Stocks {
		out = append(out, m.pf.Stocks[i].Symbol)
	}
	return out
}

// AddEmptyLot appends an open lot to the stock iff none exists.
func (m *Manager) AddEmptyLot(symbol string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock := m.pf.FindStock(symbol)
	if stock == nil {
		return false
	}
	ledger.AddEmptyLot(stock)
	return true
}

// SetLotField commits a raw field value on a lot. The returned change flag
// is true only when the value was accepted; a validation error is recorded
// on the lot itself and reported back for display.
func (m *Manager) SetLotField(symbol string, index int, field ledger.Field, raw string) (bool, *ledger.ValidationError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock := m.pf.FindStock(symbol)
	if stock == nil {
		return false, &ledger.ValidationError{Field: field, Reason: "no such stock"}
	}
	if verr := ledger.SetField(stock, index, field, raw); verr != nil {
		return false, verr
	}
	return true, nil
}

// RemoveLot removes the lot at index, keeping an open entry row available.
func (m *Manager) RemoveLot(symbol string, index int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock := m.pf.FindStock(symbol)
	if stock == nil || index < 0 || index >= len(stock.Lots) {
		return false
	}
	ledger.RemoveLot(stock, index)
	return true
}

// ToggleMode flips between percent and absolute display and returns the new
// mode.
func (m *Manager) ToggleMode() model.DisplayMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pf.Mode == model.ModePercent {
		m.pf.Mode = model.ModeAbsolute
	} else {
		m.pf.Mode = model.ModePercent
	}
	return m.pf.Mode
}

// SetPriceHistory replaces a stock's canonical price series and refreshes
// the rising flag against the previous trading day's close.
func (m *Manager) SetPriceHistory(symbol string, history model.PriceSeries) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock := m.pf.FindStock(symbol)
	if stock == nil {
		return false
	}
	stock.PriceHistory = history
	stock.NeedsChartRefresh = true
	updateIsRising(stock)
	return true
}

// ApplyTick folds the latest minute bar into a stock's series. Only stocks
// with existing history accept ticks. Returns whether the series changed.
func (m *Manager) ApplyTick(symbol string, bar marketdata.RawIntradayBar) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock := m.pf.FindStock(symbol)
	if stock == nil || len(stock.PriceHistory) == 0 {
		return false
	}
	updated, changed := series.AddTick(stock.PriceHistory, bar)
	if changed {
		stock.PriceHistory = updated
		stock.NeedsChartRefresh = true
	}
	return changed
}

// ApplyQuote stores the latest price snapshot for a stock.
func (m *Manager) ApplyQuote(symbol string, quote model.Quote) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock := m.pf.FindStock(symbol)
	if stock == nil {
		return false
	}
	stock.Quote = quote
	updateIsRising(stock)
	return true
}

// ApplyCompany stores the issuer record for a stock.
func (m *Manager) ApplyCompany(symbol string, company model.Company) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock := m.pf.FindStock(symbol)
	if stock == nil {
		return false
	}
	stock.Company = company
	return true
}

// ApplyNews stores the latest articles for a stock, restricting each
// article's related symbols to the known universe.
func (m *Manager) ApplyNews(symbol string, articles []model.NewsArticle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock := m.pf.FindStock(symbol)
	if stock == nil {
		return false
	}
	if len(m.universe) > 0 {
		for i := range articles {
			kept := articles[i].Related[:0]
			for _, r := range articles[i].Related {
				if m.universe[r] {
					kept = append(kept, r)
				}
			}
			articles[i].Related = kept
		}
	}
	stock.News = articles
	return true
}

// UpdateNetChartVisibility applies the visibility rule: the net chart shows
// once any stock qualifies (two or more price points and a valid lot) and
// from then on only ever updates, never hides again this session.
func (m *Manager) UpdateNetChartVisibility() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pf.NetChartVisible {
		m.pf.NetChartNeedsRefresh = true
		return
	}
	for i := range m.pf.Stocks {
		stock := &m.pf.Stocks[i]
		if len(stock.PriceHistory) > 1 && len(ledger.ValidLots(stock)) > 0 {
			m.pf.NetChartVisible = true
			return
		}
	}
}

// AckNetChart clears the net chart refresh flag after a render.
func (m *Manager) AckNetChart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pf.NetChartNeedsRefresh = false
}

// AckStockChart clears a stock's chart refresh flag after a render.
func (m *Manager) AckStockChart(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stock := m.pf.FindStock(symbol); stock != nil {
		stock.NeedsChartRefresh = false
	}
}

// updateIsRising compares the latest quote against the previous trading
// day's closing price: the newest point from before the day the series ends
// on. Mondays therefore look back to Friday's close.
func updateIsRising(stock *model.Stock) {
	if stock.Quote.Price == 0 || len(stock.PriceHistory) == 0 {
		return
	}
	last := stock.PriceHistory[len(stock.PriceHistory)-1]
	cutoff := exchange.PreviousTradingDay(last.Time).AddDate(0, 0, 1)

	prevClose := last.Close
	for i := len(stock.PriceHistory) - 1; i >= 0; i-- {
		if stock.PriceHistory[i].Time.Before(cutoff) {
			prevClose = stock.PriceHistory[i].Close
			break
		}
	}
	stock.IsRising = stock.Quote.Price > prevClose
}
