package model

// DisplayMode selects the unit of the equity charts.
type DisplayMode string

const (
	ModePercent  DisplayMode = "percent"
	ModeAbsolute DisplayMode = "absolute"
)

// Portfolio is the single mutable root of the application state. Stocks keep
// insertion order, which is also display order.
type Portfolio struct {
	Stocks []Stock
	Mode   DisplayMode

	// NetChartVisible latches to true once the net chart has qualified and
	// stays true for the rest of the session.
	NetChartVisible      bool
	NetChartNeedsRefresh bool
}

// FindStock returns a pointer to the stock with the given symbol, or nil.
func (p *Portfolio) FindStock(symbol string) *Stock {
	for i := range p.Stocks {
		if p.Stocks[i].Symbol == symbol {
			return &p.Stocks[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the portfolio for pure computation.
func (p *Portfolio) Clone() Portfolio {
	out := *p
	out.Stocks = make([]Stock, len(p.Stocks))
	for i := range p.Stocks {
		out.Stocks[i] = p.Stocks[i].Clone()
	}
	return out
}
