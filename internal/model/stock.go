package model

import "time"

// Quote is the latest traded price snapshot for a stock.
type Quote struct {
	Price         float64
	Change        float64
	ChangePercent float64
	PERatio       float64
}

// Company holds descriptive information about a stock's issuer.
type Company struct {
	Symbol      string
	Name        string
	Exchange    string
	Industry    string
	Website     string
	Description string
	CEO         string
	IssueType   string
	Sector      string
}

// NewsArticle is one news item related to a stock.
type NewsArticle struct {
	Time     time.Time
	Headline string
	Source   string
	URL      string
	Summary  string
	Related  []string
	Image    string
}

// Stock is one holding in the portfolio. Symbol is the stable identity used
// for all lookups and is unique across the portfolio.
type Stock struct {
	Symbol       string
	Name         string
	Lots         []Lot
	PriceHistory PriceSeries
	Quote        Quote
	IsRising     bool
	Company      Company
	News         []NewsArticle

	// NeedsChartRefresh is set when the stock's price chart must be
	// re-rendered and cleared by the renderer acknowledgement.
	NeedsChartRefresh bool
}

// Clone returns a deep copy of the stock.
func (s *Stock) Clone() Stock {
	out := *s
	out.Lots = make([]Lot, len(s.Lots))
	copy(out.Lots, s.Lots)
	out.PriceHistory = s.PriceHistory.Clone()
	out.News = make([]NewsArticle, len(s.News))
	copy(out.News, s.News)
	return out
}
