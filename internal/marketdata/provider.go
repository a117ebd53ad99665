// Package marketdata fetches price history, quotes, company records and news
// from third-party financial APIs behind a single Provider interface.
package marketdata

import (
	"context"
	"errors"

	"PortfolioLens/internal/model"
)

// ErrRateLimited is returned when a provider rejects a request because the
// request quota is exhausted. Callers fall back to the session cache or
// retry on the next scheduled poll.
var ErrRateLimited = errors.New("provider rate limited")

// RawDailyBar is one day's bar from a daily/full-history payload.
type RawDailyBar struct {
	Close    float64
	Volume   float64
	Dividend float64
}

// RawDailySeries is a daily payload keyed by date string (2006-01-02).
type RawDailySeries map[string]RawDailyBar

// RawIntradayBar is one minute bar from an intraday payload. Close and
// Volume are pointers because providers intermittently omit them.
type RawIntradayBar struct {
	Date   string // 20060102
	Minute string // 15:04
	Close  *float64
	Volume *float64
}

// RawIntradaySeries is today's intraday payload in minute order.
type RawIntradaySeries []RawIntradayBar

// Provider defines the interface for fetching market data. Multiple
// concrete backends exist; all are pluggable.
type Provider interface {
	DailySeries(ctx context.Context, symbol string) (RawDailySeries, error)
	IntradaySeries(ctx context.Context, symbol string) (RawIntradaySeries, error)
	// LatestIntraday returns only the most recent minute bar.
	LatestIntraday(ctx context.Context, symbol string) (RawIntradaySeries, error)
	Quote(ctx context.Context, symbol string) (model.Quote, error)
	CompanyInfo(ctx context.Context, symbol string) (model.Company, error)
	News(ctx context.Context, symbol string) ([]model.NewsArticle, error)
	Name() string
}

// composite splits Provider across two backends: daily history from
// AlphaVantage, everything else from IEX.
type composite struct {
	daily *AlphaVantageClient
	rest  *IEXClient
}

// Compose builds a Provider from the two concrete backends.
func Compose(daily *AlphaVantageClient, rest *IEXClient) Provider {
	return &composite{daily: daily, rest: rest}
}

func (c *composite) Name() string { return c.daily.Name() + "+" + c.rest.Name() }

func (c *composite) DailySeries(ctx context.Context, symbol string) (RawDailySeries, error) {
	return c.daily.DailySeries(ctx, symbol)
}

func (c *composite) IntradaySeries(ctx context.Context, symbol string) (RawIntradaySeries, error) {
	return c.rest.IntradaySeries(ctx, symbol)
}

func (c *composite) LatestIntraday(ctx context.Context, symbol string) (RawIntradaySeries, error) {
	return c.rest.LatestIntraday(ctx, symbol)
}

func (c *composite) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	return c.rest.Quote(ctx, symbol)
}

func (c *composite) CompanyInfo(ctx context.Context, symbol string) (model.Company, error) {
	return c.rest.CompanyInfo(ctx, symbol)
}

func (c *composite) News(ctx context.Context, symbol string) ([]model.NewsArticle, error) {
	return c.rest.News(ctx, symbol)
}
