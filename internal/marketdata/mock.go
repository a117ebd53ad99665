package marketdata

import (
	"context"
	"sync"

	"PortfolioLens/internal/model"
)

// MockProvider returns controllable fixed data for development and testing.
type MockProvider struct {
	Daily    map[string]RawDailySeries
	Intraday map[string]RawIntradaySeries
	Quotes   map[string]model.Quote
	Company  map[string]model.Company
	Articles map[string][]model.NewsArticle

	// Err, when set, is returned from every call. Set to ErrRateLimited to
	// exercise the cache fallback path. Use SetErr once fetches may be in
	// flight.
	Err error

	mu sync.Mutex
}

func (m *MockProvider) Name() string { return "mock" }

// SetErr swaps the forced error while calls may be running concurrently.
func (m *MockProvider) SetErr(err error) {
	m.mu.Lock()
	m.Err = err
	m.mu.Unlock()
}

func (m *MockProvider) failure() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

func (m *MockProvider) DailySeries(_ context.Context, symbol string) (RawDailySeries, error) {
	if err := m.failure(); err != nil {
		return nil, err
	}
	return m.Daily[symbol], nil
}

func (m *MockProvider) IntradaySeries(_ context.Context, symbol string) (RawIntradaySeries, error) {
	if err := m.failure(); err != nil {
		return nil, err
	}
	return m.Intraday[symbol], nil
}

func (m *MockProvider) LatestIntraday(_ context.Context, symbol string) (RawIntradaySeries, error) {
	if err := m.failure(); err != nil {
		return nil, err
	}
	bars := m.Intraday[symbol]
	if len(bars) == 0 {
		return nil, nil
	}
	return bars[len(bars)-1:], nil
}

func (m *MockProvider) Quote(_ context.Context, symbol string) (model.Quote, error) {
	if err := m.failure(); err != nil {
		return model.Quote{}, err
	}
	return m.Quotes[symbol], nil
}

func (m *MockProvider) CompanyInfo(_ context.Context, symbol string) (model.Company, error) {
	if err := m.failure(); err != nil {
		return model.Company{}, err
	}
	return m.Company[symbol], nil
}

func (m *MockProvider) News(_ context.Context, symbol string) ([]model.NewsArticle, error) {
	if err := m.failure(); err != nil {
		return nil, err
	}
	return m.Articles[symbol], nil
}
