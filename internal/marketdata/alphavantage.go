package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// AlphaVantageClient fetches daily adjusted price history from the
// AlphaVantage REST API.
type AlphaVantageClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewAlphaVantageClient creates a client with optional proxy support.
func NewAlphaVantageClient(baseURL, apiKey, proxyURL string) *AlphaVantageClient {
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co/query"
	}
	return &AlphaVantageClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (c *AlphaVantageClient) Name() string { return "alphavantage" }

// avDaily is the expected JSON shape of a TIME_SERIES_DAILY_ADJUSTED
// response. All numbers arrive as strings. A quota-exhausted response
// carries a Note/Information field instead of the series.
type avDaily struct {
	Series      map[string]map[string]string `json:"Time Series (Daily)"`
	Note        string                       `json:"Note"`
	Information string                       `json:"Information"`
}

// DailySeries fetches the full daily history for a symbol. A response with
// no series and a quota note maps to ErrRateLimited.
func (c *AlphaVantageClient) DailySeries(ctx context.Context, symbol string) (RawDailySeries, error) {
	endpoint := fmt.Sprintf("%s?function=TIME_SERIES_DAILY_ADJUSTED&symbol=%s&outputsize=full&apikey=%s",
		c.BaseURL, url.QueryEscape(symbol), c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch daily series: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch daily series: status %d, body: %s", resp.StatusCode, string(body))
	}

	var payload avDaily
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode daily series: %w", err)
	}
	if len(payload.Series) == 0 {
		if payload.Note != "" || payload.Information != "" {
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("daily series: no data for %s", symbol)
	}

	out := make(RawDailySeries, len(payload.Series))
	for date, fields := range payload.Series {
		out[date] = RawDailyBar{
			Close:    parseField(fields, "4. close"),
			Volume:   parseField(fields, "6. volume"),
			Dividend: parseField(fields, "7. dividend amount"),
		}
	}
	return out, nil
}

// parseField reads a numeric string field, 0 when absent or malformed.
func parseField(fields map[string]string, key string) float64 {
	v, err := strconv.ParseFloat(fields[key], 64)
	if err != nil {
		return 0
	}
	return v
}

// newHTTPClient builds an HTTP client with a request timeout and optional
// proxy, shared by all backends.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
