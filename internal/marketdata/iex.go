package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PortfolioLens/internal/model"
)

// issueTypes maps IEX issue type abbreviations to display names.
var issueTypes = map[string]string{
	"ad": "American Depository Receipt (ADR)",
	"re": "Real Estate Investment Trust (REIT)",
	"ce": "Closed end fund (Stock and Bond Fund)",
	"si": "Secondary Issue",
	"lp": "Limited Partnerships",
	"cs": "Common Stock",
	"et": "Exchange Traded Fund (ETF)",
}

// IEXClient fetches intraday bars, quotes, company records and news from
// the IEX REST API.
type IEXClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewIEXClient creates a client with optional proxy support. An empty token
// is valid against API deployments that do not require one.
func NewIEXClient(baseURL, token, proxyURL string) *IEXClient {
	if baseURL == "" {
		baseURL = "https://api.iextrading.com/1.0"
	}
	return &IEXClient{
		BaseURL: baseURL,
		Token:   token,
		Client:  newHTTPClient(proxyURL),
	}
}

func (c *IEXClient) Name() string { return "iex" }

// iexBar is one minute bar from the chart endpoint. Close and volume are
// nullable: thin minutes arrive without trades.
type iexBar struct {
	Date   string   `json:"date"`
	Minute string   `json:"minute"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

// IntradaySeries fetches today's minute bars for a symbol.
func (c *IEXClient) IntradaySeries(ctx context.Context, symbol string) (RawIntradaySeries, error) {
	endpoint := fmt.Sprintf("%s/stock/%s/chart/1d", c.BaseURL, url.PathEscape(symbol))
	return c.fetchBars(ctx, endpoint)
}

// LatestIntraday fetches only the most recent minute bar.
func (c *IEXClient) LatestIntraday(ctx context.Context, symbol string) (RawIntradaySeries, error) {
	endpoint := fmt.Sprintf("%s/stock/%s/chart/1d?chartLast=1", c.BaseURL, url.PathEscape(symbol))
	return c.fetchBars(ctx, endpoint)
}

func (c *IEXClient) fetchBars(ctx context.Context, endpoint string) (RawIntradaySeries, error) {
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var bars []iexBar
	if err := json.Unmarshal(body, &bars); err != nil {
		return nil, fmt.Errorf("decode intraday bars: %w", err)
	}
	out := make(RawIntradaySeries, 0, len(bars))
	for _, b := range bars {
		out = append(out, RawIntradayBar{
			Date:   b.Date,
			Minute: b.Minute,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	return out, nil
}

// Quote fetches the latest price snapshot for a symbol.
func (c *IEXClient) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	endpoint := fmt.Sprintf("%s/stock/%s/quote?displayPercent=true", c.BaseURL, url.PathEscape(symbol))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return model.Quote{}, err
	}
	var q struct {
		LatestPrice   float64 `json:"latestPrice"`
		Change        float64 `json:"change"`
		ChangePercent float64 `json:"changePercent"`
		PERatio       float64 `json:"peRatio"`
	}
	if err := json.Unmarshal(body, &q); err != nil {
		return model.Quote{}, fmt.Errorf("decode quote: %w", err)
	}
	return model.Quote{
		Price:         q.LatestPrice,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		PERatio:       q.PERatio,
	}, nil
}

// CompanyInfo fetches the issuer record for a symbol, expanding the issue
// type abbreviation to its display name.
func (c *IEXClient) CompanyInfo(ctx context.Context, symbol string) (model.Company, error) {
	endpoint := fmt.Sprintf("%s/stock/%s/company", c.BaseURL, url.PathEscape(symbol))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return model.Company{}, err
	}
	var rec struct {
		Symbol      string `json:"symbol"`
		CompanyName string `json:"companyName"`
		Exchange    string `json:"exchange"`
		Industry    string `json:"industry"`
		Website     string `json:"website"`
		Description string `json:"description"`
		CEO         string `json:"CEO"`
		IssueType   string `json:"issueType"`
		Sector      string `json:"sector"`
	}
	if err := json.Unmarshal(body, &rec); err != nil {
		return model.Company{}, fmt.Errorf("decode company: %w", err)
	}
	issueType := rec.IssueType
	if name, ok := issueTypes[issueType]; ok {
		issueType = name
	}
	return model.Company{
		Symbol:      rec.Symbol,
		Name:        rec.CompanyName,
		Exchange:    rec.Exchange,
		Industry:    rec.Industry,
		Website:     rec.Website,
		Description: rec.Description,
		CEO:         rec.CEO,
		IssueType:   issueType,
		Sector:      rec.Sector,
	}, nil
}

// News fetches the latest articles for a symbol. The related field arrives
// as a comma-separated string and is split here.
func (c *IEXClient) News(ctx context.Context, symbol string) ([]model.NewsArticle, error) {
	endpoint := fmt.Sprintf("%s/stock/%s/news", c.BaseURL, url.PathEscape(symbol))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var articles []struct {
		Datetime string `json:"datetime"`
		Headline string `json:"headline"`
		Source   string `json:"source"`
		URL      string `json:"url"`
		Summary  string `json:"summary"`
		Related  string `json:"related"`
		Image    string `json:"image"`
	}
	if err := json.Unmarshal(body, &articles); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}
	out := make([]model.NewsArticle, 0, len(articles))
	for _, a := range articles {
		when, _ := time.Parse(time.RFC3339, a.Datetime)
		var related []string
		if a.Related != "" {
			related = strings.Split(a.Related, ",")
		}
		out = append(out, model.NewsArticle{
			Time:     when,
			Headline: a.Headline,
			Source:   a.Source,
			URL:      a.URL,
			Summary:  a.Summary,
			Related:  related,
			Image:    a.Image,
		})
	}
	return out, nil
}

func (c *IEXClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	if c.Token != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + "token=" + url.QueryEscape(c.Token)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("iex fetch: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("iex read body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("iex: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
