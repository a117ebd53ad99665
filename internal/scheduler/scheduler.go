// Package scheduler drives the recompute cycle: it applies mutation events
// to the portfolio, reruns the aggregator, and notifies the renderer. It
// also owns the market-hours polling timer and the per-stock fetch tasks.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"PortfolioLens/internal/aggregator"
	"PortfolioLens/internal/cache"
	"PortfolioLens/internal/exchange"
	"PortfolioLens/internal/ledger"
	"PortfolioLens/internal/marketdata"
	"PortfolioLens/internal/model"
	"PortfolioLens/internal/portfolio"
	"PortfolioLens/internal/renderer"
	"PortfolioLens/internal/series"
)

// State of the recompute machine.
type State int32

const (
	StateIdle State = iota
	StateDirty
	StateRecomputing
)

// event is one unit of work for the loop. For fetch results, key and seq
// enforce last-write-wins per symbol and data kind; intents leave key empty.
type event struct {
	key   string
	seq   uint64
	apply func() bool // returns whether the portfolio changed
}

// Scheduler joins fetch tasks and user intents into a single event loop
// over the portfolio, recomputing synchronously whenever a mutation lands.
type Scheduler struct {
	Manager  *portfolio.Manager
	Provider marketdata.Provider
	Cache    cache.Store
	Renderer renderer.Renderer

	cron       *cron.Cron
	events     chan event
	state      atomic.Int32
	retryDelay time.Duration

	seqCounter atomic.Uint64
	mu         sync.Mutex
	applied    map[string]uint64

	ctx context.Context
	log zerolog.Logger
}

// New creates a Scheduler. retryDelay is the fixed backoff before the
// single retry after a rate-limited fetch with no cached fallback.
func New(ctx context.Context, mgr *portfolio.Manager, provider marketdata.Provider, store cache.Store, rend renderer.Renderer, retryDelay time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Manager:    mgr,
		Provider:   provider,
		Cache:      store,
		Renderer:   rend,
		cron:       cron.New(cron.WithSeconds()),
		events:     make(chan event, 64),
		retryDelay: retryDelay,
		applied:    make(map[string]uint64),
		ctx:        ctx,
		log:        log.With().Str("component", "scheduler").Logger(),
	}
}

// State returns the current recompute state.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// RegisterPolling installs the quote refresh task. The cron spec fires the
// check; the market-hours gate decides whether any polling happens.
func (s *Scheduler) RegisterPolling(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.pollQuotes); err != nil {
		return fmt.Errorf("register polling task: %w", err)
	}
	return nil
}

// Start launches the event loop and the cron timer.
func (s *Scheduler) Start() {
	go s.loop()
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron timer. The event loop exits with the context.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) loop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Scheduler) handle(ev event) {
	if ev.key != "" && s.stale(ev.key, ev.seq) {
		s.log.Debug().Str("key", ev.key).Msg("dropping stale fetch result")
		return
	}
	if !ev.apply() {
		return
	}
	s.state.Store(int32(StateDirty))
	s.recompute()
}

// recompute runs the aggregator over a fresh snapshot and hands the result
// to the renderer. Pure and synchronous: DIRTY goes to RECOMPUTING goes to
// IDLE before the next event is taken.
func (s *Scheduler) recompute() {
	s.state.Store(int32(StateRecomputing))
	s.Manager.UpdateNetChartVisibility()
	snapshot := s.Manager.Snapshot()
	result := aggregator.Aggregate(snapshot.Stocks, snapshot.Mode)
	s.state.Store(int32(StateIdle))

	if s.Renderer == nil {
		return
	}
	s.Renderer.Render(renderer.Update{Result: result, Portfolio: snapshot})

	// The delivered update carries the refresh flags; once it is out the
	// door they are consumed.
	s.Manager.AckNetChart()
	for i := range snapshot.Stocks {
		if snapshot.Stocks[i].NeedsChartRefresh {
			s.Manager.AckStockChart(snapshot.Stocks[i].Symbol)
		}
	}
}

// stale reports and records last-write-wins bookkeeping for a fetch result.
func (s *Scheduler) stale(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied[key] {
		return true
	}
	s.applied[key] = seq
	return false
}

// post delivers an event to the loop unless shutdown has begun.
func (s *Scheduler) post(ev event) {
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
	}
}

// postIntent delivers a user intent and triggers a recompute when the
// mutation reports a change.
func (s *Scheduler) postIntent(apply func() bool) {
	s.post(event{apply: apply})
}

// AddStock adds a stock to the portfolio and kicks off all fetches for it.
func (s *Scheduler) AddStock(symbol, name string) {
	s.postIntent(func() bool {
		if !s.Manager.AddStock(symbol, name) {
			return false
		}
		s.FetchStock(symbol)
		return true
	})
}

// RemoveStock removes a stock from the portfolio.
func (s *Scheduler) RemoveStock(symbol string) {
	s.postIntent(func() bool { return s.Manager.RemoveStock(symbol) })
}

// AddLot appends an open lot to a stock.
func (s *Scheduler) AddLot(symbol string) {
	s.postIntent(func() bool { return s.Manager.AddEmptyLot(symbol) })
}

// EditLotField commits a raw lot field value. Only an accepted value marks
// the portfolio dirty; a rejected one surfaces on the lot and changes no
// equity input.
func (s *Scheduler) EditLotField(symbol string, index int, field ledger.Field, raw string) {
	s.postIntent(func() bool {
		changed, verr := s.Manager.SetLotField(symbol, index, field, raw)
		if verr != nil {
			s.log.Debug().Str("symbol", symbol).Str("field", string(field)).Str("reason", verr.Reason).Msg("lot field rejected")
		}
		return changed
	})
}

// RemoveLot removes a lot from a stock.
func (s *Scheduler) RemoveLot(symbol string, index int) {
	s.postIntent(func() bool { return s.Manager.RemoveLot(symbol, index) })
}

// ToggleMode flips the display mode between percent and absolute.
func (s *Scheduler) ToggleMode() {
	s.postIntent(func() bool {
		s.Manager.ToggleMode()
		return true
	})
}

// FetchStock launches the fetch tasks for one stock: price history, quote,
// company record and news resolve independently and land as events.
func (s *Scheduler) FetchStock(symbol string) {
	go s.fetchHistory(symbol, true)
	go s.fetchQuote(symbol)
	go s.fetchCompany(symbol)
	go s.fetchNews(symbol, true)
}

// pollQuotes refreshes the quote and latest minute bar for every stock that
// already has price history. Runs only during market hours.
func (s *Scheduler) pollQuotes() {
	if !exchange.IsMarketOpen(time.Now()) {
		return
	}
	snapshot := s.Manager.Snapshot()
	for i := range snapshot.Stocks {
		stock := &snapshot.Stocks[i]
		if len(stock.PriceHistory) == 0 {
			continue
		}
		symbol := stock.Symbol
		go s.fetchQuote(symbol)
		go s.fetchTick(symbol)
	}
}

func (s *Scheduler) fetchHistory(symbol string, allowRetry bool) {
	seq := s.seqCounter.Add(1)
	key := symbol + "/history"

	daily, err := s.Provider.DailySeries(s.ctx, symbol)
	if err != nil {
		s.historyFallback(symbol, key, seq, err, allowRetry)
		return
	}
	intraday, err := s.Provider.IntradaySeries(s.ctx, symbol)
	if err != nil {
		// Daily data alone is still a usable series.
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("intraday fetch failed, using daily only")
		intraday = nil
	}

	history := series.Normalize(daily, intraday)
	if len(history) == 0 {
		s.log.Warn().Str("symbol", symbol).Msg("normalizer produced empty series")
		return
	}

	if payload, err := json.Marshal(history); err == nil {
		if err := s.Cache.Set(symbol, payload); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("cache price history")
		}
	}

	s.post(event{key: key, seq: seq, apply: func() bool {
		return s.Manager.SetPriceHistory(symbol, history)
	}})
}

// historyFallback serves cached history on rate limit, or schedules the
// single delayed retry when nothing is cached. Other errors end the cycle;
// the stock simply stays off the charts until the next trigger.
func (s *Scheduler) historyFallback(symbol, key string, seq uint64, cause error, allowRetry bool) {
	if !errors.Is(cause, marketdata.ErrRateLimited) {
		s.log.Error().Err(cause).Str("symbol", symbol).Msg("fetch price history")
		return
	}

	payload, ok, err := s.Cache.Get(symbol)
	if err == nil && ok {
		var history model.PriceSeries
		if err := json.Unmarshal(payload, &history); err == nil && len(history) > 0 {
			s.log.Info().Str("symbol", symbol).Msg("rate limited, serving cached price history")
			s.post(event{key: key, seq: seq, apply: func() bool {
				return s.Manager.SetPriceHistory(symbol, history)
			}})
			return
		}
	}

	if !allowRetry {
		s.log.Warn().Str("symbol", symbol).Msg("rate limited, no cached history, giving up this cycle")
		return
	}
	s.log.Warn().Str("symbol", symbol).Dur("delay", s.retryDelay).Msg("rate limited, no cached history, retrying once")
	timer := time.AfterFunc(s.retryDelay, func() { s.fetchHistory(symbol, false) })
	go func() {
		<-s.ctx.Done()
		timer.Stop()
	}()
}

func (s *Scheduler) fetchTick(symbol string) {
	seq := s.seqCounter.Add(1)
	bars, err := s.Provider.LatestIntraday(s.ctx, symbol)
	if err != nil || len(bars) == 0 {
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("fetch latest tick")
		}
		return
	}
	bar := bars[len(bars)-1]
	s.post(event{key: symbol + "/tick", seq: seq, apply: func() bool {
		return s.Manager.ApplyTick(symbol, bar)
	}})
}

func (s *Scheduler) fetchQuote(symbol string) {
	seq := s.seqCounter.Add(1)
	quote, err := s.Provider.Quote(s.ctx, symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("fetch quote")
		return
	}
	s.post(event{key: symbol + "/quote", seq: seq, apply: func() bool {
		return s.Manager.ApplyQuote(symbol, quote)
	}})
}

func (s *Scheduler) fetchCompany(symbol string) {
	seq := s.seqCounter.Add(1)
	company, err := s.Provider.CompanyInfo(s.ctx, symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("fetch company info")
		return
	}
	s.post(event{key: symbol + "/company", seq: seq, apply: func() bool {
		return s.Manager.ApplyCompany(symbol, company)
	}})
}

func (s *Scheduler) fetchNews(symbol string, allowFallback bool) {
	seq := s.seqCounter.Add(1)
	key := cache.NewsKey(symbol)

	articles, err := s.Provider.News(s.ctx, symbol)
	if err != nil {
		if errors.Is(err, marketdata.ErrRateLimited) && allowFallback {
			if payload, ok, cerr := s.Cache.Get(key); cerr == nil && ok {
				var cached []model.NewsArticle
				if json.Unmarshal(payload, &cached) == nil {
					articles = cached
					err = nil
				}
			}
		}
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("fetch news")
			return
		}
	} else if payload, merr := json.Marshal(articles); merr == nil {
		if cerr := s.Cache.Set(key, payload); cerr != nil {
			s.log.Warn().Err(cerr).Str("symbol", symbol).Msg("cache news")
		}
	}

	s.post(event{key: symbol + "/news", seq: seq, apply: func() bool {
		return s.Manager.ApplyNews(symbol, articles)
	}})
}
