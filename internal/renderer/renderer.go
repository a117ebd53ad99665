// Package renderer defines the boundary the computed series cross on their
// way to the user, plus a chart image implementation.
package renderer

import (
	"sync"

	"github.com/rs/zerolog"

	"PortfolioLens/internal/aggregator"
	"PortfolioLens/internal/model"
)

// Update carries one recompute result to the renderer.
type Update struct {
	Result    aggregator.Result
	Portfolio model.Portfolio
}

// Renderer consumes recompute results. Implementations must not retain the
// snapshot past the call; copy what they keep.
type Renderer interface {
	Render(update Update)
}

// Latest retains the most recent update for pull-based consumers such as
// the HTTP surface.
type Latest struct {
	mu      sync.RWMutex
	update  Update
	hasData bool
}

func NewLatest() *Latest { return &Latest{} }

func (l *Latest) Render(update Update) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.update = update
	l.hasData = true
}

// Current returns the last rendered update, false when nothing has been
// rendered yet.
func (l *Latest) Current() (Update, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.update, l.hasData
}

// Multi fans one update out to several renderers.
type Multi []Renderer

func (m Multi) Render(update Update) {
	for _, r := range m {
		r.Render(update)
	}
}

// Log writes a one-line summary of every recompute.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log.With().Str("component", "renderer").Logger()}
}

func (l *Log) Render(update Update) {
	ev := l.log.Debug().
		Int("stocks", len(update.Result.Order)).
		Bool("net", len(update.Result.Net) > 0).
		Str("mode", string(update.Result.Mode))
	if last, ok := lastPoint(update.Result.Net); ok {
		ev = ev.Float64("net_equity", last.Equity)
	}
	ev.Msg("series recomputed")
}

func lastPoint(s model.EquitySeries) (model.EquityPoint, bool) {
	if len(s) == 0 {
		return model.EquityPoint{}, false
	}
	return s[len(s)-1], true
}
