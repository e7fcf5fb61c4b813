package store

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/plotina/internal/domain"
	"github.com/mtlprog/plotina/internal/source"
)

// Future is the shared result of one load. It completes exactly once.
type Future struct {
	done       chan struct{}
	indicators []domain.Indicator
	err        error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(indicators []domain.Indicator, err error) {
	f.indicators = indicators
	f.err = err
	close(f.done)
}

// Done is closed once the load has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the load finishes or ctx is done. The returned list is a
// copy owned by the caller.
func (f *Future) Wait(ctx context.Context) ([]domain.Indicator, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
	}
	if f.err != nil {
		return nil, f.err
	}
	return domain.CloneAll(f.indicators), nil
}

func (f *Future) finished() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Loader fetches both sources and merges them into the indicator set. Results
// are memoized: callers share one Future until a forced reload replaces it.
type Loader struct {
	series   source.Fetcher
	settings source.Fetcher

	mu      sync.Mutex
	current *Future
}

// NewLoader creates a loader over the series and settings sources.
func NewLoader(series, settings source.Fetcher) *Loader {
	if series == nil {
		panic("store.NewLoader: series is nil")
	}
	if settings == nil {
		panic("store.NewLoader: settings is nil")
	}
	return &Loader{series: series, settings: settings}
}

// Load returns the memoized load. The first call starts fetching; a failed load
// stays failed until force is set. Forcing while a load is still running
// returns the running one.
func (l *Loader) Load(ctx context.Context, force bool) *Future {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != nil {
		if !force || !l.current.finished() {
			return l.current
		}
	}

	f := newFuture()
	l.current = f
	go func() {
		indicators, err := l.fetch(context.WithoutCancel(ctx))
		f.complete(indicators, err)
	}()
	return f
}

func (l *Loader) fetch(ctx context.Context) ([]domain.Indicator, error) {
	start := time.Now()

	var (
		series   source.Series
		settings source.Settings
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := l.series.Fetch(gctx)
		if err == nil {
			series, err = source.ParseSeries(body)
		}
		if err != nil {
			return &domain.LoadError{Source: l.series.Name(), Err: err}
		}
		return nil
	})
	g.Go(func() error {
		body, err := l.settings.Fetch(gctx)
		if err == nil {
			settings, err = source.ParseSettings(body)
		}
		if err != nil {
			return &domain.LoadError{Source: l.settings.Name(), Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Error("indicator load failed", "error", err)
		return nil, err
	}

	indicators := Merge(series, settings)
	slog.Info("indicators loaded",
		"count", len(indicators)-1,
		"series", l.series.Name(),
		"settings", l.settings.Name(),
		"duration", time.Since(start))
	return indicators, nil
}

// Merge joins series and settings by code. Excluded codes and codes without
// settings are dropped; values are rounded to one decimal and a missing weight
// becomes 0. COMP is appended last with its configured threshold.
func Merge(series source.Series, settings source.Settings) []domain.Indicator {
	codes := lo.Keys(series)
	slices.Sort(codes)

	indicators := make([]domain.Indicator, 0, len(codes)+1)
	for _, code := range codes {
		if domain.Excluded(code) || code == domain.CompositeCode {
			continue
		}
		cfg, ok := settings[code]
		if !ok {
			slog.Debug("dropping indicator without settings", "code", code)
			continue
		}

		entry := series[code]
		indicators = append(indicators, domain.Indicator{
			Code:        code,
			Title:       entry.Title,
			URL:         entry.URL,
			Description: entry.Description,
			Weight:      domain.Float(cfg.WeightOrZero()),
			Threshold:   cfg.ThresholdOrZero(),
			Data:        entry.Points(),
		})
	}

	indicators = append(indicators, domain.Indicator{
		Code:      domain.CompositeCode,
		Threshold: settings[domain.CompositeCode].ThresholdOrZero(),
	})
	return indicators
}
