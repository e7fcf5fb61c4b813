// Package dashboard runs the single dashboard session: it loads the indicator
// set, recomputes impacts and the composite on every weight change and keeps
// the latest result for readers.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/plotina/internal/composite"
	"github.com/mtlprog/plotina/internal/domain"
	"github.com/mtlprog/plotina/internal/events"
	"github.com/mtlprog/plotina/internal/impact"
	"github.com/mtlprog/plotina/internal/store"
)

var (
	// ErrUnknownIndicator indicates a code that is not in the loaded set.
	ErrUnknownIndicator = errors.New("unknown indicator")

	// ErrIndexOutOfRange indicates a selected index outside the composite series.
	ErrIndexOutOfRange = errors.New("selected index out of range")
)

// Loader provides the memoized indicator load.
type Loader interface {
	Load(ctx context.Context, force bool) *store.Future
}

// State is the last computed snapshot of the session.
type State struct {
	Indicators []domain.Indicator      `json:"indicators"`
	Composite  []domain.CompositePoint `json:"composite"`
	Impacts    []domain.Impact         `json:"impacts"`
	Threshold  float64                 `json:"composite_threshold"`
	ComputedAt time.Time               `json:"computed_at"`
}

// Service is the dashboard session.
type Service struct {
	loader Loader
	store  *store.Store
	bus    *events.Bus

	recomputeMu sync.Mutex

	mu          sync.RWMutex
	composite   []domain.CompositePoint
	impacts     []domain.Impact
	computedAt  time.Time
	loadErr     error
	calcErr     error
	selected    *int
	shown       bool
	unsubscribe func()
}

// NewService creates a session over loader and st. All dependencies are required.
func NewService(loader Loader, st *store.Store, bus *events.Bus) *Service {
	if loader == nil {
		panic("dashboard.NewService: loader is nil")
	}
	if st == nil {
		panic("dashboard.NewService: store is nil")
	}
	if bus == nil {
		panic("dashboard.NewService: bus is nil")
	}
	return &Service{loader: loader, store: st, bus: bus}
}

// Start waits for the initial load, computes the first state and recomputes on
// every weight-changed signal from then on.
func (s *Service) Start(ctx context.Context) error {
	if err := s.install(ctx, false); err != nil {
		return err
	}

	s.mu.Lock()
	if s.unsubscribe == nil {
		s.unsubscribe = s.bus.WeightChanged.Subscribe(func(c events.WeightChange) {
			if err := s.Recompute(); err != nil {
				slog.Error("recompute after weight change failed", "codes", c.Codes, "error", err)
			}
		})
	}
	s.mu.Unlock()

	return s.Recompute()
}

// Stop detaches the session from the bus.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Reload forces a fresh load of both sources and recomputes. A load already in
// flight is joined instead of restarted.
func (s *Service) Reload(ctx context.Context) error {
	if err := s.install(ctx, true); err != nil {
		return err
	}
	return s.Recompute()
}

func (s *Service) install(ctx context.Context, force bool) error {
	list, err := s.loader.Load(ctx, force).Wait(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// A caller giving up on the wait leaves the load itself untouched.
		if ctx.Err() == nil {
			s.loadErr = err
		}
		return fmt.Errorf("loading indicators: %w", err)
	}
	s.store.Replace(list)
	s.loadErr = nil
	return nil
}

// Recompute derives impacts and the composite from a fresh snapshot of the
// store and publishes the impacts. Calls are serialized. Nothing is computed
// while the last load has failed.
func (s *Service) Recompute() error {
	s.recomputeMu.Lock()
	defer s.recomputeMu.Unlock()

	if err := s.loaded(); err != nil {
		return err
	}

	res, err := impact.Calculate(s.store.All())
	if err != nil {
		s.setErr(err)
		return fmt.Errorf("calculating impacts: %w", err)
	}
	series, err := composite.Aggregate(res.Indicators)
	if err != nil {
		s.setErr(err)
		return fmt.Errorf("aggregating composite: %w", err)
	}

	s.store.Annotate(res.Indicators)

	s.mu.Lock()
	s.composite = series
	s.impacts = res.Impacts
	s.computedAt = time.Now().UTC()
	s.calcErr = nil
	if s.selected != nil && *s.selected >= len(series) {
		s.selected = nil
	}
	s.mu.Unlock()

	slog.Debug("dashboard recomputed", "indicators", len(res.Indicators), "points", len(series))
	s.bus.Impacts.Publish(slices.Clone(res.Impacts))
	return nil
}

func (s *Service) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calcErr = err
}

// Err returns the load error when the last load failed, otherwise the error of
// the last recompute. A load error is only cleared by a successful load.
func (s *Service) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadErr != nil {
		return s.loadErr
	}
	return s.calcErr
}

// loaded reports the load failure or ErrNotLoaded when no usable set is installed.
func (s *Service) loaded() error {
	s.mu.RLock()
	err := s.loadErr
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	if !s.store.Loaded() {
		return domain.ErrNotLoaded
	}
	return nil
}

// State returns the latest computed snapshot with the live indicator list.
func (s *Service) State() (State, error) {
	if err := s.ready(); err != nil {
		return State{}, err
	}
	indicators := s.store.All()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Indicators: indicators,
		Composite:  slices.Clone(s.composite),
		Impacts:    slices.Clone(s.impacts),
		Threshold:  compositeThreshold(indicators),
		ComputedAt: s.computedAt,
	}, nil
}

func (s *Service) ready() error {
	if err := s.Err(); err != nil {
		return err
	}
	if !s.store.Loaded() {
		return domain.ErrNotLoaded
	}
	return nil
}

// Indicators returns every indicator, COMP last.
func (s *Service) Indicators() ([]domain.Indicator, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.All(), nil
}

// Indicator returns one indicator by code.
func (s *Service) Indicator(code string) (domain.Indicator, error) {
	if err := s.ready(); err != nil {
		return domain.Indicator{}, err
	}
	ind, ok := s.store.Get(code)
	if !ok {
		return domain.Indicator{}, fmt.Errorf("%s: %w", code, ErrUnknownIndicator)
	}
	return ind, nil
}

// Core returns the indicators whose code marks them as core (CI…).
func (s *Service) Core() ([]domain.Indicator, error) {
	all, err := s.Indicators()
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(ind domain.Indicator, _ int) bool { return ind.Core() }), nil
}

// Specific returns the indicators whose code marks them as specific (S…).
func (s *Service) Specific() ([]domain.Indicator, error) {
	all, err := s.Indicators()
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(ind domain.Indicator, _ int) bool { return ind.Specific() }), nil
}

// Composite returns the latest composite series.
func (s *Service) Composite() ([]domain.CompositePoint, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.composite), nil
}

// Impacts returns the latest impact distribution.
func (s *Service) Impacts() ([]domain.Impact, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.impacts), nil
}

// Threshold returns the threshold of one indicator.
func (s *Service) Threshold(code string) (float64, error) {
	ind, err := s.Indicator(code)
	if err != nil {
		return 0, err
	}
	return ind.Threshold, nil
}

// SetWeight changes one weight and triggers a recompute.
func (s *Service) SetWeight(code string, weight float64) error {
	return s.SetWeights(map[string]float64{code: weight})
}

// SetWeights changes several weights and triggers a single recompute. Nothing
// is applied when any code is unknown or any weight is out of range.
func (s *Service) SetWeights(weights map[string]float64) error {
	if err := s.loaded(); err != nil {
		return err
	}

	codes := lo.Keys(weights)
	slices.Sort(codes)
	for _, code := range codes {
		if _, ok := s.store.Get(code); !ok {
			return fmt.Errorf("%s: %w", code, ErrUnknownIndicator)
		}
		if _, err := impact.CalculatedWeight(weights[code]); err != nil {
			return fmt.Errorf("indicator %s: %w", code, err)
		}
	}

	for _, code := range codes {
		if _, err := s.store.SetWeight(code, weights[code]); err != nil {
			return err
		}
	}
	if len(codes) > 0 {
		s.store.NotifyWeightChanged(codes...)
	}
	return s.Err()
}

// SetThreshold changes one threshold. Impacts and the composite are unaffected.
func (s *Service) SetThreshold(code string, threshold float64) error {
	if err := s.loaded(); err != nil {
		return err
	}
	ok, err := s.store.SetThreshold(code, threshold)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", code, ErrUnknownIndicator)
	}
	return nil
}

// SelectIndex sets or clears (nil) the measure point highlighted across charts.
func (s *Service) SelectIndex(idx *int) error {
	s.mu.Lock()
	if idx != nil && (*idx < 0 || *idx >= len(s.composite)) {
		n := len(s.composite)
		s.mu.Unlock()
		return fmt.Errorf("index %d of %d points: %w", *idx, n, ErrIndexOutOfRange)
	}
	if idx != nil {
		v := *idx
		idx = &v
	}
	s.selected = idx
	s.mu.Unlock()

	s.bus.SelectedIndex.Publish(idx)
	return nil
}

// ShowIndex toggles whether the selected measure point is highlighted.
func (s *Service) ShowIndex(show bool) {
	s.mu.Lock()
	s.shown = show
	s.mu.Unlock()

	s.bus.IndexShown.Publish(show)
}

// Selection returns the selected index and whether it is shown.
func (s *Service) Selection() (*int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil, s.shown
	}
	v := *s.selected
	return &v, s.shown
}

func compositeThreshold(list []domain.Indicator) float64 {
	comp, ok := lo.Find(list, func(ind domain.Indicator) bool { return ind.IsComposite() })
	if !ok {
		return 0
	}
	return comp.Threshold
}
