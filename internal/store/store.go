// Package store holds the live indicator set of the dashboard session and the
// memoized loader that fills it.
package store

import (
	"fmt"
	"sync"

	"github.com/mtlprog/plotina/internal/domain"
	"github.com/mtlprog/plotina/internal/events"
)

// Store is the single writer of the indicator set. Readers always get copies.
type Store struct {
	bus *events.Bus

	mu         sync.RWMutex
	indicators []domain.Indicator
	index      map[string]int
}

// New creates an empty store publishing on bus.
func New(bus *events.Bus) *Store {
	if bus == nil {
		panic("store.New: bus is nil")
	}
	return &Store{bus: bus}
}

// Replace installs a freshly loaded indicator set.
func (s *Store) Replace(list []domain.Indicator) {
	index := make(map[string]int, len(list))
	for i, ind := range list {
		index[ind.Code] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.indicators = domain.CloneAll(list)
	s.index = index
}

// Loaded reports whether an indicator set has been installed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indicators != nil
}

// All returns a deep copy of the indicator set, COMP last.
func (s *Store) All() []domain.Indicator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneAll(s.indicators)
}

// Get returns a copy of one indicator.
func (s *Store) Get(code string) (domain.Indicator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[code]
	if !ok {
		return domain.Indicator{}, false
	}
	return s.indicators[i].Clone(), true
}

// SetWeight updates one raw weight in place. It returns false when the code is
// unknown. Recalculation is left to the caller via NotifyWeightChanged.
func (s *Store) SetWeight(code string, weight float64) (bool, error) {
	if !domain.InSliderRange(weight) {
		return false, fmt.Errorf("weight %v for %s: %w", weight, code, domain.ErrWeightOutOfRange)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[code]
	if !ok {
		return false, nil
	}
	s.indicators[i].Weight = domain.Float(weight)
	return true, nil
}

// SetThreshold updates one threshold in place. Thresholds do not affect impacts.
func (s *Store) SetThreshold(code string, threshold float64) (bool, error) {
	if !domain.InSliderRange(threshold) {
		return false, fmt.Errorf("threshold %v for %s: %w", threshold, code, domain.ErrWeightOutOfRange)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[code]
	if !ok {
		return false, nil
	}
	s.indicators[i].Threshold = threshold
	return true, nil
}

// NotifyWeightChanged publishes a weight-changed signal for the given codes.
func (s *Store) NotifyWeightChanged(codes ...string) {
	s.bus.WeightChanged.Publish(events.WeightChange{Codes: codes})
}

// Annotate copies calculated weights and impacts from a computed list back into
// the live set. Raw weights edited since the snapshot are kept; only indicators
// the calculator cleared lose theirs.
func (s *Store) Annotate(computed []domain.Indicator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range computed {
		i, ok := s.index[c.Code]
		if !ok {
			continue
		}
		live := &s.indicators[i]
		if c.Weight == nil {
			live.Weight = nil
		}
		cl := c.Clone()
		live.CalculatedWeight = cl.CalculatedWeight
		live.ImpactPercentage = cl.ImpactPercentage
	}
}
