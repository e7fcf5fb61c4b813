package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrWeightSaturated indicates a weight at or beyond the point where the
	// calculated-weight curve stops producing finite values.
	ErrWeightSaturated = errors.New("weight saturates the calculated weight curve")

	// ErrWeightOutOfRange indicates a weight or threshold outside the 0-100 slider scale.
	ErrWeightOutOfRange = errors.New("value outside 0-100 range")

	// ErrNotLoaded indicates the indicator set has not been loaded yet.
	ErrNotLoaded = errors.New("indicators not loaded")
)

// LoadError reports a failure fetching or parsing one of the two sources.
// It is terminal for the session until a forced reload.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ShapeMismatchError reports indicators whose series lengths differ, which makes
// composite aggregation impossible.
type ShapeMismatchError struct {
	Code string
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("indicator %s has %d measure points, want %d", e.Code, e.Got, e.Want)
}
