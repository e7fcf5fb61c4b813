// Package impact derives calculated weights and impact percentages from the raw
// slider weights of the indicator set.
package impact

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/samber/lo"

	"github.com/mtlprog/plotina/internal/domain"
)

const (
	// Steepness is k in 2^((k*w)/(1-k*w)) - 1. The curve diverges at w = 1/k.
	Steepness = 0.99

	// MaxWeight is the largest accepted raw weight. At 100 the curve still yields
	// 2^99 - 1; beyond it the result grows without bound towards 100/k.
	MaxWeight = 100.0
)

// Result is the annotated copy of an indicator list plus the impact distribution
// of its eligible indicators, in list order.
type Result struct {
	Indicators []domain.Indicator
	Impacts    []domain.Impact
}

// CalculatedWeight reshapes a raw 0-100 weight with the exponential emphasis curve.
func CalculatedWeight(weight float64) (float64, error) {
	if math.IsNaN(weight) || weight < 0 {
		return 0, fmt.Errorf("weight %v: %w", weight, domain.ErrWeightOutOfRange)
	}
	if weight > MaxWeight {
		return 0, fmt.Errorf("weight %v above %v: %w", weight, MaxWeight, domain.ErrWeightSaturated)
	}

	kw := Steepness * (weight / 100)
	cw := math.Pow(2, kw/(1-kw)) - 1
	if math.IsInf(cw, 0) || math.IsNaN(cw) {
		return 0, fmt.Errorf("weight %v: %w", weight, domain.ErrWeightSaturated)
	}
	return cw, nil
}

// Calculate computes calculated_weight and impact_percentage for every
// weight-eligible indicator. The input is not modified.
//
// Non-eligible indicators (COMP included) get a nil weight and calculated weight;
// their impact percentage is left as it was. When all calculated weights sum to
// zero every eligible indicator gets an impact of 0.
func Calculate(list []domain.Indicator) (Result, error) {
	out := domain.CloneAll(list)
	var eligible []int

	for idx := range out {
		ind := &out[idx]
		if !ind.WeightEligible() {
			ind.Weight = nil
			ind.CalculatedWeight = nil
			continue
		}

		var w float64
		if ind.Weight != nil {
			w = *ind.Weight
		}
		cw, err := CalculatedWeight(w)
		if err != nil {
			return Result{}, fmt.Errorf("indicator %s: %w", ind.Code, err)
		}
		ind.CalculatedWeight = domain.Float(cw)
		eligible = append(eligible, idx)
	}

	sum := lo.SumBy(eligible, func(idx int) float64 {
		return *out[idx].CalculatedWeight
	})
	if sum == 0 && len(eligible) > 0 {
		slog.Debug("calculated weights sum to zero, impacts set to 0", "eligible", len(eligible))
	}

	impacts := make([]domain.Impact, 0, len(eligible))
	for _, idx := range eligible {
		ind := &out[idx]
		var pct float64
		if sum > 0 {
			pct = *ind.CalculatedWeight / sum * 100
		}
		ind.ImpactPercentage = domain.Float(pct)
		impacts = append(impacts, domain.Impact{Code: ind.Code, Impact: pct})
	}

	return Result{Indicators: out, Impacts: impacts}, nil
}

// Total returns the sum of impact percentages, 100 whenever any weight is non-zero.
func Total(impacts []domain.Impact) float64 {
	return lo.SumBy(impacts, func(i domain.Impact) float64 { return i.Impact })
}
