// Package composite aggregates impact-weighted indicator series into the
// composite series.
package composite

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/plotina/internal/domain"
)

// Aggregate builds the composite series from an impact-annotated indicator list.
//
// Every non-COMP indicator contributes (value/100) * impact at each measure point,
// whatever its sign or eligibility; a nil impact contributes nothing. All
// constituents must have the same number of measure points.
func Aggregate(list []domain.Indicator) ([]domain.CompositePoint, error) {
	constituents := lo.Reject(list, func(ind domain.Indicator, _ int) bool {
		return ind.IsComposite()
	})
	if len(constituents) == 0 {
		return []domain.CompositePoint{}, nil
	}

	n, err := MeasurePoints(constituents)
	if err != nil {
		return nil, err
	}

	series := make([]domain.CompositePoint, 0, n)
	for i := 1; i <= n; i++ {
		value := lo.Reduce(constituents, func(acc decimal.Decimal, ind domain.Indicator, _ int) decimal.Decimal {
			return acc.Add(domain.Contribution(ind.Data[i-1].Value, impactOf(ind)))
		}, decimal.Zero)
		series = append(series, domain.CompositePoint{M: i, Value: domain.FormatComposite(value)})
	}

	return series, nil
}

// MeasurePoints returns the shared series length of the constituents, or a
// ShapeMismatchError naming the first indicator that differs from the first one.
func MeasurePoints(constituents []domain.Indicator) (int, error) {
	if len(constituents) == 0 {
		return 0, nil
	}
	want := len(constituents[0].Data)
	for _, ind := range constituents[1:] {
		if len(ind.Data) != want {
			return 0, &domain.ShapeMismatchError{Code: ind.Code, Want: want, Got: len(ind.Data)}
		}
	}
	return want, nil
}

// BelowThreshold returns the measure points whose composite value is under the
// given threshold (0-100 scale).
func BelowThreshold(series []domain.CompositePoint, threshold float64) []domain.CompositePoint {
	limit := decimal.NewFromFloat(threshold)
	return lo.Filter(series, func(p domain.CompositePoint, _ int) bool {
		v, err := decimal.NewFromString(p.Value)
		return err == nil && v.LessThan(limit)
	})
}

func impactOf(ind domain.Indicator) float64 {
	if ind.ImpactPercentage == nil {
		return 0
	}
	return *ind.ImpactPercentage
}
