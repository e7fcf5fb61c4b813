package impact

import (
	"errors"
	"math"
	"testing"

	"github.com/mtlprog/plotina/internal/domain"
)

const tolerance = 1e-9

func indicator(code, title string, weight float64) domain.Indicator {
	return domain.Indicator{Code: code, Title: title, Weight: domain.Float(weight), Threshold: 50}
}

func composite() domain.Indicator {
	return domain.Indicator{Code: domain.CompositeCode, Threshold: 60}
}

func TestCalculatedWeightKnownValues(t *testing.T) {
	tests := []struct {
		weight float64
		want   float64
	}{
		{0, 0},
		{50, math.Pow(2, 0.495/0.505) - 1},
		{100, math.Pow(2, 99) - 1},
	}

	for _, tt := range tests {
		got, err := CalculatedWeight(tt.weight)
		if err != nil {
			t.Fatalf("CalculatedWeight(%v): unexpected error: %v", tt.weight, err)
		}
		if math.Abs(got-tt.want) > tolerance*math.Max(1, tt.want) {
			t.Errorf("CalculatedWeight(%v) = %v, want %v", tt.weight, got, tt.want)
		}
	}
}

func TestCalculatedWeightMonotonic(t *testing.T) {
	prev, err := CalculatedWeight(0)
	if err != nil {
		t.Fatal(err)
	}
	for w := 0.5; w < 99; w += 0.5 {
		cw, err := CalculatedWeight(w)
		if err != nil {
			t.Fatalf("CalculatedWeight(%v): %v", w, err)
		}
		if cw <= prev {
			t.Fatalf("CalculatedWeight(%v) = %v not greater than previous %v", w, cw, prev)
		}
		prev = cw
	}
}

func TestCalculatedWeightRejectsSaturation(t *testing.T) {
	for _, w := range []float64{100.5, 100 / Steepness, 150, math.Inf(1)} {
		if _, err := CalculatedWeight(w); !errors.Is(err, domain.ErrWeightSaturated) {
			t.Errorf("CalculatedWeight(%v) error = %v, want ErrWeightSaturated", w, err)
		}
	}
	for _, w := range []float64{-1, math.NaN()} {
		if _, err := CalculatedWeight(w); !errors.Is(err, domain.ErrWeightOutOfRange) {
			t.Errorf("CalculatedWeight(%v) error = %v, want ErrWeightOutOfRange", w, err)
		}
	}
}

func TestCalculateEqualWeightsSplitEvenly(t *testing.T) {
	list := []domain.Indicator{
		indicator("S1", "S1 Recruitment", 50),
		indicator("CIGOV1", "CIGOV1 Governance", 50),
		composite(),
	}

	res, err := Calculate(list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, b := res.Indicators[0], res.Indicators[1]
	if *a.CalculatedWeight != *b.CalculatedWeight {
		t.Errorf("calculated weights differ: %v vs %v", *a.CalculatedWeight, *b.CalculatedWeight)
	}
	for _, ind := range res.Indicators[:2] {
		if math.Abs(*ind.ImpactPercentage-50) > tolerance {
			t.Errorf("%s impact = %v, want 50", ind.Code, *ind.ImpactPercentage)
		}
	}
	if len(res.Impacts) != 2 || res.Impacts[0].Code != "S1" || res.Impacts[1].Code != "CIGOV1" {
		t.Errorf("impacts = %+v, want S1 and CIGOV1 in list order", res.Impacts)
	}
}

func TestCalculateImpactsSumToHundred(t *testing.T) {
	list := []domain.Indicator{
		indicator("S1", "S1", 10),
		indicator("S2", "S2", 35),
		indicator("CI1", "CI1", 72),
		indicator("CI2", "CI2", 99),
		indicator("X", "Other", 80),
		composite(),
	}

	res, err := Calculate(list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := Total(res.Impacts); math.Abs(got-100) > 1e-6 {
		t.Errorf("impact total = %v, want 100", got)
	}
}

func TestCalculateZeroWeightsGiveZeroImpact(t *testing.T) {
	list := []domain.Indicator{
		indicator("S1", "S1", 0),
		indicator("CI1", "CI1", 0),
		composite(),
	}

	res, err := Calculate(list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, ind := range res.Indicators[:2] {
		if ind.ImpactPercentage == nil || *ind.ImpactPercentage != 0 {
			t.Errorf("%s impact = %v, want 0", ind.Code, ind.ImpactPercentage)
		}
		if math.IsNaN(*ind.ImpactPercentage) {
			t.Errorf("%s impact is NaN", ind.Code)
		}
	}
	if got := Total(res.Impacts); got != 0 {
		t.Errorf("impact total = %v, want 0", got)
	}
}

func TestCalculateCompositeNeverWeighted(t *testing.T) {
	comp := composite()
	comp.Weight = domain.Float(30)

	res, err := Calculate([]domain.Indicator{indicator("S1", "S1", 40), comp})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := res.Indicators[1]
	if got.Weight != nil || got.CalculatedWeight != nil || got.ImpactPercentage != nil {
		t.Errorf("COMP got weight=%v calculated=%v impact=%v, want all nil",
			got.Weight, got.CalculatedWeight, got.ImpactPercentage)
	}
	if got.Threshold != 60 {
		t.Errorf("COMP threshold = %v, want 60", got.Threshold)
	}
}

func TestCalculateEligibilityIsTitleBased(t *testing.T) {
	// Code says core, title does not: excluded from weighting.
	byCode := indicator("CIGOV9", "Governance index", 70)
	byCode.ImpactPercentage = domain.Float(12)
	// Title says specific, code does not: weighted.
	byTitle := indicator("EXTRA", "Salary gap", 70)

	res, err := Calculate([]domain.Indicator{byCode, byTitle, composite()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Indicators[0].Weight != nil || res.Indicators[0].CalculatedWeight != nil {
		t.Error("CIGOV9 with non-matching title should not be weighted")
	}
	if res.Indicators[0].ImpactPercentage == nil || *res.Indicators[0].ImpactPercentage != 12 {
		t.Error("non-eligible impact percentage should be left untouched")
	}
	if res.Indicators[1].ImpactPercentage == nil || *res.Indicators[1].ImpactPercentage != 100 {
		t.Errorf("EXTRA impact = %v, want 100", res.Indicators[1].ImpactPercentage)
	}
}

func TestCalculateIsIdempotentAndPure(t *testing.T) {
	list := []domain.Indicator{
		indicator("S1", "S1", 20),
		indicator("S2", "S2", 80),
		composite(),
	}

	first, err := Calculate(list)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Calculate(first.Indicators)
	if err != nil {
		t.Fatal(err)
	}

	for i := range first.Impacts {
		if first.Impacts[i] != second.Impacts[i] {
			t.Errorf("impact %d changed: %+v -> %+v", i, first.Impacts[i], second.Impacts[i])
		}
	}
	if list[0].CalculatedWeight != nil || list[0].ImpactPercentage != nil {
		t.Error("input list was modified")
	}
}

func TestCalculateRejectsSaturatedWeight(t *testing.T) {
	_, err := Calculate([]domain.Indicator{indicator("S1", "S1", 101), composite()})
	if !errors.Is(err, domain.ErrWeightSaturated) {
		t.Errorf("error = %v, want ErrWeightSaturated", err)
	}
}
