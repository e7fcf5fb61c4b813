package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundValue(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  string
	}{
		{"integer", 50, "50"},
		{"already one decimal", 12.3, "12.3"},
		{"rounds down", 12.34, "12.3"},
		{"rounds half up", 12.35, "12.4"},
		{"negative", -3.26, "-3.3"},
		{"zero", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundValue(tt.input)
			want, _ := decimal.NewFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("RoundValue(%v) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestFormatComposite(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0", "0.00"},
		{"61.25", "61.25"},
		{"33.333333", "33.33"},
		{"66.666666", "66.67"},
		{"-1.5", "-1.50"},
	}

	for _, tt := range tests {
		d, _ := decimal.NewFromString(tt.input)
		if got := FormatComposite(d); got != tt.want {
			t.Errorf("FormatComposite(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestContribution(t *testing.T) {
	value := decimal.NewFromInt(80)

	got := Contribution(value, 25)
	if !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Contribution(80, 25) = %s, want 20", got)
	}

	if got := Contribution(value, 0); !got.IsZero() {
		t.Errorf("Contribution(80, 0) = %s, want 0", got)
	}

	if got := Contribution(value, math.NaN()); !got.IsZero() {
		t.Errorf("Contribution with NaN impact = %s, want 0", got)
	}
}

func TestInSliderRange(t *testing.T) {
	tests := []struct {
		v    float64
		want bool
	}{
		{0, true},
		{50, true},
		{100, true},
		{-0.1, false},
		{100.5, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}

	for _, tt := range tests {
		if got := InSliderRange(tt.v); got != tt.want {
			t.Errorf("InSliderRange(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
