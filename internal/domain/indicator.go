package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CompositeCode is the code of the synthetic composite indicator. It carries a
// threshold but no series of its own.
const CompositeCode = "COMP"

// excludedMarker marks series entries that must never become indicators.
const excludedMarker = "non_normalized"

var (
	// specificTitle and coreTitle decide weight eligibility. They are matched
	// against the indicator title, not its code.
	specificTitle = regexp.MustCompile(`^S.*$`)
	coreTitle     = regexp.MustCompile(`^CI.*$`)

	// specificCode and coreCode classify indicators for the per-panel lists.
	specificCode = regexp.MustCompile(`^S.*$`)
	coreCode     = regexp.MustCompile(`^CI.*$`)
)

// DataPoint is one measurement of an indicator at measure point M.
type DataPoint struct {
	Date  string          `json:"date"`
	M     int             `json:"m"`
	Value decimal.Decimal `json:"value"`
}

// Indicator is a weighted, thresholded time series contributing to the composite.
// Weight, CalculatedWeight and ImpactPercentage are nil when not applicable.
type Indicator struct {
	Code             string      `json:"code"`
	Title            string      `json:"title,omitempty"`
	URL              *string     `json:"url,omitempty"`
	Description      string      `json:"description,omitempty"`
	Weight           *float64    `json:"weight"`
	CalculatedWeight *float64    `json:"calculated_weight"`
	ImpactPercentage *float64    `json:"impact_percentage"`
	Threshold        float64     `json:"threshold"`
	Data             []DataPoint `json:"data,omitempty"`
}

// IsComposite reports whether the indicator is the synthetic COMP entry.
func (i Indicator) IsComposite() bool {
	return i.Code == CompositeCode
}

// WeightEligible reports whether the indicator takes part in impact weighting.
// Eligibility is decided on the title; Core and Specific classify by code.
func (i Indicator) WeightEligible() bool {
	return specificTitle.MatchString(i.Title) || coreTitle.MatchString(i.Title)
}

// Core reports whether the indicator code marks a core indicator (CI…).
func (i Indicator) Core() bool {
	return coreCode.MatchString(i.Code)
}

// Specific reports whether the indicator code marks a specific indicator (S…).
func (i Indicator) Specific() bool {
	return specificCode.MatchString(i.Code)
}

// Clone returns a deep copy so callers can mutate it without touching shared state.
func (i Indicator) Clone() Indicator {
	c := i
	c.URL = cloneString(i.URL)
	c.Weight = cloneFloat(i.Weight)
	c.CalculatedWeight = cloneFloat(i.CalculatedWeight)
	c.ImpactPercentage = cloneFloat(i.ImpactPercentage)
	if i.Data != nil {
		c.Data = make([]DataPoint, len(i.Data))
		copy(c.Data, i.Data)
	}
	return c
}

// CloneAll deep-copies an indicator list.
func CloneAll(list []Indicator) []Indicator {
	if list == nil {
		return nil
	}
	out := make([]Indicator, len(list))
	for idx, ind := range list {
		out[idx] = ind.Clone()
	}
	return out
}

// Excluded reports whether a series key is filtered out of the indicator set.
func Excluded(code string) bool {
	return strings.Contains(code, excludedMarker)
}

// Impact is the normalized share of one eligible indicator in the composite.
type Impact struct {
	Code   string  `json:"code"`
	Impact float64 `json:"impact"`
}

// CompositePoint is one measure point of the composite series.
type CompositePoint struct {
	M     int    `json:"m"`
	Value string `json:"value"`
}

// SettingsEntry is the exported weight/threshold pair of one indicator.
type SettingsEntry struct {
	Weight    *float64 `json:"weight"`
	Threshold float64  `json:"threshold"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
