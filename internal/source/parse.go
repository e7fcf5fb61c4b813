package source

import (
	"encoding/json"
	"fmt"

	"github.com/mtlprog/plotina/internal/domain"
	"github.com/mtlprog/plotina/internal/impact"
)

// SeriesEntry is one indicator in the series source.
type SeriesEntry struct {
	Title       string     `json:"title"`
	URL         *string    `json:"url"`
	Description string     `json:"description"`
	Data        []RawPoint `json:"data"`
}

// RawPoint is a series measurement before rounding.
type RawPoint struct {
	Date  string   `json:"date"`
	M     int      `json:"m"`
	Value *float64 `json:"value"`
}

// SettingsEntry is one indicator in the settings source. COMP carries only a threshold.
type SettingsEntry struct {
	Weight    *float64 `json:"weight"`
	Threshold *float64 `json:"threshold"`
}

// Series maps indicator codes to their series entries.
type Series map[string]SeriesEntry

// Settings maps indicator codes to their weight and threshold.
type Settings map[string]SettingsEntry

// ParseSeries decodes and validates a series source. Every entry needs a data
// array whose points all carry a numeric value.
func ParseSeries(body []byte) (Series, error) {
	var raw map[string]*SeriesEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing series JSON: %w", err)
	}

	series := make(Series, len(raw))
	for code, entry := range raw {
		if entry == nil {
			return nil, fmt.Errorf("indicator %s: empty entry", code)
		}
		if entry.Data == nil {
			return nil, fmt.Errorf("indicator %s: missing data", code)
		}
		for i, p := range entry.Data {
			if p.Value == nil {
				return nil, fmt.Errorf("indicator %s: data point %d has no value", code, i)
			}
		}
		series[code] = *entry
	}
	return series, nil
}

// ParseSettings decodes and validates a settings source. Every entry needs a
// threshold on the 0-100 scale and a weight the calculated-weight curve accepts;
// a COMP entry is required.
func ParseSettings(body []byte) (Settings, error) {
	var raw map[string]*SettingsEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing settings JSON: %w", err)
	}

	settings := make(Settings, len(raw))
	for code, entry := range raw {
		if entry == nil {
			return nil, fmt.Errorf("settings %s: empty entry", code)
		}
		if entry.Threshold == nil {
			return nil, fmt.Errorf("settings %s: missing threshold", code)
		}
		if !domain.InSliderRange(*entry.Threshold) {
			return nil, fmt.Errorf("settings %s: threshold %v: %w", code, *entry.Threshold, domain.ErrWeightOutOfRange)
		}
		if entry.Weight != nil {
			if _, err := impact.CalculatedWeight(*entry.Weight); err != nil {
				return nil, fmt.Errorf("settings %s: %w", code, err)
			}
		}
		settings[code] = *entry
	}

	if _, ok := settings[domain.CompositeCode]; !ok {
		return nil, fmt.Errorf("settings have no %s entry", domain.CompositeCode)
	}
	return settings, nil
}

// Points rounds raw measurements to the dashboard's one-decimal values.
func (e SeriesEntry) Points() []domain.DataPoint {
	points := make([]domain.DataPoint, len(e.Data))
	for i, p := range e.Data {
		points[i] = domain.DataPoint{Date: p.Date, M: p.M, Value: domain.RoundValue(*p.Value)}
	}
	return points
}

// WeightOrZero returns the configured weight, 0 when absent or null.
func (e SettingsEntry) WeightOrZero() float64 {
	if e.Weight == nil {
		return 0
	}
	return *e.Weight
}

// ThresholdOrZero returns the configured threshold, 0 when absent or null.
func (e SettingsEntry) ThresholdOrZero() float64 {
	if e.Threshold == nil {
		return 0
	}
	return *e.Threshold
}
