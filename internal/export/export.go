// Package export renders the dashboard state into downloadable and synced
// formats: the settings document, XLSX workbooks, Parquet files, Google Sheets
// and terminal tables.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/plotina/internal/dashboard"
	"github.com/mtlprog/plotina/internal/domain"
)

// StateSource provides the current dashboard state.
type StateSource interface {
	State() (dashboard.State, error)
}

// SheetWriter writes the dashboard state to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, state dashboard.State) error
}

// Service reads the current state and delegates writing to a SheetWriter.
type Service struct {
	source StateSource
	writer SheetWriter
}

// NewService creates a new export Service.
func NewService(source StateSource, writer SheetWriter) *Service {
	return &Service{source: source, writer: writer}
}

// Export writes the current state. It fails when the session has no valid state.
func (s *Service) Export(ctx context.Context) error {
	state, err := s.source.State()
	if err != nil {
		return fmt.Errorf("reading dashboard state: %w", err)
	}
	if err := s.writer.Write(ctx, state); err != nil {
		return fmt.Errorf("writing sheets: %w", err)
	}
	slog.Info("export: state written", "indicators", len(state.Indicators), "points", len(state.Composite))
	return nil
}

// Settings returns the weight/threshold document for every indicator, COMP
// included. Weights are null where the indicator takes no part in weighting.
func Settings(list []domain.Indicator) map[string]domain.SettingsEntry {
	out := make(map[string]domain.SettingsEntry, len(list))
	for _, ind := range list {
		entry := domain.SettingsEntry{Threshold: ind.Threshold}
		if ind.Weight != nil && !ind.IsComposite() {
			w := *ind.Weight
			entry.Weight = &w
		}
		out[ind.Code] = entry
	}
	return out
}

// WriteSettings writes the settings document as compact JSON. The output is a
// valid settings source.
func WriteSettings(w io.Writer, list []domain.Indicator) error {
	if err := json.NewEncoder(w).Encode(Settings(list)); err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return nil
}

// measureDates returns the date of every measure point, taken from the first
// indicator carrying a series.
func measureDates(list []domain.Indicator) []string {
	for _, ind := range list {
		if ind.IsComposite() || len(ind.Data) == 0 {
			continue
		}
		dates := make([]string, len(ind.Data))
		for i, p := range ind.Data {
			dates[i] = p.Date
		}
		return dates
	}
	return nil
}

func dateAt(dates []string, i int) string {
	if i < 0 || i >= len(dates) {
		return ""
	}
	return dates[i]
}

// compositeFloat parses a formatted composite value.
func compositeFloat(v string) float64 {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func ptrFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func impactByCode(impacts []domain.Impact) map[string]float64 {
	out := make(map[string]float64, len(impacts))
	for _, imp := range impacts {
		out[imp.Code] = imp.Impact
	}
	return out
}
