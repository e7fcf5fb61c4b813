package export

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/mtlprog/plotina/internal/dashboard"
	"github.com/mtlprog/plotina/internal/domain"
)

const (
	sheetImpacts   = "IMPACTS"
	sheetComposite = "COMPOSITE"
	sheetHistory   = "HISTORY"
)

// SheetsWriter implements SheetWriter using the Google Sheets API.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Write rewrites the IMPACTS and COMPOSITE sheets, then appends one HISTORY row.
func (w *SheetsWriter) Write(ctx context.Context, state dashboard.State) error {
	if _, err := w.ensureSheets(ctx, sheetImpacts, sheetComposite); err != nil {
		return err
	}

	_, err := w.svc.Spreadsheets.Values.BatchClear(
		w.spreadsheetID,
		&sheets.BatchClearValuesRequest{
			Ranges: []string{sheetImpacts + "!A:F", sheetComposite + "!A:E"},
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing sheets: %w", err)
	}

	_, err = w.svc.Spreadsheets.Values.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data: []*sheets.ValueRange{
				{Range: sheetImpacts + "!A1", Values: buildImpacts(state)},
				{Range: sheetComposite + "!A1", Values: buildComposite(state)},
			},
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing sheets: %w", err)
	}

	return w.AppendHistory(ctx, state)
}

// buildImpacts builds the IMPACTS sheet.
// Columns: Code | Title | Weight | Calculated weight | Impact % | Threshold
func buildImpacts(state dashboard.State) [][]any {
	eligible := lo.Filter(state.Indicators, func(ind domain.Indicator, _ int) bool {
		return ind.WeightEligible()
	})

	data := make([][]any, 0, len(eligible)+1)
	data = append(data, []any{"Code", "Title", "Weight", "Calculated weight", "Impact %", "Threshold"})
	for _, ind := range eligible {
		data = append(data, []any{
			ind.Code,
			ind.Title,
			ptrFloat(ind.Weight),
			ptrFloat(ind.CalculatedWeight),
			ptrFloat(ind.ImpactPercentage),
			ind.Threshold,
		})
	}
	return data
}

// buildComposite builds the COMPOSITE sheet.
// Columns: M | Date | Value | Threshold | Below threshold
func buildComposite(state dashboard.State) [][]any {
	dates := measureDates(state.Indicators)

	data := make([][]any, 0, len(state.Composite)+1)
	data = append(data, []any{"M", "Date", "Value", "Threshold", "Below threshold"})
	for i, p := range state.Composite {
		value := compositeFloat(p.Value)
		below := 0
		if value < state.Threshold {
			below = 1
		}
		data = append(data, []any{p.M, dateAt(dates, i), value, state.Threshold, below})
	}
	return data
}

// sheetMeta is the part of a sheet's properties needed for formatting.
type sheetMeta struct {
	id         int64
	bandingIDs []int64
}

// ensureSheets creates any of the named sheets that do not already exist and
// returns their metadata.
func (w *SheetsWriter) ensureSheets(ctx context.Context, names ...string) (map[string]sheetMeta, error) {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	meta := make(map[string]sheetMeta, len(spreadsheet.Sheets))
	for _, s := range spreadsheet.Sheets {
		m := sheetMeta{id: s.Properties.SheetId}
		for _, b := range s.BandedRanges {
			m.bandingIDs = append(m.bandingIDs, b.BandedRangeId)
		}
		meta[s.Properties.Title] = m
	}

	var requests []*sheets.Request
	for _, name := range names {
		if _, ok := meta[name]; !ok {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			})
		}
	}

	if len(requests) == 0 {
		return meta, nil
	}

	resp, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests},
	).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating sheets: %w", err)
	}
	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			meta[reply.AddSheet.Properties.Title] = sheetMeta{id: reply.AddSheet.Properties.SheetId}
		}
	}

	return meta, nil
}
