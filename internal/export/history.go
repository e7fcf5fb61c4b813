package export

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/mtlprog/plotina/internal/dashboard"
	"github.com/mtlprog/plotina/internal/domain"
)

// buildHistoryRows builds the header row and one data row for the HISTORY sheet.
// Columns: Timestamp | latest composite value | one impact column per eligible indicator.
func buildHistoryRows(state dashboard.State, at time.Time) (header []any, row []any) {
	codes := lo.FilterMap(state.Indicators, func(ind domain.Indicator, _ int) (string, bool) {
		return ind.Code, ind.WeightEligible()
	})
	impacts := impactByCode(state.Impacts)

	header = make([]any, 0, 2+len(codes))
	header = append(header, "Timestamp", "Composite")
	row = make([]any, 0, 2+len(codes))
	row = append(row, at.UTC().Format("2006-01-02 15:04:05"))

	if n := len(state.Composite); n > 0 {
		row = append(row, compositeFloat(state.Composite[n-1].Value))
	} else {
		row = append(row, nil)
	}

	for _, code := range codes {
		header = append(header, code)
		row = append(row, impacts[code])
	}
	return header, row
}

// AppendHistory ensures the HISTORY sheet exists, rewrites its header row and
// appends one row for the current state.
func (w *SheetsWriter) AppendHistory(ctx context.Context, state dashboard.State) error {
	meta, err := w.ensureSheets(ctx, sheetHistory)
	if err != nil {
		return fmt.Errorf("ensuring %s sheet: %w", sheetHistory, err)
	}

	header, row := buildHistoryRows(state, time.Now())

	_, err = w.svc.Spreadsheets.Values.Update(
		w.spreadsheetID,
		sheetHistory+"!A1",
		&sheets.ValueRange{Values: [][]any{header}},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing %s header: %w", sheetHistory, err)
	}

	_, err = w.svc.Spreadsheets.Values.Append(
		w.spreadsheetID,
		sheetHistory+"!A:A",
		&sheets.ValueRange{Values: [][]any{row}},
	).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending %s row: %w", sheetHistory, err)
	}

	if err := w.formatHistory(ctx, meta[sheetHistory], int64(len(header))); err != nil {
		return fmt.Errorf("formatting %s sheet: %w", sheetHistory, err)
	}
	return nil
}

// formatHistory gives the header a light-green bold band, freezes it and
// formats impact columns as percentages with two decimals.
func (w *SheetsWriter) formatHistory(ctx context.Context, hist sheetMeta, totalCols int64) error {
	lightGreen := &sheets.Color{Red: 0.851, Green: 0.918, Blue: 0.827}

	reqs := []*sheets.Request{
		cellFormatReq(hist.id, 0, 1, 0, totalCols,
			&sheets.CellFormat{
				BackgroundColor:     lightGreen,
				TextFormat:          &sheets.TextFormat{Bold: true},
				HorizontalAlignment: "CENTER",
			},
			"userEnteredFormat(backgroundColor,textFormat,horizontalAlignment)"),
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        hist.id,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1, FrozenColumnCount: 1},
				},
				Fields: "gridProperties.frozenRowCount,gridProperties.frozenColumnCount",
			},
		},
		cellFormatReq(hist.id, 1, 100000, 1, totalCols,
			&sheets.CellFormat{NumberFormat: &sheets.NumberFormat{Type: "NUMBER", Pattern: "0.00"}},
			"userEnteredFormat.numberFormat"),
	}

	for _, bid := range hist.bandingIDs {
		reqs = append(reqs, &sheets.Request{
			DeleteBanding: &sheets.DeleteBandingRequest{BandedRangeId: bid},
		})
	}

	_, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: reqs},
	).Context(ctx).Do()
	return err
}

func cellFormatReq(sheetID, startRow, endRow, startCol, endCol int64, format *sheets.CellFormat, fields string) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    startRow,
				EndRowIndex:      endRow,
				StartColumnIndex: startCol,
				EndColumnIndex:   endCol,
			},
			Cell:   &sheets.CellData{UserEnteredFormat: format},
			Fields: fields,
		},
	}
}
