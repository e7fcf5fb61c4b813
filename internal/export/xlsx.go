package export

import (
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/plotina/internal/dashboard"
	"github.com/mtlprog/plotina/internal/domain"
)

const (
	xlsxIndicators = "INDICATORS"
	xlsxSeries     = "SERIES"
	xlsxComposite  = "COMPOSITE"
)

// WriteXLSX writes the state as a workbook with INDICATORS, SERIES and COMPOSITE sheets.
func WriteXLSX(w io.Writer, state dashboard.State) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxIndicators); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	for _, name := range []string{xlsxSeries, xlsxComposite} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	if err := writeRows(f, xlsxIndicators, indicatorRows(state)); err != nil {
		return err
	}
	if err := writeRows(f, xlsxSeries, seriesRows(state)); err != nil {
		return err
	}
	if err := writeRows(f, xlsxComposite, buildComposite(state)); err != nil {
		return err
	}

	if err := f.SetColWidth(xlsxIndicators, "B", "B", 40); err != nil {
		return fmt.Errorf("sizing %s title column: %w", xlsxIndicators, err)
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// indicatorRows lists every indicator, COMP last.
// Columns: Code | Title | Weight | Calculated weight | Impact % | Threshold
func indicatorRows(state dashboard.State) [][]any {
	rows := [][]any{{"Code", "Title", "Weight", "Calculated weight", "Impact %", "Threshold"}}
	for _, ind := range state.Indicators {
		rows = append(rows, []any{
			ind.Code,
			ind.Title,
			ptrFloat(ind.Weight),
			ptrFloat(ind.CalculatedWeight),
			ptrFloat(ind.ImpactPercentage),
			ind.Threshold,
		})
	}
	return rows
}

// seriesRows lays the series out with one column per indicator.
// Columns: M | Date | <code>...
func seriesRows(state dashboard.State) [][]any {
	constituents := lo.Reject(state.Indicators, func(ind domain.Indicator, _ int) bool {
		return ind.IsComposite()
	})
	dates := measureDates(state.Indicators)

	header := []any{"M", "Date"}
	for _, ind := range constituents {
		header = append(header, ind.Code)
	}

	rows := [][]any{header}
	for i := range dates {
		row := []any{i + 1, dates[i]}
		for _, ind := range constituents {
			if i < len(ind.Data) {
				row = append(row, toFloat(ind.Data[i].Value))
			} else {
				row = append(row, nil)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
