package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/mtlprog/plotina/internal/dashboard"
)

var (
	colorBelow = color.New(color.FgRed, color.Bold)
	colorAbove = color.New(color.FgGreen)
)

// WriteImpactsTable renders the weight-eligible indicators and their impacts.
func WriteImpactsTable(w io.Writer, state dashboard.State) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Code", "Title", "Weight", "Calc. Weight", "Impact %", "Threshold"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, ind := range state.Indicators {
		if !ind.WeightEligible() {
			continue
		}
		data = append(data, []string{
			ind.Code,
			ind.Title,
			formatPtr(ind.Weight, 1),
			formatPtr(ind.CalculatedWeight, 4),
			formatPtr(ind.ImpactPercentage, 2),
			strconv.FormatFloat(ind.Threshold, 'f', 1, 64),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// WriteCompositeTable renders the composite series. Points below the COMP
// threshold are marked in red.
func WriteCompositeTable(w io.Writer, state dashboard.State) error {
	dates := measureDates(state.Indicators)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"M", "Date", "Composite", "Status"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i, p := range state.Composite {
		status := colorAbove.Sprint("ok")
		if compositeFloat(p.Value) < state.Threshold {
			status = colorBelow.Sprint("below")
		}
		data = append(data, []string{strconv.Itoa(p.M), dateAt(dates, i), p.Value, status})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Composite threshold: %.1f\n", state.Threshold)
	return err
}

func formatPtr(p *float64, prec int) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', prec, 64)
}
