// Package seriesbuild turns per-response indicator results into a series source
// for the dashboard.
package seriesbuild

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/samber/lo"

	"github.com/mtlprog/plotina/internal/source"
)

// Input is the results document: survey responses with their dates and the
// indicator values computed for each response.
type Input struct {
	Responses map[string]Response         `json:"responses"`
	Results   map[string]map[string]Value `json:"results"`
}

// Response carries the submission timestamp of one response.
type Response struct {
	Date string `json:"Date"`
}

// Value is one computed indicator value; nil when it could not be computed.
type Value struct {
	Value *float64 `json:"value"`
}

// Description is the human-readable metadata of one indicator.
type Description struct {
	Title   *string `json:"title"`
	Desc    *string `json:"desc"`
	DocPage *int    `json:"doc_page"`
}

// Build collects one series per indicator that has a value in every response.
// Points are ordered by response date and numbered from 1. Indicators without a
// description get placeholder texts; the URL points at docBase#page=N when a
// documentation page is known.
func Build(in Input, descriptions map[string]Description, docBase string) (source.Series, error) {
	if len(in.Results) == 0 {
		return nil, fmt.Errorf("no responses in results")
	}

	responseIDs := lo.Keys(in.Results)
	slices.Sort(responseIDs)

	dates := make(map[string]string, len(responseIDs))
	for _, id := range responseIDs {
		resp, ok := in.Responses[id]
		if !ok || resp.Date == "" {
			return nil, fmt.Errorf("response %s has no date", id)
		}
		dates[id] = truncateDate(resp.Date)
	}

	series := make(source.Series)
	for _, code := range commonIndicators(in.Results, responseIDs) {
		points := make([]source.RawPoint, 0, len(responseIDs))
		for _, id := range responseIDs {
			points = append(points, source.RawPoint{
				Date:  dates[id],
				Value: in.Results[id][code].Value,
			})
		}
		slices.SortStableFunc(points, func(a, b source.RawPoint) int {
			switch {
			case a.Date < b.Date:
				return -1
			case a.Date > b.Date:
				return 1
			}
			return 0
		})
		for i := range points {
			points[i].M = i + 1
		}

		series[code] = describe(code, descriptions[code], docBase, points)
	}

	slog.Info("series built", "responses", len(responseIDs), "indicators", len(series))
	return series, nil
}

// commonIndicators returns the codes with a non-nil value in every response, sorted.
func commonIndicators(results map[string]map[string]Value, responseIDs []string) []string {
	var common []string
	for i, id := range responseIDs {
		valid := lo.PickBy(results[id], func(_ string, v Value) bool { return v.Value != nil })
		codes := lo.Keys(valid)
		if i == 0 {
			common = codes
			continue
		}
		common = lo.Intersect(common, codes)
	}
	slices.Sort(common)
	return common
}

func describe(code string, d Description, docBase string, points []source.RawPoint) source.SeriesEntry {
	entry := source.SeriesEntry{
		Title:       fmt.Sprintf("Missing title for indicator %s", code),
		Description: fmt.Sprintf("Missing description for indicator %s", code),
		Data:        points,
	}
	if d.Title != nil {
		entry.Title = *d.Title
	}
	if d.Desc != nil {
		entry.Description = *d.Desc
	}
	if d.DocPage != nil && *d.DocPage != 0 && docBase != "" {
		url := docBase + "#page=" + strconv.Itoa(*d.DocPage)
		entry.URL = &url
	}
	return entry
}

func truncateDate(date string) string {
	if len(date) > 10 {
		return date[:10]
	}
	return date
}

// ReadInput decodes a results document.
func ReadInput(r io.Reader) (Input, error) {
	var in Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return Input{}, fmt.Errorf("parsing results JSON: %w", err)
	}
	return in, nil
}

// ReadDescriptions decodes an indicator descriptions document.
func ReadDescriptions(r io.Reader) (map[string]Description, error) {
	var d map[string]Description
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("parsing descriptions JSON: %w", err)
	}
	return d, nil
}

// Write encodes the series as indented JSON with sorted keys.
func Write(w io.Writer, series source.Series) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(series); err != nil {
		return fmt.Errorf("encoding series: %w", err)
	}
	return nil
}
