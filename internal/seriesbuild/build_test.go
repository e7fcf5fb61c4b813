package seriesbuild

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mtlprog/plotina/internal/source"
)

const resultsJSON = `{
  "responses": {
    "r1": {"Date": "2018-06-10 12:00:00"},
    "r2": {"Date": "2018-01-10 08:30:00"},
    "r3": {"Date": "2018-03-01"}
  },
  "results": {
    "r1": {"S1": {"value": 40}, "CI2": {"value": 60}, "S3": {"value": null}},
    "r2": {"S1": {"value": 80}, "CI2": {"value": 20}, "S3": {"value": 5}},
    "r3": {"S1": {"value": 50}, "CI2": {"value": 30}}
  }
}`

const descriptionsJSON = `{
  "S1": {"title": "S1 Recruitment", "desc": "Share of recruited members", "doc_page": 4},
  "CI2": {"title": "CI2 Cohesion", "doc_page": 0}
}`

func build(t *testing.T, docBase string) source.Series {
	t.Helper()
	in, err := ReadInput(strings.NewReader(resultsJSON))
	if err != nil {
		t.Fatal(err)
	}
	desc, err := ReadDescriptions(strings.NewReader(descriptionsJSON))
	if err != nil {
		t.Fatal(err)
	}
	series, err := Build(in, desc, docBase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return series
}

func TestBuildKeepsIndicatorsValidEverywhere(t *testing.T) {
	series := build(t, "assets/data/indicators.pdf")

	if len(series) != 2 {
		t.Fatalf("indicators = %v, want S1 and CI2", series)
	}
	if _, ok := series["S3"]; ok {
		t.Error("S3 has a null value and is missing in one response")
	}
}

func TestBuildOrdersByDate(t *testing.T) {
	s1 := build(t, "")["S1"]

	wantDates := []string{"2018-01-10", "2018-03-01", "2018-06-10"}
	wantValues := []float64{80, 50, 40}
	for i, p := range s1.Data {
		if p.M != i+1 {
			t.Errorf("point %d m = %d", i, p.M)
		}
		if p.Date != wantDates[i] || *p.Value != wantValues[i] {
			t.Errorf("point %d = %s/%v, want %s/%v", i, p.Date, *p.Value, wantDates[i], wantValues[i])
		}
	}
}

func TestBuildDescriptions(t *testing.T) {
	series := build(t, "assets/data/indicators.pdf")

	s1 := series["S1"]
	if s1.Title != "S1 Recruitment" || s1.Description != "Share of recruited members" {
		t.Errorf("S1 = %q / %q", s1.Title, s1.Description)
	}
	if s1.URL == nil || *s1.URL != "assets/data/indicators.pdf#page=4" {
		t.Errorf("S1 url = %v", s1.URL)
	}

	ci2 := series["CI2"]
	if ci2.Description != "Missing description for indicator CI2" {
		t.Errorf("CI2 description = %q", ci2.Description)
	}
	if ci2.URL != nil {
		t.Errorf("CI2 url = %q, want nil for page 0", *ci2.URL)
	}
}

func TestBuildMissingTitle(t *testing.T) {
	in, _ := ReadInput(strings.NewReader(resultsJSON))
	series, err := Build(in, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := series["S1"].Title; got != "Missing title for indicator S1" {
		t.Errorf("title = %q", got)
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(Input{}, nil, ""); err == nil {
		t.Error("expected error for empty results")
	}

	in := Input{
		Responses: map[string]Response{},
		Results:   map[string]map[string]Value{"r1": {}},
	}
	if _, err := Build(in, nil, ""); err == nil {
		t.Error("expected error for response without date")
	}

	if _, err := ReadInput(strings.NewReader("{")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestWriteProducesSeriesSource(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, build(t, "doc.pdf")); err != nil {
		t.Fatal(err)
	}

	parsed, err := source.ParseSeries(buf.Bytes())
	if err != nil {
		t.Fatalf("output is not a valid series source: %v", err)
	}
	if len(parsed["CI2"].Data) != 3 {
		t.Errorf("CI2 points = %d, want 3", len(parsed["CI2"].Data))
	}
	if !strings.Contains(buf.String(), "\n    \"CI2\"") {
		t.Errorf("expected four-space indentation:\n%s", buf.String())
	}
}
