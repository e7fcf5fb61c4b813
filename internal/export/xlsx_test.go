package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, testState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{"INDICATORS", "SERIES", "COMPOSITE"}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, sheets[i], want[i])
		}
	}

	width, err := f.GetColWidth("INDICATORS", "B")
	if err != nil {
		t.Fatal(err)
	}
	if width != 40 {
		t.Errorf("INDICATORS title column width = %v, want 40", width)
	}

	indicators, err := f.GetRows("INDICATORS")
	if err != nil {
		t.Fatal(err)
	}
	if len(indicators) != 5 || indicators[4][0] != "COMP" {
		t.Errorf("INDICATORS rows = %v", indicators)
	}

	series, err := f.GetRows("SERIES")
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 3 {
		t.Fatalf("SERIES rows = %d, want 3", len(series))
	}
	if series[0][2] != "CI1" || series[0][4] != "X3" {
		t.Errorf("SERIES header = %v", series[0])
	}
	if series[2][1] != "2018-06-10" || series[2][3] != "40" {
		t.Errorf("SERIES row 2 = %v", series[2])
	}

	composite, err := f.GetRows("COMPOSITE")
	if err != nil {
		t.Fatal(err)
	}
	if len(composite) != 3 || composite[1][2] != "50" {
		t.Errorf("COMPOSITE rows = %v", composite)
	}
}
