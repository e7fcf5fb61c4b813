package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestWriteImpactsTable(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	if err := WriteImpactsTable(&buf, testState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"CI1 Cohesion", "S1 Recruitment", "50.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Unweighted") {
		t.Errorf("non-eligible indicator listed:\n%s", out)
	}
}

func TestWriteCompositeTable(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	if err := WriteCompositeTable(&buf, testState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "below") || !strings.Contains(out, "ok") {
		t.Errorf("output missing status markers:\n%s", out)
	}
	if !strings.Contains(out, "2018-06-10") || !strings.Contains(out, "60.00") {
		t.Errorf("output missing composite point:\n%s", out)
	}
	if !strings.Contains(out, "Composite threshold: 55.0") {
		t.Errorf("output missing threshold line:\n%s", out)
	}
}
