package hist

import (
	"bytes"
	"strings"
	"testing"
)

func TestMinMaxEmpty(t *testing.T) {
	h := Histogram{Name: "empty"}
	min, max := h.MinMax()
	if min != 1 || max != 1 {
		t.Errorf("MinMax() of empty histogram = %d,%d, want 1,1", min, max)
	}
}

func TestMinMax(t *testing.T) {
	h := Histogram{Name: "entries", Data: []uint32{500, 20, 9000, 300}}
	min, max := h.MinMax()
	if min != 20 || max != 9000 {
		t.Errorf("MinMax() = %d,%d, want 20,9000", min, max)
	}
}

func TestPrintLogHistogramsShape(t *testing.T) {
	hists := []Histogram{
		{Name: "login.hurl", Data: []uint32{100, 120, 110, 95000}},
		{Name: "checkout.hurl", Data: []uint32{5000, 5200, 4800}},
	}
	var buf bytes.Buffer
	PrintLogHistograms(&buf, hists)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != len(hists)+1 {
		t.Fatalf("PrintLogHistograms produced %d lines, want %d (one per histogram plus scale)",
			len(lines), len(hists)+1)
	}
	for i, name := range []string{"login.hurl", "checkout.hurl"} {
		if !strings.HasPrefix(strings.TrimSpace(lines[i]), name) {
			t.Errorf("line %d = %q, want it to start with %q", i, lines[i], name)
		}
	}
	if !strings.Contains(lines[len(lines)-1], "--") {
		t.Errorf("scale line %q does not contain the min -- max legend", lines[len(lines)-1])
	}
}

func TestPrintLogHistogramsNoPanicOnSingleValue(t *testing.T) {
	var buf bytes.Buffer
	PrintLogHistograms(&buf, []Histogram{{Name: "one", Data: []uint32{42}}})
	if buf.Len() == 0 {
		t.Error("expected non-empty output for a single-sample histogram")
	}
}
