package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/squeezestats/internal/model"
)

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Test Plot", []Series{
		{Name: "A", Values: []float64{1, 2, 3, 2, 1}},
		{Name: "B", Values: []float64{1, 1, 2, 3, 4}},
	}, 5, 4)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Test Plot") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "Legend: A, B") {
		t.Fatalf("expected legend in output")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1+4+1 {
		t.Fatalf("expected 6 lines of output, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "     4 │ ") || !strings.HasPrefix(lines[4], "     1 │ ") {
		t.Fatalf("unexpected axis labels:\n%s", out)
	}
}

func TestPlotSeriesSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "Empty", []Series{{Name: "A"}}, 10, 4); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestBarChart(t *testing.T) {
	var buf bytes.Buffer
	err := BarChart(&buf, "Hours", []model.Bucket{
		{Label: "08", Count: 4},
		{Label: "20", Count: 2},
	}, 14)
	if err != nil {
		t.Fatalf("BarChart failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	// 14 - label(2) - count(1) - 2 separators leaves 9 cells.
	if lines[1] != "08 4 "+strings.Repeat("█", 9) {
		t.Fatalf("unexpected full bar %q", lines[1])
	}
	if lines[2] != "20 2 "+strings.Repeat("█", 5) {
		t.Fatalf("unexpected half bar %q", lines[2])
	}
}

func TestResampleSeries(t *testing.T) {
	got := resampleSeries([]float64{0, 10}, 3)
	if len(got) != 3 || got[0] != 0 || got[1] != 5 || got[2] != 10 {
		t.Fatalf("unexpected stretched values %v", got)
	}
	got = resampleSeries([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("unexpected averaged values %v", got)
	}
}
