package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/verte-zerg/squeezestats/internal/model"
)

func sampleResult() model.StatisticsResult {
	plays := []model.Play{
		mkPlay("2023/01/02 10:00:00", "Bach", "Goldberg", "Aria", "Kitchen", "flac", 180),
		mkPlay("2023/01/02 10:03:00", "Bach", "Goldberg", "Var. 1", "Kitchen", "flac", 120),
		mkPlay("2023/02/05 21:00:00", "Monk", "Brilliant Corners", "<Pannonica>", "Bedroom", "mp3", 400),
	}
	in := buildInput(plays)
	in.YearLabel = "2023"
	in.Discarded = 2
	in.Excluded = 1
	in.Groups = []model.ParallelGroup{{Title: "Aria", Date: plays[0].Date, Plays: []model.Play{plays[0], plays[0]}}}
	return Aggregate(in)
}

func TestFormatReport(t *testing.T) {
	out := FormatReport(sampleResult())
	for _, want := range []string{
		"SqueezeCenter Play Statistics (2023)",
		"Top 10 artists:",
		"Artist Count",
		"Bach       2",
		"Unique albums: 2",
		"2023-02: 1 2023-01: 2",
		"Total songs: 3",
		"Kitchen: 2 (66.7%)",
		"Average song duration: 03:53",
		"Listening sessions: 2",
		"Parallel plays detected: 1",
		"Duplicate entries excluded: 1",
		"'Aria' on 2023/01/02 10:00:00 - played on 2 players: Kitchen, Kitchen",
		"Discarded songs: 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasSuffix(line, " ") {
			t.Fatalf("unexpected trailing space in %q", line)
		}
	}
}

func TestFormatReportEmpty(t *testing.T) {
	res := Aggregate(Input{Discarded: 4})
	out := FormatReport(res)
	if !strings.Contains(out, noPlaysMessage) || !strings.Contains(out, "Discarded songs: 4") {
		t.Fatalf("unexpected empty report:\n%s", out)
	}
	if strings.Contains(out, "Top 10") {
		t.Fatalf("empty report must not list rankings")
	}
}

func TestRenderHTMLEscapes(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, sampleResult()); err != nil {
		t.Fatalf("render html: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<title>SqueezeCenter Play Statistics (2023)</title>") {
		t.Fatalf("missing title:\n%s", out)
	}
	if strings.Contains(out, "<Pannonica>") || !strings.Contains(out, "&lt;Pannonica&gt;") {
		t.Fatalf("record values must be escaped:\n%s", out)
	}
}

func TestHTMLFileName(t *testing.T) {
	cases := map[string]string{
		"report":         "report.html",
		"report.html":    "report.html",
		"out/Stats.HTML": "out/Stats.HTML",
	}
	for in, want := range cases {
		if got := HTMLFileName(in); got != want {
			t.Fatalf("HTMLFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("render json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded["total_plays"] != float64(3) || decoded["discarded"] != float64(2) {
		t.Fatalf("unexpected json totals: %v", decoded)
	}
	if _, ok := decoded["top_songs"].([]any); !ok {
		t.Fatalf("expected top_songs array")
	}
}

func TestRenderCharts(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderCharts(&buf, sampleResult(), 60, false); err != nil {
		t.Fatalf("render charts: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Songs per month (2023-01 to 2023-02)") || !strings.Contains(out, "Songs per hour") {
		t.Fatalf("unexpected charts:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected color codes for non-terminal writer")
	}
}
