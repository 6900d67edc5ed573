package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/squeezestats/internal/config"
	"github.com/verte-zerg/squeezestats/internal/model"
	"github.com/verte-zerg/squeezestats/internal/store"
)

const testLog = `<?xml version="1.0" encoding="UTF-8"?>
<data>
<song>
  <artist>Thelonious Monk</artist>
  <album>Brilliant Corners</album>
  <title>Pannonica</title>
  <date>2022/03/04 21:00:00</date>
  <duration>8:50</duration>
  <playerName>Kitchen</playerName>
  <path>/music/Monk/Brilliant Corners/02 Pannonica.flac</path>
</song>
<song>
  <artist>Thelonious Monk</artist>
  <album>Brilliant Corners</album>
  <title>Bemsha Swing</title>
  <date>2022/03/04 21:09:00</date>
  <duration>7:42</duration>
  <playerName>Kitchen</playerName>
  <path>/music/Monk/Brilliant Corners/05 Bemsha Swing.flac</path>
</song>
</data>`

func writeLogDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "2022.xml"), []byte(testLog), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return dir
}

func TestRunReportWritesOutputs(t *testing.T) {
	logDir := writeLogDir(t)
	outDir := t.TempDir()
	s := reportSettings{
		LogDir:      logDir,
		Options:     model.Options{TopCount: 5},
		HTML:        filepath.Join(outDir, "report"),
		JSON:        filepath.Join(outDir, "stats.json"),
		ExportDB:    filepath.Join(outDir, "db", "snapshot.db"),
		MetricsFile: filepath.Join(outDir, "squeezestats.prom"),
	}
	var buf bytes.Buffer
	if err := runReport(context.Background(), &buf, s); err != nil {
		t.Fatalf("runReport failed: %v", err)
	}
	text := buf.String()
	if !strings.Contains(text, "SqueezeCenter Play Statistics") || !strings.Contains(text, "Total songs: 2") {
		t.Fatalf("unexpected report:\n%s", text)
	}

	page, err := os.ReadFile(filepath.Join(outDir, "report.html"))
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	if !strings.Contains(string(page), "Pannonica") {
		t.Fatalf("html report is missing song data")
	}

	raw, err := os.ReadFile(s.JSON)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}

	prom, err := os.ReadFile(s.MetricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(prom), "squeezestats_plays_total") {
		t.Fatalf("metrics file is missing plays counter:\n%s", prom)
	}

	st, err := store.Open(s.ExportDB)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	}()
	sum, err := st.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Plays != 2 || sum.Sessions != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestRunReportJSONToStdout(t *testing.T) {
	var buf bytes.Buffer
	s := reportSettings{LogDir: writeLogDir(t), JSON: stdoutPath, Charts: true}
	if err := runReport(context.Background(), &buf, s); err != nil {
		t.Fatalf("runReport failed: %v", err)
	}
	if strings.Contains(buf.String(), "SqueezeCenter Play Statistics") {
		t.Fatalf("text report must be suppressed when JSON goes to stdout")
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, buf.String())
	}
}

func TestRunReportRejectsBadOptions(t *testing.T) {
	cases := map[string]reportSettings{
		"missing dir": {LogDir: filepath.Join(t.TempDir(), "absent")},
		"bad year":    {LogDir: writeLogDir(t), Options: model.Options{YearFilter: "20x2"}},
		"negative":    {LogDir: writeLogDir(t), Options: model.Options{TopCount: -1}},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			err := runReport(context.Background(), &bytes.Buffer{}, s)
			if !errors.Is(err, model.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestDefaultConfigTemplateLoads(t *testing.T) {
	var lines []string
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		lines = append(lines, line)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("uncommented template must load: %v", err)
	}
	if cfg.Report.Top == nil || *cfg.Report.Top != model.DefaultTopCount {
		t.Fatalf("unexpected top %v", cfg.Report.Top)
	}
	if cfg.Logging.Level == nil || *cfg.Logging.Level != defaultLogLevel {
		t.Fatalf("unexpected level %v", cfg.Logging.Level)
	}
}

func TestApplyConfigKeepsChangedFlags(t *testing.T) {
	var year string
	var top int
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&year, "year", "", "")
	cmd.Flags().IntVar(&top, "top", model.DefaultTopCount, "")
	if err := cmd.Flags().Set("year", "2021"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	cfgYear, cfgTop := "2019", 3
	applyStringConfig(cmd, "year", &year, &cfgYear)
	applyIntConfig(cmd, "top", &top, &cfgTop)
	if year != "2021" {
		t.Fatalf("flag value must win, got %q", year)
	}
	if top != 3 {
		t.Fatalf("config value must apply to unset flag, got %d", top)
	}
	applyIntConfig(cmd, "top", &top, nil)
	if top != 3 {
		t.Fatalf("nil config value must be ignored, got %d", top)
	}
}
