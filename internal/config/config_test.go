package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/squeezestats/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Report.LogDir != nil || cfg.Logging.Level != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := writeConfig(t, `
[report]
log-dir = "/srv/squeezebox/logs"
year = "2020-2022"
top = 25
charts = true

[logging]
level = "debug"
format = "json"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	r := cfg.Report
	if r.LogDir == nil || *r.LogDir != "/srv/squeezebox/logs" || r.Year == nil || *r.Year != "2020-2022" {
		t.Fatalf("unexpected report config %+v", r)
	}
	if r.Top == nil || *r.Top != 25 || r.Charts == nil || !*r.Charts || r.Search != nil {
		t.Fatalf("unexpected report config %+v", r)
	}
	if *cfg.Logging.Level != "debug" || *cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"top":     "[report]\ntop = 0\n",
		"log-dir": "[report]\nlog-dir = \"\"\n",
		"format":  "[logging]\nformat = \"xml\"\n",
		"unknown": "[report]\ntopp = 3\n",
	}
	for name, content := range cases {
		_, err := LoadConfig(writeConfig(t, content))
		if !errors.Is(err, model.ErrConfiguration) {
			t.Fatalf("%s: expected configuration error, got %v", name, err)
		}
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/cfg", "squeezestats", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultExportPath(); got != filepath.Join("/tmp/data", "squeezestats", "snapshot.db") {
		t.Fatalf("unexpected export path %s", got)
	}
}
