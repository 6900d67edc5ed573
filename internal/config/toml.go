// Package config provides configuration helpers and TOML parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/squeezestats/internal/model"
)

// DefaultLogDir is where play logs are read from when nothing else is set.
const DefaultLogDir = "./logs"

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Report  ReportConfig  `toml:"report"`
	Logging LoggingConfig `toml:"logging"`
}

// ReportConfig maps report-related settings.
type ReportConfig struct {
	LogDir      *string `toml:"log-dir" validate:"omitnil,min=1"`
	Year        *string `toml:"year"`
	Search      *string `toml:"search"`
	Top         *int    `toml:"top" validate:"omitnil,min=1"`
	Charts      *bool   `toml:"charts"`
	HTML        *string `toml:"html" validate:"omitnil,min=1"`
	JSON        *string `toml:"json" validate:"omitnil,min=1"`
	ExportDB    *string `toml:"export-db" validate:"omitnil,min=1"`
	MetricsFile *string `toml:"metrics-file" validate:"omitnil,min=1"`
}

// LoggingConfig maps logging settings.
type LoggingConfig struct {
	Level  *string `toml:"level" validate:"omitnil,oneof=trace debug info warn warning error disabled off"`
	Format *string `toml:"format" validate:"omitnil,oneof=console json"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, model.ConfigError("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return FileConfig{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges. Failures wrap model.ErrConfiguration.
func (c FileConfig) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return model.ConfigError("%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: invalid value %v (%s=%s)", fe.Namespace(), fe.Value(), fe.Tag(), fe.Param()))
	}
	return model.ConfigError("%s", strings.Join(msgs, "; "))
}
