package model

import (
	"errors"
	"fmt"
)

// Error kinds reported by the pipeline.
var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrMalformedDocument = errors.New("malformed document")
	ErrConfiguration     = errors.New("configuration error")
)

// DocumentError is a non-fatal failure tied to one log document.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Warning is a non-fatal problem collected during a run.
type Warning struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// ConfigError returns an error wrapping ErrConfiguration.
func ConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
