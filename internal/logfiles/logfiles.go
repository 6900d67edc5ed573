// Package logfiles finds Squeezebox play-log documents and repairs logs that
// were written without a root element.
package logfiles

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/verte-zerg/squeezestats/internal/model"
)

// Extension is the suffix of play-log documents.
const Extension = ".xml"

var (
	rootPattern = regexp.MustCompile(`(?i)<data\s*>`)
	declPattern = regexp.MustCompile(`^\s*<\?xml[^>]*\?>`)
)

// List returns the paths of all play-log documents in dir, sorted by name.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.ConfigError("log directory %q does not exist", dir)
		}
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), Extension) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// RepairStatus describes what Repair did with one document.
type RepairStatus string

// Repair outcomes.
const (
	Repaired RepairStatus = "repaired"
	Skipped  RepairStatus = "skipped"
	Failed   RepairStatus = "failed"
)

// RepairResult is the outcome for one document.
type RepairResult struct {
	Path   string
	Status RepairStatus
	Err    error
}

// Repair wraps every document in dir that lacks a <data> root element.
// Documents that already have one are left untouched, so running it twice is
// harmless. A failure on one document does not stop the others.
func Repair(dir string) ([]RepairResult, error) {
	paths, err := List(dir)
	if err != nil {
		return nil, err
	}
	results := make([]RepairResult, 0, len(paths))
	for _, p := range paths {
		status, err := RepairFile(p)
		results = append(results, RepairResult{Path: p, Status: status, Err: err})
	}
	return results, nil
}

// RepairFile adds a <data> root element to one document when it is missing.
func RepairFile(path string) (RepairStatus, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Failed, &model.DocumentError{Path: path, Err: model.ErrDocumentNotFound}
		}
		return Failed, fmt.Errorf("failed to read log document: %w", err)
	}
	if rootPattern.Match(content) {
		return Skipped, nil
	}
	if err := writeAtomic(path, wrapRoot(content)); err != nil {
		return Failed, err
	}
	return Repaired, nil
}

// wrapRoot surrounds content with <data> tags, keeping an XML declaration
// in front.
func wrapRoot(content []byte) []byte {
	var b bytes.Buffer
	if loc := declPattern.FindIndex(content); loc != nil {
		b.Write(content[:loc[1]])
		b.WriteByte('\n')
		content = content[loc[1]:]
	}
	b.WriteString("<data>\n")
	b.Write(content)
	b.WriteString("\n</data>")
	return b.Bytes()
}

func writeAtomic(path string, content []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat log document: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".repair-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp log document: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(content); err != nil {
		return fmt.Errorf("failed to write log document: %w", err)
	}
	if err := tmpFile.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set log document mode: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close log document: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace log document: %w", err)
	}
	return nil
}
