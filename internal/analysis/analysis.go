// Package analysis runs the play-log pipeline: extract, filter, deduplicate,
// sort, segment and aggregate.
package analysis

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/squeezestats/internal/dedup"
	"github.com/verte-zerg/squeezestats/internal/filter"
	"github.com/verte-zerg/squeezestats/internal/logging"
	"github.com/verte-zerg/squeezestats/internal/model"
	"github.com/verte-zerg/squeezestats/internal/playlog"
	"github.com/verte-zerg/squeezestats/internal/session"
	"github.com/verte-zerg/squeezestats/internal/stats"
)

// Document status labels.
const (
	StatusOK        = "ok"
	StatusNotFound  = "not_found"
	StatusMalformed = "malformed"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Extraction holds the raw records of a set of documents.
type Extraction struct {
	Records  []model.RawRecord
	Warnings []model.Warning
	// Documents counts documents by status label.
	Documents map[string]int
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	RunID  string
	Result model.StatisticsResult
	// Plays are the deduplicated plays in time order.
	Plays    []model.Play
	Sessions []model.Session
	Groups   []model.ParallelGroup
	Warnings []model.Warning
	// Records are the extracted raw records, kept for re-filtering.
	Records []model.RawRecord
	// Documents counts documents by status label.
	Documents map[string]int
	// Discards counts discarded records by reason.
	Discards map[filter.Reason]int
}

// ValidateOptions fills defaults and checks opts. Failures wrap
// model.ErrConfiguration.
func ValidateOptions(opts model.Options) (model.Options, filter.YearFilter, error) {
	if opts.TopCount == 0 {
		opts.TopCount = model.DefaultTopCount
	}
	if err := getValidator().Struct(opts); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, translateError(fe))
			}
			return opts, filter.YearFilter{}, model.ConfigError("%s", strings.Join(msgs, "; "))
		}
		return opts, filter.YearFilter{}, model.ConfigError("%v", err)
	}
	years, err := filter.ParseYearFilter(opts.YearFilter)
	if err != nil {
		return opts, filter.YearFilter{}, err
	}
	return opts, years, nil
}

func translateError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "required":
		return fe.Field() + " is required"
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// ExtractFiles reads every document in order. A missing or malformed
// document contributes no records and adds a warning.
func ExtractFiles(paths []string, logger zerolog.Logger) Extraction {
	ex := Extraction{Documents: map[string]int{}}
	for _, p := range paths {
		recs, err := extractFile(p)
		if err != nil {
			status := StatusMalformed
			if errors.Is(err, model.ErrDocumentNotFound) {
				status = StatusNotFound
			}
			ex.Documents[status]++
			ex.Warnings = append(ex.Warnings, model.Warning{Source: p, Message: err.Error()})
			logger.Warn().Err(err).Str("document", p).Str("status", status).Msg("skipping log document")
			continue
		}
		ex.Documents[StatusOK]++
		ex.Records = append(ex.Records, recs...)
		logger.Debug().Str("document", p).Int("records", len(recs)).Msg("extracted log document")
	}
	return ex
}

func extractFile(path string) ([]model.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &model.DocumentError{Path: path, Err: model.ErrDocumentNotFound}
		}
		return nil, &model.DocumentError{Path: path, Err: err}
	}
	defer func() {
		_ = f.Close()
	}()
	return playlog.Extract(f, path)
}

// Analyze runs every stage after extraction. It is used both for a fresh run
// and to re-filter records that are already in memory.
func Analyze(records []model.RawRecord, opts model.Options, logger zerolog.Logger) (*Outcome, error) {
	opts, years, err := ValidateOptions(opts)
	if err != nil {
		return nil, err
	}

	f := filter.New(years, opts.Search)
	discards := map[filter.Reason]int{}
	accepted := make([]model.Play, 0, len(records))
	for _, rec := range records {
		play, reason := f.Apply(rec)
		if reason != filter.ReasonNone {
			discards[reason]++
			logger.Debug().
				Str("reason", string(reason)).
				Str("document", rec.Source).
				Str("title", rec.Title).
				Str("date", rec.Date).
				Msg("discarded record")
			continue
		}
		accepted = append(accepted, play)
	}
	discarded := 0
	for _, n := range discards {
		discarded += n
	}

	deduped := dedup.Deduplicate(accepted)
	ordered := session.Sort(deduped.Plays)
	sessions := session.Segment(ordered, model.SessionGap)

	res := stats.Aggregate(stats.Input{
		Plays:     ordered,
		Sessions:  sessions,
		Groups:    deduped.Groups,
		Excluded:  deduped.Excluded,
		Discarded: discarded,
		YearLabel: years.String(),
		Search:    opts.Search,
		TopCount:  opts.TopCount,
	})

	logger.Info().
		Int("records", len(records)).
		Int("plays", res.TotalPlays).
		Int("discarded", discarded).
		Int("parallel_groups", len(deduped.Groups)).
		Int("sessions", len(sessions)).
		Msg("analysis complete")

	return &Outcome{
		Result:   res,
		Plays:    ordered.Plays(),
		Sessions: sessions,
		Groups:   deduped.Groups,
		Discards: discards,
	}, nil
}

// Run validates opts, extracts the documents and analyzes them.
// Only configuration errors are returned; document failures become warnings.
func Run(paths []string, opts model.Options) (*Outcome, error) {
	if _, _, err := ValidateOptions(opts); err != nil {
		return nil, err
	}
	logger, runID := logging.RunLogger()
	logger.Debug().Int("documents", len(paths)).Msg("starting analysis")

	ex := ExtractFiles(paths, logger)
	out, err := Analyze(ex.Records, opts, logger)
	if err != nil {
		return nil, err
	}
	out.RunID = runID
	out.Warnings = ex.Warnings
	out.Records = ex.Records
	out.Documents = ex.Documents
	return out, nil
}
