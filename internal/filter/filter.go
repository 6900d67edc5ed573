// Package filter validates raw records and applies year and search filters.
package filter

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/verte-zerg/squeezestats/internal/model"
)

// DateLayout is the fixed timestamp format of the <date> element.
const DateLayout = "2006/01/02 15:04:05"

// Reason explains why a record was discarded. Only used for diagnostics.
type Reason string

// Discard reasons.
const (
	ReasonNone            Reason = ""
	ReasonMissingDuration Reason = "missing_duration"
	ReasonBadDate         Reason = "bad_date"
	ReasonYear            Reason = "year_filter"
	ReasonSearch          Reason = "search"
)

// YearFilter is an inclusive year range. The zero value matches every year.
type YearFilter struct {
	From int
	To   int
}

// Active reports whether the filter restricts anything.
func (f YearFilter) Active() bool {
	return f.From != 0 || f.To != 0
}

// Contains reports whether year passes the filter.
func (f YearFilter) Contains(year int) bool {
	if !f.Active() {
		return true
	}
	return year >= f.From && year <= f.To
}

func (f YearFilter) String() string {
	switch {
	case !f.Active():
		return ""
	case f.From == f.To:
		return strconv.Itoa(f.From)
	default:
		return strconv.Itoa(f.From) + "-" + strconv.Itoa(f.To)
	}
}

// ParseYearFilter accepts "", "YYYY" or "YYYY-YYYY".
// Malformed input returns an error wrapping model.ErrConfiguration.
func ParseYearFilter(s string) (YearFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return YearFilter{}, nil
	}
	from, to, isRange := strings.Cut(s, "-")
	start, err := parseYear(from)
	if err != nil {
		return YearFilter{}, model.ConfigError("invalid year %q, use YYYY or YYYY-YYYY", s)
	}
	if !isRange {
		return YearFilter{From: start, To: start}, nil
	}
	end, err := parseYear(to)
	if err != nil {
		return YearFilter{}, model.ConfigError("invalid year range %q, use YYYY-YYYY", s)
	}
	if end < start {
		return YearFilter{}, model.ConfigError("year range %q ends before it starts", s)
	}
	return YearFilter{From: start, To: end}, nil
}

func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

// Filter turns raw records into plays.
type Filter struct {
	years  YearFilter
	search string
	fold   cases.Caser
}

// New builds a filter. An empty search matches everything.
func New(years YearFilter, search string) *Filter {
	f := &Filter{years: years, fold: cases.Fold()}
	if search != "" {
		f.search = f.fold.String(search)
	}
	return f
}

// Apply validates one record. It returns the play and ReasonNone on success,
// otherwise the discard reason.
func (f *Filter) Apply(rec model.RawRecord) (model.Play, Reason) {
	if !rec.HasDuration {
		return model.Play{}, ReasonMissingDuration
	}
	playedAt, err := ParseDate(rec.Date)
	if err != nil {
		return model.Play{}, ReasonBadDate
	}
	if !f.years.Contains(playedAt.Year()) {
		return model.Play{}, ReasonYear
	}
	if f.search != "" && !f.matches(rec) {
		return model.Play{}, ReasonSearch
	}
	return model.Play{RawRecord: rec, PlayedAt: playedAt}, ReasonNone
}

func (f *Filter) matches(rec model.RawRecord) bool {
	for _, field := range rec.Fields() {
		if strings.Contains(f.fold.String(field), f.search) {
			return true
		}
	}
	return false
}

// ParseDate parses the exact YYYY/MM/DD HH:MM:SS layout. Log timestamps
// carry no zone, so they are kept as UTC wall-clock values.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
