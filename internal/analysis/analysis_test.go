package analysis

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/squeezestats/internal/filter"
	"github.com/verte-zerg/squeezestats/internal/logging"
	"github.com/verte-zerg/squeezestats/internal/model"
)

func song(title, date, duration, player string) string {
	return "<song><artist>Artist</artist><title>" + title + "</title><date>" + date +
		"</date><duration>" + duration + "</duration><playerName>" + player + "</playerName></song>\n"
}

func writeLog(t *testing.T, dir, name string, songs ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := "<data>\n" + strings.Join(songs, "") + "</data>\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestRunParallelPlaysCountOnce(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "a.xml",
		song("Song A", "2023/01/01 10:00:00", "3:00", "Kitchen"),
		song("Song A", "2023/01/01 10:00:00", "3:00", "Bedroom"),
	)
	out, err := Run([]string{path}, model.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	res := out.Result
	if res.TotalPlays != 1 || res.Parallel.Groups != 1 || res.Parallel.Excluded != 1 {
		t.Fatalf("unexpected parallel handling: %+v", res.Parallel)
	}
	if res.Parallel.Examples[0].Count != 2 || res.Discarded != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if out.RunID == "" || out.Documents[StatusOK] != 1 {
		t.Fatalf("unexpected run metadata: %q %v", out.RunID, out.Documents)
	}
	if len(out.Records) != 2 || len(out.Plays) != 1 {
		t.Fatalf("expected 2 records and 1 play, got %d and %d", len(out.Records), len(out.Plays))
	}
}

func TestRunYearFilterDiscards(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "a.xml",
		song("In Range", "2021/03/01 09:00:00", "4:00", "Kitchen"),
		song("Too Late", "2023/05/01 00:00:00", "4:00", "Kitchen"),
	)
	for _, search := range []string{"", "kitchen"} {
		out, err := Run([]string{path}, model.Options{YearFilter: "2020-2022", Search: search})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if out.Result.TotalPlays != 1 || out.Result.Discarded != 1 {
			t.Fatalf("search %q: expected 1 play and 1 discard, got %d and %d", search, out.Result.TotalPlays, out.Result.Discarded)
		}
		if out.Discards[filter.ReasonYear] != 1 {
			t.Fatalf("expected a year discard, got %v", out.Discards)
		}
		if out.Result.YearFilter != "2020-2022" {
			t.Fatalf("unexpected year label %q", out.Result.YearFilter)
		}
	}
}

func TestRunCountsEveryDiscard(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "a.xml",
		song("Good", "2023/01/01 10:00:00", "3:00", "Kitchen"),
		song("Zero", "2023/01/01 10:05:00", "0", "Kitchen"),
		song("Bad Duration", "2023/01/01 10:06:00", "1:2:3:4", "Kitchen"),
		song("Bad Date", "01.01.2023 10:07", "3:00", "Kitchen"),
	)
	out, err := Run([]string{path}, model.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Result.TotalPlays != 1 || out.Result.Discarded != 3 {
		t.Fatalf("expected 1 play and 3 discards, got %d and %d", out.Result.TotalPlays, out.Result.Discarded)
	}
	if out.Discards[filter.ReasonMissingDuration] != 2 || out.Discards[filter.ReasonBadDate] != 1 {
		t.Fatalf("unexpected discard reasons %v", out.Discards)
	}
}

func TestRunDocumentFailuresAreWarnings(t *testing.T) {
	dir := t.TempDir()
	good := writeLog(t, dir, "good.xml", song("Song", "2023/01/01 10:00:00", "3:00", "Kitchen"))
	broken := filepath.Join(dir, "broken.xml")
	if err := os.WriteFile(broken, []byte("<data><song><title>x</song></data>"), 0o644); err != nil {
		t.Fatalf("write broken log: %v", err)
	}
	missing := filepath.Join(dir, "missing.xml")

	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	t.Cleanup(func() { logging.SetLogger(prev) })

	out, err := Run([]string{missing, broken, good}, model.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Result.TotalPlays != 1 {
		t.Fatalf("expected the good document to be analyzed, got %d plays", out.Result.TotalPlays)
	}
	if len(out.Warnings) != 2 || out.Warnings[0].Source != missing || out.Warnings[1].Source != broken {
		t.Fatalf("unexpected warnings %+v", out.Warnings)
	}
	if out.Documents[StatusNotFound] != 1 || out.Documents[StatusMalformed] != 1 || out.Documents[StatusOK] != 1 {
		t.Fatalf("unexpected document counts %v", out.Documents)
	}
	logs := buf.String()
	if !strings.Contains(logs, "skipping log document") || !strings.Contains(logs, out.RunID) {
		t.Fatalf("expected warn logs tagged with the run id, got:\n%s", logs)
	}
}

func TestRunEmptyInput(t *testing.T) {
	out, err := Run(nil, model.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	res := out.Result
	if res.TotalPlays != 0 || res.Discarded != 0 || res.Sessions.Count != 0 || res.Durations.Mean != 0 {
		t.Fatalf("expected zero result, got %+v", res)
	}
	if len(res.Weekdays) != 7 {
		t.Fatalf("expected 7 weekdays, got %d", len(res.Weekdays))
	}
}

func TestRunRejectsBadOptions(t *testing.T) {
	cases := []model.Options{
		{YearFilter: "20x1"},
		{YearFilter: "2022-2020"},
		{TopCount: -1},
	}
	for _, opts := range cases {
		if _, err := Run(nil, opts); !errors.Is(err, model.ErrConfiguration) {
			t.Fatalf("options %+v: expected configuration error, got %v", opts, err)
		}
	}
}

func TestValidateOptionsDefaultsTopCount(t *testing.T) {
	opts, years, err := ValidateOptions(model.Options{YearFilter: "2021"})
	if err != nil {
		t.Fatalf("ValidateOptions failed: %v", err)
	}
	if opts.TopCount != model.DefaultTopCount {
		t.Fatalf("expected default top count, got %d", opts.TopCount)
	}
	if years.From != 2021 || years.To != 2021 {
		t.Fatalf("unexpected year filter %+v", years)
	}
}

func TestAnalyzeRefiltersRecords(t *testing.T) {
	records := []model.RawRecord{
		{Title: "Blue", Artist: "Miles", Date: "2021/01/01 10:00:00", DurationSeconds: 60, HasDuration: true},
		{Title: "Green", Artist: "Bill", Date: "2022/01/01 10:00:00", DurationSeconds: 60, HasDuration: true},
	}
	out, err := Analyze(records, model.Options{Search: "MILES"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if out.Result.TotalPlays != 1 || out.Plays[0].Title != "Blue" || out.Result.Search != "MILES" {
		t.Fatalf("unexpected search result %+v", out.Result)
	}
	out, err = Analyze(records, model.Options{YearFilter: "2022"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if out.Result.TotalPlays != 1 || out.Plays[0].Title != "Green" {
		t.Fatalf("unexpected year result %+v", out.Result)
	}
}
