// Package main provides the CLI entrypoint for squeezestats.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/squeezestats/internal/analysis"
	"github.com/verte-zerg/squeezestats/internal/config"
	"github.com/verte-zerg/squeezestats/internal/logfiles"
	"github.com/verte-zerg/squeezestats/internal/logging"
	"github.com/verte-zerg/squeezestats/internal/metrics"
	"github.com/verte-zerg/squeezestats/internal/model"
	"github.com/verte-zerg/squeezestats/internal/stats"
	"github.com/verte-zerg/squeezestats/internal/statsui"
	"github.com/verte-zerg/squeezestats/internal/store"
)

const (
	defaultLogLevel  = "warn"
	defaultLogFormat = "console"
	stdoutPath       = "-"
)

var (
	logLevel  string
	logFormat string

	reportLogDir      string
	reportYear        string
	reportSearch      string
	reportTop         int
	reportCharts      bool
	reportHTML        string
	reportJSON        string
	reportExportDB    string
	reportMetricsFile string

	fileCfg config.FileConfig
)

type reportSettings struct {
	LogDir      string
	Options     model.Options
	Charts      bool
	HTML        string
	JSON        string
	ExportDB    string
	MetricsFile string
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "squeezestats",
		Short:             "Listening statistics from Squeezebox play logs",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setupCmd,
		RunE:              runReportCmd,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level: trace, debug, info, warn, error, disabled")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", defaultLogFormat, "log format: console or json")
	addReportFlags(rootCmd)

	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newRepairCmd())
	rootCmd.AddCommand(newLogsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&reportLogDir, "log-dir", "d", config.DefaultLogDir, "directory with play-log XML files")
	cmd.Flags().StringVarP(&reportYear, "year", "y", "", "filter by year (e.g. 2023) or year range (e.g. 2020-2023)")
	cmd.Flags().StringVarP(&reportSearch, "search", "s", "", "case-insensitive search across all song fields")
	cmd.Flags().IntVarP(&reportTop, "top", "t", model.DefaultTopCount, "number of top results to display")
}

func addReportFlags(cmd *cobra.Command) {
	addAnalysisFlags(cmd)
	cmd.Flags().BoolVar(&reportCharts, "charts", false, "draw charts of songs per month and per hour")
	cmd.Flags().StringVarP(&reportHTML, "html", "o", "", "also write the report to NAME.html")
	cmd.Flags().StringVar(&reportJSON, "json", "", "write the statistics as JSON to a file, or - for stdout")
	cmd.Flags().StringVar(&reportExportDB, "export-db", "", "export plays, sessions and parallel groups to a SQLite file")
	cmd.Flags().StringVar(&reportMetricsFile, "metrics-file", "", "write run counters in Prometheus text format")
}

func setupCmd(cmd *cobra.Command, _ []string) error {
	var err error
	fileCfg, err = config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Logging.Level)
	applyStringConfig(cmd, "log-format", &logFormat, fileCfg.Logging.Format)
	logging.Init(logging.Config{Level: logLevel, Format: logFormat, Output: os.Stderr})
	return nil
}

func applyAnalysisConfig(cmd *cobra.Command) {
	r := fileCfg.Report
	applyStringConfig(cmd, "log-dir", &reportLogDir, r.LogDir)
	applyStringConfig(cmd, "year", &reportYear, r.Year)
	applyStringConfig(cmd, "search", &reportSearch, r.Search)
	applyIntConfig(cmd, "top", &reportTop, r.Top)
}

func applyReportConfig(cmd *cobra.Command) {
	r := fileCfg.Report
	applyAnalysisConfig(cmd)
	applyBoolConfig(cmd, "charts", &reportCharts, r.Charts)
	applyStringConfig(cmd, "html", &reportHTML, r.HTML)
	applyStringConfig(cmd, "json", &reportJSON, r.JSON)
	applyStringConfig(cmd, "export-db", &reportExportDB, r.ExportDB)
	applyStringConfig(cmd, "metrics-file", &reportMetricsFile, r.MetricsFile)
}

func currentOptions() model.Options {
	return model.Options{
		YearFilter: reportYear,
		Search:     reportSearch,
		TopCount:   reportTop,
	}
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the statistics report (default command)",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	addReportFlags(cmd)
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	applyReportConfig(cmd)
	return runReport(cmd.Context(), cmd.OutOrStdout(), reportSettings{
		LogDir:      reportLogDir,
		Options:     currentOptions(),
		Charts:      reportCharts,
		HTML:        reportHTML,
		JSON:        reportJSON,
		ExportDB:    reportExportDB,
		MetricsFile: reportMetricsFile,
	})
}

func runReport(ctx context.Context, w io.Writer, s reportSettings) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := analyzeDir(s.LogDir, s.Options)
	if err != nil {
		return err
	}
	res := out.Result

	// JSON on stdout replaces the text report so the output stays parseable.
	if s.JSON != stdoutPath {
		if err := stats.RenderReport(w, res); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		if s.Charts {
			if _, err := fmt.Fprintln(w); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			if err := stats.RenderCharts(w, res, 0, false); err != nil {
				return fmt.Errorf("failed to render charts: %w", err)
			}
		}
	}
	if s.JSON != "" {
		if err := writeJSON(w, s.JSON, res); err != nil {
			return err
		}
	}
	if s.HTML != "" {
		path := stats.HTMLFileName(s.HTML)
		if err := writeFile(path, func(f io.Writer) error { return stats.RenderHTML(f, res) }); err != nil {
			return fmt.Errorf("failed to write HTML report: %w", err)
		}
		logging.Info().Str("path", path).Msg("wrote HTML report")
	}
	if s.ExportDB != "" {
		if err := exportSnapshot(ctx, s.ExportDB, out); err != nil {
			return err
		}
	}
	if s.MetricsFile != "" {
		rec := metrics.New()
		rec.Observe(out)
		if err := rec.WriteFile(s.MetricsFile); err != nil {
			return err
		}
		logging.Info().Str("path", s.MetricsFile).Msg("wrote metrics")
	}
	return nil
}

func analyzeDir(dir string, opts model.Options) (*analysis.Outcome, error) {
	if _, _, err := analysis.ValidateOptions(opts); err != nil {
		return nil, err
	}
	paths, err := logfiles.List(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		logging.Warn().Str("dir", dir).Msg("no log documents found")
	}
	return analysis.Run(paths, opts)
}

func writeJSON(w io.Writer, path string, res model.StatisticsResult) error {
	if path == stdoutPath {
		return stats.RenderJSON(w, res)
	}
	if err := writeFile(path, func(f io.Writer) error { return stats.RenderJSON(f, res) }); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	logging.Info().Str("path", path).Msg("wrote JSON statistics")
	return nil
}

func writeFile(path string, render func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return render(f)
}

func exportSnapshot(ctx context.Context, path string, out *analysis.Outcome) error {
	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	id, err := st.Export(ctx, store.Snapshot{
		RunID:      out.RunID,
		YearFilter: out.Result.YearFilter,
		Search:     out.Result.Search,
		Sessions:   out.Sessions,
		Groups:     out.Groups,
		Excluded:   out.Result.Parallel.Excluded,
		Discarded:  out.Result.Discarded,
	})
	if err != nil {
		return fmt.Errorf("failed to export snapshot: %w", err)
	}
	sum, err := st.Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	logging.Info().
		Str("path", path).
		Str("snapshot_id", id).
		Int("plays", sum.Plays).
		Int("sessions", sum.Sessions).
		Msg("exported snapshot")
	return nil
}

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the statistics interactively",
		Args:  cobra.NoArgs,
		RunE:  runBrowseCmd,
	}
	addAnalysisFlags(cmd)
	return cmd
}

func runBrowseCmd(cmd *cobra.Command, _ []string) error {
	applyAnalysisConfig(cmd)
	opts := currentOptions()
	out, err := analyzeDir(reportLogDir, opts)
	if err != nil {
		return err
	}
	// Log lines would tear the alternate screen.
	logging.Init(logging.Config{Level: "disabled"})
	program := tea.NewProgram(statsui.NewModel(out, opts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newRepairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Add a missing <data> root element to play-log files",
		Args:  cobra.NoArgs,
		RunE:  runRepairCmd,
	}
	cmd.Flags().StringVarP(&reportLogDir, "log-dir", "d", config.DefaultLogDir, "directory with play-log XML files")
	return cmd
}

func runRepairCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "log-dir", &reportLogDir, fileCfg.Report.LogDir)
	results, err := logfiles.Repair(reportLogDir)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		name := filepath.Base(r.Path)
		var line string
		switch r.Status {
		case logfiles.Repaired:
			line = fmt.Sprintf("Added <data> root element to %s", name)
		case logfiles.Skipped:
			line = fmt.Sprintf("Skipping %s: <data> root element already exists.", name)
		default:
			failed++
			line = fmt.Sprintf("Error processing %s: %v", name, r.Err)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to repair %d of %d log documents", failed, len(results))
	}
	return nil
}

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List play-log documents",
		Args:  cobra.NoArgs,
		RunE:  runLogsCmd,
	}
	cmd.Flags().StringVarP(&reportLogDir, "log-dir", "d", config.DefaultLogDir, "directory with play-log XML files")
	return cmd
}

func runLogsCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "log-dir", &reportLogDir, fileCfg.Report.LogDir)
	paths, err := logfiles.List(reportLogDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		logErrf("No log documents found in %s\n", reportLogDir)
		return errors.New("no log documents found")
	}
	for _, p := range paths {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), filepath.Base(p)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# squeezestats configuration
# Uncomment a value to enable it. CLI flags override config values.

[report]
# log-dir = %q          # Directory with play-log XML files
# year = "2020-2023"         # Year (YYYY) or inclusive range (YYYY-YYYY)
# search = ""                # Case-insensitive search across all song fields
# top = %d                   # Number of top results
# charts = false             # Draw charts after the text report
# html = "report"            # Also write report.html
# json = "stats.json"        # Write statistics as JSON ("-" for stdout)
# export-db = %q
# metrics-file = "/var/lib/node_exporter/textfile/squeezestats.prom"

[logging]
# level = %q              # trace, debug, info, warn, error, disabled
# format = %q          # console or json
`,
		config.DefaultLogDir,
		model.DefaultTopCount,
		config.DefaultExportPath(),
		defaultLogLevel,
		defaultLogFormat,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
