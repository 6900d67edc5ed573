package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verte-zerg/squeezestats/internal/model"
	"github.com/verte-zerg/squeezestats/internal/playlog"
)

const (
	reportTitle    = "SqueezeCenter Play Statistics"
	monthsPerRow   = 3
	maxCellWidth   = 48
	indent         = "  "
	noPlaysMessage = "No song data found."
)

// RenderReport writes the plain text report for res.
func RenderReport(w io.Writer, res model.StatisticsResult) error {
	_, err := io.WriteString(w, FormatReport(res))
	return err
}

// FormatReport returns the plain text report for res. The same text is
// embedded in the HTML output.
func FormatReport(res model.StatisticsResult) string {
	var b strings.Builder
	b.WriteString(reportTitle)
	if res.YearFilter != "" {
		fmt.Fprintf(&b, " (%s)", res.YearFilter)
	}
	b.WriteString("\n\n")
	if res.Search != "" {
		fmt.Fprintf(&b, "Search: %q\n\n", res.Search)
	}

	if res.TotalPlays == 0 {
		b.WriteString(noPlaysMessage + "\n\n")
		fmt.Fprintf(&b, "Discarded songs: %d\n", res.Discarded)
		return b.String()
	}

	writeRanking(&b, fmt.Sprintf("Top %d artists:", res.TopCount), []string{"Artist", "Count"}, res.TopArtists, false)
	writeRanking(&b, fmt.Sprintf("Top %d albums:", res.TopCount), []string{"Album", "Artist", "Count"}, res.TopAlbums, true)
	writeRanking(&b, fmt.Sprintf("Top %d songs:", res.TopCount), []string{"Song", "Artist", "Count"}, res.TopSongs, true)

	fmt.Fprintf(&b, "Unique artists: %d\nUnique albums: %d\nUnique titles: %d\n\n", res.UniqueArtists, res.UniqueAlbums, res.UniqueTitles)

	b.WriteString("Songs per month:\n")
	var monthRows [][]string
	for i := 0; i < len(res.Months); i += monthsPerRow {
		end := min(i+monthsPerRow, len(res.Months))
		row := make([]string, 0, monthsPerRow)
		for _, m := range res.Months[i:end] {
			row = append(row, fmt.Sprintf("%s: %d", m.Label, m.Count))
		}
		monthRows = append(monthRows, row)
	}
	writeLines(&b, formatTable(nil, monthRows, nil))
	b.WriteByte('\n')

	b.WriteString("Songs per year:\n")
	for _, y := range res.Years {
		fmt.Fprintf(&b, "%s%s: %d\n", indent, y.Label, y.Count)
	}
	fmt.Fprintf(&b, "\nTotal songs: %d\n\n", res.TotalPlays)

	b.WriteString("Songs per weekday:\n")
	writeBuckets(&b, res.Weekdays)
	b.WriteString("Songs per hour:\n")
	writeBuckets(&b, res.Hours)

	b.WriteString("Songs per player:\n")
	writeShares(&b, res.Players)
	b.WriteString("Songs per file format:\n")
	writeShares(&b, res.Formats)

	d := res.Durations
	fmt.Fprintf(&b, "Average song duration: %s\n", playlog.FormatDuration(int(d.Mean)))
	fmt.Fprintf(&b, "Median song duration: %s\n", playlog.FormatDuration(int(d.Median)))
	fmt.Fprintf(&b, "Shortest / longest song: %s / %s\n", playlog.FormatDuration(d.Min), playlog.FormatDuration(d.Max))
	fmt.Fprintf(&b, "90th percentile: %s\n", playlog.FormatDuration(int(d.P90)))
	fmt.Fprintf(&b, "Total listening time: %s\n\n", playlog.FormatDuration(d.Total))

	s := res.Sessions
	fmt.Fprintf(&b, "Listening sessions: %d\n", s.Count)
	if s.Count > 0 {
		fmt.Fprintf(&b, "Average session length: %s\n", playlog.FormatDuration(int(s.MeanDuration)))
		fmt.Fprintf(&b, "Median session length: %s\n", playlog.FormatDuration(int(s.MedianDuration)))
		fmt.Fprintf(&b, "Longest session: %s\n", playlog.FormatDuration(s.MaxDuration))
		fmt.Fprintf(&b, "Longest session span: %s\n", playlog.FormatDuration(s.LongestSpan))
		fmt.Fprintf(&b, "Average songs per session: %.1f\n", s.MeanSongs)
		hours := make([]string, 0, len(s.TopStartHours))
		for _, h := range s.TopStartHours {
			hours = append(hours, fmt.Sprintf("%s:00 (%d)", h.Label, h.Count))
		}
		fmt.Fprintf(&b, "Most common start hours: %s\n", strings.Join(hours, ", "))
	}
	b.WriteByte('\n')

	if len(res.CommentYears) > 0 {
		b.WriteString("Release years from comments:\n")
		writeBuckets(&b, res.CommentYears)
	}

	p := res.Parallel
	fmt.Fprintf(&b, "Parallel plays detected: %d\n", p.Groups)
	fmt.Fprintf(&b, "Duplicate entries excluded: %d\n\n", p.Excluded)
	if len(p.Examples) > 0 {
		b.WriteString("Examples of parallel plays:\n")
		for _, ex := range p.Examples {
			fmt.Fprintf(&b, "%s'%s' on %s - played on %d players: %s\n", indent, ex.Title, ex.Date, ex.Count, strings.Join(ex.Players, ", "))
		}
		if more := p.Groups - len(p.Examples); more > 0 {
			fmt.Fprintf(&b, "%s... and %d more\n", indent, more)
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "Discarded songs: %d\n", res.Discarded)
	return b.String()
}

func writeRanking(b *strings.Builder, title string, headers []string, items []model.RankedItem, withArtist bool) {
	b.WriteString(title)
	b.WriteByte('\n')
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		row := []string{truncateCell(it.Name, maxCellWidth)}
		if withArtist {
			row = append(row, truncateCell(it.Artist, maxCellWidth))
		}
		rows = append(rows, append(row, strconv.Itoa(it.Count)))
	}
	writeLines(b, formatTable(headers, rows, map[int]bool{len(headers) - 1: true}))
	b.WriteByte('\n')
}

func writeBuckets(b *strings.Builder, buckets []model.Bucket) {
	for _, bk := range buckets {
		fmt.Fprintf(b, "%s%s: %d\n", indent, bk.Label, bk.Count)
	}
	b.WriteByte('\n')
}

func writeShares(b *strings.Builder, shares []model.Share) {
	for _, s := range shares {
		fmt.Fprintf(b, "%s%s: %d (%.1f%%)\n", indent, s.Name, s.Count, s.Percent)
	}
	b.WriteByte('\n')
}

func writeLines(b *strings.Builder, lines []string) {
	for _, line := range lines {
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}
}

// RenderCharts writes chronological monthly plays as a line plot and the
// hour-of-day histogram as bars.
func RenderCharts(w io.Writer, res model.StatisticsResult, width int, forceColor bool) error {
	if res.TotalPlays == 0 {
		return nil
	}
	monthly := make([]float64, 0, len(res.Months))
	for i := len(res.Months) - 1; i >= 0; i-- {
		monthly = append(monthly, float64(res.Months[i].Count))
	}
	plotWidth := 0
	if width > 0 {
		plotWidth = PlotWidthFor(width)
	}
	title := "Songs per month"
	if len(res.Months) > 0 {
		title = fmt.Sprintf("Songs per month (%s to %s)", res.Months[len(res.Months)-1].Label, res.Months[0].Label)
	}
	if err := PlotSeriesWithColor(w, title, []Series{{Name: "plays", Values: monthly}}, plotWidth, defaultPlotHeight, forceColor); err != nil {
		return err
	}
	return BarChart(w, "Songs per hour", res.Hours, width)
}
