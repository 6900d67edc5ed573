// Package statsui provides the Bubble Tea browser for play statistics.
package statsui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/squeezestats/internal/analysis"
	"github.com/verte-zerg/squeezestats/internal/logging"
	"github.com/verte-zerg/squeezestats/internal/model"
	"github.com/verte-zerg/squeezestats/internal/playlog"
	"github.com/verte-zerg/squeezestats/internal/stats"
)

const (
	tabOverview = iota
	tabRankings
	tabPatterns
	tabSessions
	tabParallel
)

const (
	plotHeight       = 8
	recentSessions   = 15
	defaultViewWidth = 80
)

const (
	rankSongs = iota
	rankArtists
	rankAlbums
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	sectionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea statistics browser.
type Model struct {
	records  []model.RawRecord
	opts     model.Options
	outcome  *analysis.Outcome
	warnings []model.Warning
	errMsg   string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	rankTable table.Model
	rankKind  int

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a browser over an analysed run. The raw records are
// kept so filters can be changed without reading the documents again.
func NewModel(out *analysis.Outcome, opts model.Options) *Model {
	m := &Model{
		records:  out.Records,
		opts:     opts,
		outcome:  out,
		warnings: out.Warnings,
		tabs:     []string{"Overview", "Rankings", "Patterns", "Sessions", "Parallel"},
	}
	m.initInputs()
	m.initViewports()
	m.rankTable = newRankTable()
	m.applyRankTable()
	m.renderTabContents()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.activeTab == tabRankings {
			m.rankTable.Focus()
		} else {
			m.rankTable.Blur()
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			return m.startFilter()
		case "s", "a", "b":
			if m.activeTab == tabRankings {
				m.rankKind = map[string]int{"s": rankSongs, "a": rankArtists, "b": rankAlbums}[msg.String()]
				m.applyRankTable()
				return m, nil
			}
		case "g", "home":
			if m.activeTab == tabRankings {
				m.rankTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabRankings {
				m.rankTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		}
		if m.activeTab == tabRankings {
			var cmd tea.Cmd
			m.rankTable, cmd = m.rankTable.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Result returns the statistics currently shown.
func (m *Model) Result() model.StatisticsResult {
	return m.outcome.Result
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Year (YYYY or YYYY-YYYY): "),
		newFilterInput("Search: "),
		newFilterInput("Top: "),
	}
	m.setInputsFromOptions()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromOptions() {
	m.filterInputs[0].SetValue(m.opts.YearFilter)
	m.filterInputs[1].SetValue(m.opts.Search)
	top := m.opts.TopCount
	if top <= 0 {
		top = model.DefaultTopCount
	}
	m.filterInputs[2].SetValue(strconv.Itoa(top))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && (m.errMsg != "" || len(m.warnings) > 0) {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.rankTable.SetWidth(m.width)
	m.rankTable.SetHeight(max(1, bodyHeight-2))
	m.applyRankTable()
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabRankings {
		m.rankTable.Focus()
	} else {
		m.rankTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	res := m.outcome.Result
	year := res.YearFilter
	if year == "" {
		year = "all"
	}
	search := res.Search
	if search == "" {
		search = "none"
	}
	summary := fmt.Sprintf("Filters: year=%s  search=%s  top=%d  plays=%d  discarded=%d",
		year, search, res.TopCount, res.TotalPlays, res.Discarded)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Filters: /  Quit: q"
	if m.activeTab == tabRankings {
		help = "Nav: left/right  Songs: s  Artists: a  Albums: b  Filters: /  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel  quit: ctrl+c")
	}
	switch {
	case m.errMsg != "":
		return m.renderHelp() + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	case len(m.warnings) > 0:
		msg := fmt.Sprintf("%d log document(s) skipped; first: %s", len(m.warnings), m.warnings[0].Message)
		return m.renderHelp() + "\n" + warnStyle.Render(truncateLine(msg, m.width))
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filters (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabRankings {
		if m.outcome.Result.TotalPlays == 0 {
			return fitLines("No plays found.", m.width, height)
		}
		title := sectionStyle.Render(rankTitles[m.rankKind])
		view := title + "\n" + tableMutedStyle.Render(m.rankTable.View())
		return fitLines(view, m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromOptions()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

// applyFilter re-runs the pipeline over the records already in memory.
func (m *Model) applyFilter() error {
	opts := model.Options{
		YearFilter: strings.TrimSpace(m.filterInputs[0].Value()),
		Search:     m.filterInputs[1].Value(),
	}
	if topInput := strings.TrimSpace(m.filterInputs[2].Value()); topInput != "" {
		top, err := strconv.Atoi(topInput)
		if err != nil || top < 1 {
			return fmt.Errorf("invalid top value (use integer >= 1)")
		}
		opts.TopCount = top
	}
	out, err := analysis.Analyze(m.records, opts, logging.Logger())
	if err != nil {
		return err
	}
	out.Records = m.records
	out.Warnings = m.warnings
	m.outcome = out
	m.opts = opts
	m.errMsg = ""
	m.applyRankTable()
	return nil
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = defaultViewWidth
	}
	res := m.outcome.Result
	m.viewports[tabOverview].SetContent(renderOverview(res, width))
	m.viewports[tabPatterns].SetContent(renderPatterns(res, width))
	m.viewports[tabSessions].SetContent(renderSessions(res, m.outcome.Sessions))
	m.viewports[tabParallel].SetContent(renderParallel(res, m.outcome.Groups))
}

func renderOverview(res model.StatisticsResult, width int) string {
	if res.TotalPlays == 0 {
		return fmt.Sprintf("No plays found.\nDiscarded records: %d", res.Discarded)
	}
	cards := []string{
		metricCard("Plays", strconv.Itoa(res.TotalPlays)),
		metricCard("Artists", strconv.Itoa(res.UniqueArtists)),
		metricCard("Albums", strconv.Itoa(res.UniqueAlbums)),
		metricCard("Titles", strconv.Itoa(res.UniqueTitles)),
		metricCard("Listening time", playlog.FormatDuration(res.Durations.Total)),
		metricCard("Avg song", playlog.FormatDuration(int(res.Durations.Mean))),
		metricCard("Sessions", strconv.Itoa(res.Sessions.Count)),
		metricCard("Discarded", strconv.Itoa(res.Discarded)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:4]...)
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[4:]...)
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}

	monthly := make([]float64, 0, len(res.Months))
	for i := len(res.Months) - 1; i >= 0; i-- {
		monthly = append(monthly, float64(res.Months[i].Count))
	}
	var buf bytes.Buffer
	buf.WriteString("Trend: " + stats.Sparkline(monthly) + "\n\n")
	if len(monthly) > 1 {
		title := fmt.Sprintf("Songs per month (%s to %s)", res.Months[len(res.Months)-1].Label, res.Months[0].Label)
		if err := stats.PlotSeriesWithColor(&buf, title, []stats.Series{{Name: "plays", Values: monthly}}, stats.PlotWidthFor(width), plotHeight, true); err != nil {
			return fmt.Sprintf("Failed to render chart: %v", err)
		}
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func renderPatterns(res model.StatisticsResult, width int) string {
	if res.TotalPlays == 0 {
		return "No plays found."
	}
	var buf bytes.Buffer
	_ = stats.BarChart(&buf, sectionStyle.Render("Weekdays"), res.Weekdays, width)
	_ = stats.BarChart(&buf, sectionStyle.Render("Hours"), res.Hours, width)
	_ = stats.BarChart(&buf, sectionStyle.Render("Years"), res.Years, width)
	writeShares(&buf, "Players", res.Players)
	writeShares(&buf, "File formats", res.Formats)
	if len(res.CommentYears) > 0 {
		_ = stats.BarChart(&buf, sectionStyle.Render("Release years from comments"), res.CommentYears, width)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeShares(buf *bytes.Buffer, title string, shares []model.Share) {
	buf.WriteString(sectionStyle.Render(title) + "\n")
	for _, s := range shares {
		fmt.Fprintf(buf, "  %s: %d (%.1f%%)\n", s.Name, s.Count, s.Percent)
	}
	buf.WriteByte('\n')
}

func renderSessions(res model.StatisticsResult, sessions []model.Session) string {
	s := res.Sessions
	if s.Count == 0 {
		return "No sessions found."
	}
	lines := []string{
		sectionStyle.Render("Listening sessions"),
		fmt.Sprintf("Sessions: %d", s.Count),
		fmt.Sprintf("Average length: %s", playlog.FormatDuration(int(s.MeanDuration))),
		fmt.Sprintf("Median length: %s", playlog.FormatDuration(int(s.MedianDuration))),
		fmt.Sprintf("90th percentile: %s", playlog.FormatDuration(int(s.P90Duration))),
		fmt.Sprintf("Longest: %s (span %s)", playlog.FormatDuration(s.MaxDuration), playlog.FormatDuration(s.LongestSpan)),
		fmt.Sprintf("Average songs: %.1f", s.MeanSongs),
		"",
		sectionStyle.Render("Most common start hours"),
	}
	for _, h := range s.TopStartHours {
		lines = append(lines, fmt.Sprintf("  %s:00  %d", h.Label, h.Count))
	}
	lines = append(lines, "", sectionStyle.Render("Most recent sessions"))
	start := max(0, len(sessions)-recentSessions)
	for i := len(sessions) - 1; i >= start; i-- {
		sess := sessions[i]
		lines = append(lines, fmt.Sprintf("  %s  %3d songs  %s",
			sess.Start.Format(time.DateTime), len(sess.Plays), playlog.FormatDuration(sess.DurationSeconds)))
	}
	return strings.Join(lines, "\n")
}

func renderParallel(res model.StatisticsResult, groups []model.ParallelGroup) string {
	p := res.Parallel
	lines := []string{
		fmt.Sprintf("Parallel plays detected: %d", p.Groups),
		fmt.Sprintf("Duplicate entries excluded: %d", p.Excluded),
	}
	if len(groups) > 0 {
		lines = append(lines, "")
	}
	for _, g := range groups {
		lines = append(lines, fmt.Sprintf("'%s' on %s - %d players: %s", g.Title, g.Date, g.Size(), strings.Join(g.Players(), ", ")))
	}
	return strings.Join(lines, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
