package statsui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/squeezestats/internal/model"
)

const (
	rankColWidth  = 4
	countColWidth = 6
	minNameWidth  = 12
)

var rankTitles = map[int]string{
	rankSongs:   "Top songs",
	rankArtists: "Top artists",
	rankAlbums:  "Top albums (counted once per continuous run)",
}

func newRankTable() table.Model {
	t := table.New(table.WithHeight(1))
	t.SetStyles(rankTableStyles())
	return t
}

// applyRankTable fills the table with the selected ranking, splitting the
// free width between the name and artist columns.
func (m *Model) applyRankTable() {
	res := m.outcome.Result
	var items []model.RankedItem
	withArtist := true
	switch m.rankKind {
	case rankArtists:
		items = res.TopArtists
		withArtist = false
	case rankAlbums:
		items = res.TopAlbums
	default:
		items = res.TopSongs
	}

	width := m.width
	if width <= 0 {
		width = defaultViewWidth
	}
	// Each column carries one cell of padding on the right.
	free := max(minNameWidth, width-rankColWidth-countColWidth-6)
	nameWidth, artistWidth := free, 0
	if withArtist {
		nameWidth = max(minNameWidth, free*3/5)
		artistWidth = max(minNameWidth, free-nameWidth)
	}

	cols := []table.Column{
		{Title: "#", Width: rankColWidth},
		{Title: "Name", Width: nameWidth},
	}
	if withArtist {
		cols = append(cols, table.Column{Title: "Artist", Width: artistWidth})
	}
	cols = append(cols, table.Column{Title: "Plays", Width: countColWidth})

	rows := make([]table.Row, 0, len(items))
	for i, it := range items {
		row := table.Row{strconv.Itoa(i + 1), it.Name}
		if withArtist {
			row = append(row, it.Artist)
		}
		rows = append(rows, append(row, strconv.Itoa(it.Count)))
	}
	// Rows must be cleared first: the old rows may have more cells than the
	// new columns.
	m.rankTable.SetRows(nil)
	m.rankTable.SetColumns(cols)
	m.rankTable.SetRows(rows)
	m.rankTable.GotoTop()
}

func rankTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#3A3A3A")).
		Bold(false)
	return styles
}
