// Package model defines shared data structures.
package model

import "time"

// DefaultTopCount is the number of entries kept in every top-N ranking.
const DefaultTopCount = 10

// SessionGap is the largest start-to-start gap between two plays of one session.
const SessionGap = 1800 * time.Second

// Options defines the filters and limits for one analysis run.
type Options struct {
	YearFilter string `json:"year_filter,omitempty"`
	Search     string `json:"search,omitempty"`
	TopCount   int    `json:"top_count" validate:"min=1"`
}

// RawRecord is one <song> element as found in a log document.
// Empty strings mean the child element was missing or empty.
type RawRecord struct {
	Artist       string
	Album        string
	Title        string
	ShortTitle   string
	Date         string
	DurationText string
	PlayerName   string
	PlayerID     string
	Path         string
	Comment      string
	Time         string
	GUID         string

	// DurationSeconds is only meaningful when HasDuration is set.
	DurationSeconds int
	HasDuration     bool
	FileFormat      string
	// CommentYear is zero when the comment carries no 19xx/20xx year.
	CommentYear int

	Source string
}

// Fields returns the populated textual fields, used for search matching.
func (r RawRecord) Fields() []string {
	all := []string{
		r.Artist, r.Album, r.Title, r.ShortTitle, r.Date, r.DurationText,
		r.PlayerName, r.PlayerID, r.Path, r.Comment, r.Time, r.GUID,
	}
	out := all[:0]
	for _, v := range all {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Play is a record that passed validation and carries a parsed timestamp.
type Play struct {
	RawRecord
	PlayedAt time.Time
}

// Duration returns the play length.
func (p Play) Duration() time.Duration {
	return time.Duration(p.DurationSeconds) * time.Second
}

// EndsAt returns the timestamp at which the play finished.
func (p Play) EndsAt() time.Time {
	return p.PlayedAt.Add(p.Duration())
}

// ParallelGroup collects plays sharing the same title and raw date string.
type ParallelGroup struct {
	Title string
	Date  string
	Plays []Play
}

// Size returns the number of plays in the group.
func (g ParallelGroup) Size() int {
	return len(g.Plays)
}

// Players lists the player names of the group members in input order.
func (g ParallelGroup) Players() []string {
	out := make([]string, len(g.Plays))
	for i, p := range g.Plays {
		out[i] = p.PlayerName
	}
	return out
}

// Session is a maximal run of plays without a gap above SessionGap.
type Session struct {
	Plays []Play
	Start time.Time
	End   time.Time
	// DurationSeconds is the sum of member play durations.
	DurationSeconds int
}

// Span returns the wall-clock time from the first start to the last end.
func (s Session) Span() time.Duration {
	return s.End.Sub(s.Start)
}

// RankedItem is one entry of a top-N ranking.
type RankedItem struct {
	Name   string `json:"name"`
	Artist string `json:"artist,omitempty"`
	Count  int    `json:"count"`
}

// Bucket is one histogram slot.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Share is a breakdown entry with its percentage of all plays.
type Share struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// DurationStats summarizes play lengths in seconds.
type DurationStats struct {
	Total  int     `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	P90    float64 `json:"p90"`
}

// SessionStats summarizes listening sessions. Durations are in seconds.
type SessionStats struct {
	Count          int      `json:"count"`
	MeanDuration   float64  `json:"mean_duration"`
	MedianDuration float64  `json:"median_duration"`
	MaxDuration    int      `json:"max_duration"`
	P90Duration    float64  `json:"p90_duration"`
	LongestSpan    int      `json:"longest_span"`
	MeanSongs      float64  `json:"mean_songs"`
	TopStartHours  []Bucket `json:"top_start_hours"`
}

// ParallelExample describes one parallel-play group for reporting.
type ParallelExample struct {
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Players []string `json:"players"`
	Count   int      `json:"count"`
}

// ParallelStats reports parallel-play deduplication.
type ParallelStats struct {
	Groups   int               `json:"groups"`
	Excluded int               `json:"excluded"`
	Examples []ParallelExample `json:"examples"`
}

// StatisticsResult is the complete output of one analysis run.
type StatisticsResult struct {
	YearFilter string `json:"year_filter,omitempty"`
	Search     string `json:"search,omitempty"`
	TopCount   int    `json:"top_count"`

	TotalPlays    int `json:"total_plays"`
	UniqueArtists int `json:"unique_artists"`
	UniqueAlbums  int `json:"unique_albums"`
	UniqueTitles  int `json:"unique_titles"`

	TopArtists []RankedItem `json:"top_artists"`
	TopAlbums  []RankedItem `json:"top_albums"`
	TopSongs   []RankedItem `json:"top_songs"`

	Months   []Bucket `json:"months"`
	Years    []Bucket `json:"years"`
	Weekdays []Bucket `json:"weekdays"`
	Hours    []Bucket `json:"hours"`

	Formats []Share `json:"formats"`
	Players []Share `json:"players"`

	Durations    DurationStats `json:"durations"`
	Sessions     SessionStats  `json:"sessions"`
	CommentYears []Bucket      `json:"comment_years"`
	Parallel     ParallelStats `json:"parallel"`

	Discarded int `json:"discarded"`
}
