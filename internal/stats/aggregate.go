package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/verte-zerg/squeezestats/internal/model"
	"github.com/verte-zerg/squeezestats/internal/session"
)

const (
	maxParallelExamples = 5
	maxStartHours       = 5
)

// weekdayOrder lists weekdays Monday first.
var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Input carries everything the aggregator needs from the earlier stages.
type Input struct {
	Plays     session.TimeOrdered
	Sessions  []model.Session
	Groups    []model.ParallelGroup
	Excluded  int
	Discarded int

	YearLabel string
	Search    string
	TopCount  int
}

type titleKey struct {
	title  string
	artist string
}

// Aggregate computes the statistics result. It never fails: empty input
// yields zero values and empty lists.
func Aggregate(in Input) model.StatisticsResult {
	top := in.TopCount
	if top <= 0 {
		top = model.DefaultTopCount
	}
	plays := in.Plays.Plays()
	res := model.StatisticsResult{
		YearFilter: in.YearLabel,
		Search:     in.Search,
		TopCount:   top,
		TotalPlays: len(plays),
		Discarded:  in.Discarded,
	}

	artists := newTally[string]()
	albums := newTally[titleKey]()
	songs := newTally[titleKey]()
	uniqueAlbums := map[string]struct{}{}
	uniqueTitles := map[string]struct{}{}
	months := newTally[string]()
	years := newTally[string]()
	hours := newTally[int]()
	weekdays := map[time.Weekday]int{}
	formats := newTally[string]()
	players := newTally[string]()
	commentYears := newTally[int]()
	durations := make([]int, 0, len(plays))

	lastAlbum := ""
	for _, p := range plays {
		if p.Artist != "" {
			artists.add(p.Artist)
		}
		// An album counts once per unbroken run of its tracks.
		if p.Album != "" {
			uniqueAlbums[p.Album] = struct{}{}
			if p.Album != lastAlbum {
				albums.add(titleKey{title: p.Album, artist: p.Artist})
				lastAlbum = p.Album
			}
		}
		if p.Title != "" {
			uniqueTitles[p.Title] = struct{}{}
			songs.add(titleKey{title: p.Title, artist: p.Artist})
		}
		months.add(p.PlayedAt.Format("2006-01"))
		years.add(p.PlayedAt.Format("2006"))
		hours.add(p.PlayedAt.Hour())
		weekdays[p.PlayedAt.Weekday()]++
		formats.add(p.FileFormat)
		if p.PlayerName != "" {
			players.add(p.PlayerName)
		}
		if p.CommentYear != 0 {
			commentYears.add(p.CommentYear)
		}
		durations = append(durations, p.DurationSeconds)
	}

	res.UniqueArtists = artists.size()
	res.UniqueAlbums = len(uniqueAlbums)
	res.UniqueTitles = len(uniqueTitles)

	res.TopArtists = rankNames(artists.top(top))
	res.TopAlbums = rankTitles(albums.top(top))
	res.TopSongs = rankTitles(songs.top(top))

	res.Months = labelsDescending(months)
	res.Years = labelsDescending(years)
	res.Weekdays = weekdayBuckets(weekdays)
	res.Hours = hourBuckets(hours)

	res.Formats = shares(formats, len(plays))
	res.Players = shares(players, len(plays))

	res.Durations = durationStats(durations)
	res.Sessions = sessionStats(in.Sessions)
	res.CommentYears = yearBuckets(commentYears)
	res.Parallel = parallelStats(in.Groups, in.Excluded)
	return res
}

func rankNames(items []ranked[string]) []model.RankedItem {
	out := make([]model.RankedItem, 0, len(items))
	for _, it := range items {
		out = append(out, model.RankedItem{Name: it.key, Count: it.count})
	}
	return out
}

func rankTitles(items []ranked[titleKey]) []model.RankedItem {
	out := make([]model.RankedItem, 0, len(items))
	for _, it := range items {
		out = append(out, model.RankedItem{Name: it.key.title, Artist: it.key.artist, Count: it.count})
	}
	return out
}

// labelsDescending sorts zero-padded date labels newest first.
func labelsDescending(t *tally[string]) []model.Bucket {
	out := make([]model.Bucket, 0, t.size())
	for _, label := range t.order {
		out = append(out, model.Bucket{Label: label, Count: t.counts[label]})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Label > out[j].Label
	})
	return out
}

func weekdayBuckets(counts map[time.Weekday]int) []model.Bucket {
	out := make([]model.Bucket, 0, len(weekdayOrder))
	for _, wd := range weekdayOrder {
		out = append(out, model.Bucket{Label: wd.String(), Count: counts[wd]})
	}
	return out
}

func hourBuckets(t *tally[int]) []model.Bucket {
	hours := append([]int(nil), t.order...)
	sort.Ints(hours)
	out := make([]model.Bucket, 0, len(hours))
	for _, h := range hours {
		out = append(out, model.Bucket{Label: fmt.Sprintf("%02d", h), Count: t.counts[h]})
	}
	return out
}

func yearBuckets(t *tally[int]) []model.Bucket {
	years := append([]int(nil), t.order...)
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	out := make([]model.Bucket, 0, len(years))
	for _, y := range years {
		out = append(out, model.Bucket{Label: fmt.Sprintf("%d", y), Count: t.counts[y]})
	}
	return out
}

func shares(t *tally[string], total int) []model.Share {
	items := t.top(0)
	out := make([]model.Share, 0, len(items))
	for _, it := range items {
		out = append(out, model.Share{Name: it.key, Count: it.count, Percent: Percent(it.count, total)})
	}
	return out
}

func durationStats(values []int) model.DurationStats {
	lo, hi := MinMax(values)
	return model.DurationStats{
		Total:  Sum(values),
		Mean:   Mean(values),
		Median: Median(values),
		Min:    lo,
		Max:    hi,
		P90:    Quantile(values, 0.9),
	}
}

func sessionStats(sessions []model.Session) model.SessionStats {
	st := model.SessionStats{Count: len(sessions), TopStartHours: []model.Bucket{}}
	if len(sessions) == 0 {
		return st
	}
	durations := make([]int, 0, len(sessions))
	starts := newTally[int]()
	songs := 0
	for _, s := range sessions {
		durations = append(durations, s.DurationSeconds)
		songs += len(s.Plays)
		starts.add(s.Start.Hour())
		if span := int(s.Span() / time.Second); span > st.LongestSpan {
			st.LongestSpan = span
		}
	}
	_, st.MaxDuration = MinMax(durations)
	st.MeanDuration = Mean(durations)
	st.MedianDuration = Median(durations)
	st.P90Duration = Quantile(durations, 0.9)
	st.MeanSongs = float64(songs) / float64(len(sessions))
	for _, it := range starts.top(maxStartHours) {
		st.TopStartHours = append(st.TopStartHours, model.Bucket{Label: fmt.Sprintf("%02d", it.key), Count: it.count})
	}
	return st
}

func parallelStats(groups []model.ParallelGroup, excluded int) model.ParallelStats {
	st := model.ParallelStats{Groups: len(groups), Excluded: excluded, Examples: []model.ParallelExample{}}
	for i, g := range groups {
		if i == maxParallelExamples {
			break
		}
		st.Examples = append(st.Examples, model.ParallelExample{
			Title:   g.Title,
			Date:    g.Date,
			Players: g.Players(),
			Count:   g.Size(),
		})
	}
	return st
}
