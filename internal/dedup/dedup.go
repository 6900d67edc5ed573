// Package dedup collapses parallel plays: the same title logged at the same
// raw timestamp by several synchronized players.
package dedup

import "github.com/verte-zerg/squeezestats/internal/model"

type groupKey struct {
	title string
	date  string
}

// Result is the outcome of deduplication.
type Result struct {
	// Plays keeps input order, with each parallel group represented by its
	// first member at that member's position.
	Plays []model.Play
	// Groups lists only groups of two or more, in order of first appearance.
	Groups []model.ParallelGroup
	// Excluded is the number of plays dropped as duplicates.
	Excluded int
}

// Deduplicate groups plays by exact (title, raw date) and keeps the first of
// each group. Plays without a title or date are never grouped.
func Deduplicate(plays []model.Play) Result {
	index := make(map[groupKey]int)
	var groups []model.ParallelGroup
	for _, p := range plays {
		if p.Title == "" || p.Date == "" {
			continue
		}
		key := groupKey{title: p.Title, date: p.Date}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, model.ParallelGroup{Title: p.Title, Date: p.Date})
		}
		groups[i].Plays = append(groups[i].Plays, p)
	}

	res := Result{Plays: make([]model.Play, 0, len(plays))}
	emitted := make(map[groupKey]bool, len(groups))
	for _, p := range plays {
		if p.Title == "" || p.Date == "" {
			res.Plays = append(res.Plays, p)
			continue
		}
		key := groupKey{title: p.Title, date: p.Date}
		if emitted[key] {
			continue
		}
		emitted[key] = true
		res.Plays = append(res.Plays, p)
	}

	for _, g := range groups {
		if g.Size() < 2 {
			continue
		}
		res.Groups = append(res.Groups, g)
		res.Excluded += g.Size() - 1
	}
	return res
}
