package stats

import "sort"

// tally counts keys and remembers the order in which each key first appeared.
type tally[K comparable] struct {
	order  []K
	counts map[K]int
}

func newTally[K comparable]() *tally[K] {
	return &tally[K]{counts: map[K]int{}}
}

func (t *tally[K]) add(k K) {
	if _, ok := t.counts[k]; !ok {
		t.order = append(t.order, k)
	}
	t.counts[k]++
}

func (t *tally[K]) size() int {
	return len(t.order)
}

type ranked[K comparable] struct {
	key   K
	count int
}

// top returns up to n keys by descending count; ties keep first-seen order.
// n <= 0 returns every key.
func (t *tally[K]) top(n int) []ranked[K] {
	items := make([]ranked[K], 0, len(t.order))
	for _, k := range t.order {
		items = append(items, ranked[K]{key: k, count: t.counts[k]})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].count > items[j].count
	})
	if n > 0 && n < len(items) {
		items = items[:n]
	}
	return items
}
