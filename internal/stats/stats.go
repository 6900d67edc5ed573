// Package stats contains statistics calculations and reporting.
package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/influxdata/tdigest"
)

const (
	sparkChars        = " .:-=+*#%@"
	digestCompression = 100
)

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}

// Median returns the sample median; even-sized inputs average the middle pair.
func Median(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}

// MinMax returns the smallest and largest value, or zeros for no values.
func MinMax(values []int) (int, int) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Sum adds all values.
func Sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

// Quantile estimates the q-quantile with a t-digest, clamped to the
// observed range. It returns 0 for no values.
func Quantile(values []int, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	td := tdigest.NewWithCompression(digestCompression)
	for _, v := range values {
		td.Add(float64(v), 1)
	}
	est := td.Quantile(q)
	lo, hi := MinMax(values)
	if math.IsNaN(est) {
		return 0
	}
	return math.Max(float64(lo), math.Min(float64(hi), est))
}

// Percent returns part as a percentage of total, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
