// Package percentile computes mid-rank percentiles of a value within a
// cohort distribution.
package percentile

import (
	"math"
	"sort"
)

const (
	minPercentile = 0.0
	maxPercentile = 100.0
	tieWeight     = 0.5
)

// Distribution is an immutable ascending-sorted cohort sample.
type Distribution struct {
	sorted []float64
}

// NewDistribution copies and sorts values.
func NewDistribution(values []float64) Distribution {
	cp := make([]float64, len(values))
	copy(cp, values)
	sort.Float64s(cp)
	return Distribution{sorted: cp}
}

// Len returns the cohort size.
func (d Distribution) Len() int {
	return len(d.sorted)
}

// Rank returns the raw mid-rank percentile of v: values below v count fully,
// values equal to v count half. Tied values therefore share a percentile.
func (d Distribution) Rank(v float64) float64 {
	n := len(d.sorted)
	if n == 0 {
		return 0
	}
	lower := sort.SearchFloat64s(d.sorted, v)
	upper := sort.Search(n, func(i int) bool { return d.sorted[i] > v })
	return ((float64(lower) + tieWeight*float64(upper-lower)) / float64(n)) * maxPercentile
}

// Percentile returns the oriented percentile of v, where 100 always means
// best. For lower-is-better values the raw rank is flipped.
func (d Distribution) Percentile(v float64, higherBetter bool) float64 {
	if len(d.sorted) == 0 {
		return 0
	}
	p := d.Rank(v)
	if !higherBetter {
		p = maxPercentile - p
	}
	return clamp(p)
}

// Median returns the middle value, or the mean of the two middle values for
// an even-sized cohort. An empty distribution has median 0.
func (d Distribution) Median() float64 {
	n := len(d.sorted)
	if n == 0 {
		return 0
	}
	mid := n / 2
	if n%2 == 1 {
		return d.sorted[mid]
	}
	return (d.sorted[mid-1] + d.sorted[mid]) / 2
}

func clamp(p float64) float64 {
	if math.IsNaN(p) {
		return minPercentile
	}
	return math.Max(minPercentile, math.Min(maxPercentile, p))
}
