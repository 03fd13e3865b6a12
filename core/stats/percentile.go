package stats

import (
	"math"
	"sort"
)

// Percentile returns the pth percentile (0 < p <= 1) of values using
// nearest-rank selection: the value at rank ceil(p*n) in the sorted input.
// When p*n lands exactly on an integer rank the result is the midpoint of
// that rank and the next, so the median of an even-sized set is the usual
// average of the two middle values. The input slice is not modified.
func Percentile(values []int64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]int64, n)
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	pos := p * float64(n)
	rank := int(math.Ceil(pos))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	if pos == math.Trunc(pos) && rank < n {
		return (float64(sorted[rank-1]) + float64(sorted[rank])) / 2
	}
	return float64(sorted[rank-1])
}

// summarize computes min, max and mean over values. Values must be non-empty.
func summarize(values []int64) (minV, maxV int64, avg float64) {
	minV, maxV = values[0], values[0]
	var sum int64
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		sum += v
	}
	return minV, maxV, float64(sum) / float64(len(values))
}

// countOutliers counts values more than two standard deviations from the mean.
func countOutliers(values []int64) int {
	if len(values) < 2 {
		return 0
	}
	_, _, mean := summarize(values)
	var variance float64
	for _, v := range values {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(values))
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}
	var outliers int
	for _, v := range values {
		if math.Abs(float64(v)-mean) > 2*stddev {
			outliers++
		}
	}
	return outliers
}
