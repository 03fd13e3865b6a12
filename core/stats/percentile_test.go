package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentileSkewedTail(t *testing.T) {
	values := []int64{100, 120, 130, 140, 150, 160, 170, 180, 190, 5000}

	assert.Equal(t, 155.0, Percentile(values, 0.50))
	assert.Equal(t, 5000.0, Percentile(values, 0.95))
	assert.Equal(t, 5000.0, Percentile(values, 0.99))
}

func TestPercentileSingleValue(t *testing.T) {
	values := []int64{42}
	assert.Equal(t, 42.0, Percentile(values, 0.50))
	assert.Equal(t, 42.0, Percentile(values, 0.95))
	assert.Equal(t, 42.0, Percentile(values, 0.99))
}

func TestPercentileEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Percentile(nil, 0.50))
}

func TestPercentileUnsortedInput(t *testing.T) {
	values := []int64{300, 100, 200}
	assert.Equal(t, 200.0, Percentile(values, 0.50))
	assert.Equal(t, []int64{300, 100, 200}, values, "input must not be reordered")
}

func TestPercentileOrdering(t *testing.T) {
	values := []int64{5, 1, 9, 3, 7, 2, 8, 4, 6, 10, 11}

	p50 := Percentile(values, 0.50)
	p95 := Percentile(values, 0.95)
	p99 := Percentile(values, 0.99)

	assert.LessOrEqual(t, p50, p95)
	assert.LessOrEqual(t, p95, p99)
	assert.GreaterOrEqual(t, p50, 1.0)
	assert.LessOrEqual(t, p99, 11.0)
}

func TestCountOutliers(t *testing.T) {
	// Nine values near 100 and one far excursion.
	values := []int64{100, 101, 99, 100, 102, 98, 100, 101, 99, 5000}
	assert.Equal(t, 1, countOutliers(values))

	assert.Equal(t, 0, countOutliers([]int64{100, 100, 100}))
	assert.Equal(t, 0, countOutliers([]int64{42}))
}
