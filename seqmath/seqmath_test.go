package seqmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	for _, test := range []struct {
		in   []int
		want float64
	}{
		{[]int{7}, 7},
		{[]int{1, 2}, 1.5},
		{[]int{1, 2, 9}, 2},
		{[]int{0, 0, 1, 1}, 0.5},
		{[]int{2, 2, 2, 2, 2}, 2},
	} {
		assert.Equal(t, test.want, Median(test.in), "Median(%v)", test.in)
	}
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestRankPercentile(t *testing.T) {
	sorted := make([]int, 100)
	for i := range sorted {
		sorted[i] = i * 10
	}
	assert.Equal(t, 50.0, RankPercentile(sorted, 0.05))
	assert.Equal(t, 950.0, RankPercentile(sorted, 0.95))
	assert.Equal(t, 990.0, RankPercentile(sorted, 1))
	assert.Equal(t, 0.0, RankPercentile(sorted, 0))

	// Small samples pick the same element for both bounds.
	assert.Equal(t, 4.0, RankPercentile([]int{4}, 0.05))
	assert.Equal(t, 4.0, RankPercentile([]int{4}, 0.95))
	assert.Equal(t, 3.0, RankPercentile([]int{1, 2, 3}, 0.95))

	assert.Panics(t, func() { RankPercentile(sorted, 1.5) })
	assert.True(t, math.IsNaN(RankPercentile(nil, 0.5)))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]int{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 5.0, s.Mean)
	assert.InDelta(t, 2.138, s.StdDev, 1e-3)

	s = Summarize([]int{3})
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 0.0, s.StdDev)
}
