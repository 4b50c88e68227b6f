package seqmath

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"
)

// Median returns the standard median of an ascending slice: the middle value
// for an odd length, the mean of the two middle values for an even length.
func Median(sorted []int) (median float64) {
	var n = len(sorted)

	switch {
	case n == 0:
		return math.NaN()
	case n&1 == 1:
		return float64(sorted[n/2])
	default:
		return (float64(sorted[n/2-1]) + float64(sorted[n/2])) / 2
	}
}

// RankPercentile returns sorted[floor(p*n)], the non-interpolated percentile
// used for the lower and upper bounds of a rarefaction point.
func RankPercentile(sorted []int, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if p < 0 || p > 1 {
		panic(fmt.Sprintf("Percentile %v out of bounds [0,1]", p))
	}
	rank := int(float64(len(sorted)) * p)
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return float64(sorted[rank])
}

// Summary holds the moments of a sample of counts.
type Summary struct {
	Mean   float64
	StdDev float64
}

func Summarize(counts []int) Summary {
	sample := stats.Sample{Xs: make([]float64, len(counts))}
	for i, c := range counts {
		sample.Xs[i] = float64(c)
	}
	sum := Summary{Mean: sample.Mean()}
	if len(counts) > 1 {
		sum.StdDev = sample.StdDev()
	}
	return sum
}
