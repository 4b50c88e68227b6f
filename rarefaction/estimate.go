package rarefaction

import (
	"fmt"
	"sort"

	"github.com/eernst/rarefy/seqmath"
	"github.com/grailbio/base/errors"
)

const (
	lowerPercentile = 0.05
	upperPercentile = 0.95
)

// Point is the estimate for one depth: the number of distinct qualifying
// categories across all trials, reduced to rank percentile bounds and the
// median. Mean and StdDev describe the same per-trial counts.
type Point struct {
	Depth  int
	Lower  float64
	Median float64
	Upper  float64
	Mean   float64
	StdDev float64
}

// DepthError reports a failure to estimate a single depth.
type DepthError struct {
	Depth int
	Err   error
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("depth %d: %v", e.Depth, e.Err)
}

func (e *DepthError) Unwrap() error { return e.Err }

// counter counts category occurrences in a trial prefix and resets in time
// proportional to the categories it touched.
type counter struct {
	counts  []int
	touched []Category
}

func newCounter(numCategories int) *counter {
	return &counter{counts: make([]int, numCategories+1)}
}

// qualifying returns the number of non-null categories occurring at least
// minDepth times in reads.
func (c *counter) qualifying(reads []Category, minDepth int) (int, error) {
	defer c.reset()
	n := 0
	for i, cat := range reads {
		if cat == None {
			continue
		}
		if cat < 0 || int(cat) >= len(c.counts) {
			return 0, errors.E(errors.Integrity, fmt.Sprintf("read %d has unknown category %d", i, cat))
		}
		if c.counts[cat] == 0 {
			c.touched = append(c.touched, cat)
		}
		c.counts[cat]++
		if c.counts[cat] == minDepth {
			n++
		}
	}
	return n, nil
}

func (c *counter) reset() {
	for _, cat := range c.touched {
		c.counts[cat] = 0
	}
	c.touched = c.touched[:0]
}

// EstimateDepth computes the Point for depth from the first depth reads of
// every trial. A depth beyond the trial length uses the whole trial.
// numCategories bounds the category ids a trial may contain; an id outside
// it yields a *DepthError.
func EstimateDepth(depth int, trials []Trial, minDepth, numCategories int) (Point, error) {
	if err := checkEstimate(minDepth, trials); err != nil {
		return Point{}, err
	}
	return estimateDepth(depth, trials, minDepth, newCounter(numCategories))
}

func checkMinDepth(minDepth int) error {
	if minDepth < 1 {
		return errors.E(errors.Invalid, fmt.Sprintf("min depth must be at least 1, got %d", minDepth))
	}
	return nil
}

func checkEstimate(minDepth int, trials []Trial) error {
	if err := checkMinDepth(minDepth); err != nil {
		return err
	}
	if len(trials) == 0 {
		return errors.E(errors.Invalid, "no trials to estimate from")
	}
	return nil
}

func estimateDepth(depth int, trials []Trial, minDepth int, c *counter) (Point, error) {
	counts := make([]int, len(trials))
	for j, trial := range trials {
		prefix := trial
		if depth < len(prefix) {
			prefix = prefix[:depth]
		}
		n, err := c.qualifying(prefix, minDepth)
		if err != nil {
			return Point{}, &DepthError{Depth: depth, Err: errors.E(err, fmt.Sprintf("trial %d", j))}
		}
		counts[j] = n
	}
	sort.Ints(counts)
	sum := seqmath.Summarize(counts)
	return Point{
		Depth:  depth,
		Lower:  seqmath.RankPercentile(counts, lowerPercentile),
		Median: seqmath.Median(counts),
		Upper:  seqmath.RankPercentile(counts, upperPercentile),
		Mean:   sum.Mean,
		StdDev: sum.StdDev,
	}, nil
}
