package rarefaction

import (
	"fmt"
	"math/rand/v2"

	"github.com/eernst/rarefy/pipeline"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

const (
	DefaultSamplesPerXval = 1000
	DefaultMinDepth       = 1
)

// Options configures Estimate.
type Options struct {
	// SamplesPerXval is the number of permutations evaluated at every depth.
	SamplesPerXval int
	// MinDepth is the number of occurrences a category needs at a depth to
	// count as observed.
	MinDepth int
	// Parallelism bounds the workers used by both the sampling and the
	// estimation phase.
	Parallelism int
	// Seed seeds the permutations. Zero picks a random seed, which is
	// recorded in the returned Curve.
	Seed uint64
}

// Curve is a rarefaction curve. Points and Failures are both ordered by
// depth; a depth appears in exactly one of them.
type Curve struct {
	Seed     uint64
	Points   []Point
	Failures []*DepthError
}

// Err summarizes the failed depths, or returns nil if every depth succeeded.
func (c *Curve) Err() error {
	switch len(c.Failures) {
	case 0:
		return nil
	case 1:
		return c.Failures[0]
	}
	return errors.E(errors.Integrity, fmt.Sprintf("%d depths failed, first: %v", len(c.Failures), c.Failures[0]))
}

func (o Options) validate() error {
	if o.SamplesPerXval < 1 {
		return errors.E(errors.Invalid, fmt.Sprintf("samples per depth must be positive, got %d", o.SamplesPerXval))
	}
	return checkMinDepth(o.MinDepth)
}

// Estimate computes the rarefaction curve of pool. Invalid options or an
// empty pool fail before any sampling is done.
func Estimate(pool *Pool, opts Options) (*Curve, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	depths, err := Depths(pool.Len())
	if err != nil {
		return nil, err
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64() | 1
	}
	log.Debug.Printf("rarefaction: %d reads, %d categories, %d depths, %d samples per depth, seed %d",
		pool.Len(), pool.NumCategories(), len(depths), opts.SamplesPerXval, opts.Seed)

	sampler := Sampler{Seed: opts.Seed, Parallelism: opts.Parallelism}
	trials, err := sampler.Trials(pool, opts.SamplesPerXval)
	if err != nil {
		return nil, err
	}
	curve, err := Assemble(depths, trials, opts.MinDepth, pool.NumCategories(), opts.Parallelism)
	if err != nil {
		return nil, err
	}
	curve.Seed = opts.Seed
	return curve, nil
}

type depthJob struct {
	index, depth int
}

type depthOutcome struct {
	index int
	point Point
	err   error
}

func estimateDepths(jobs <-chan depthJob, trials []Trial, minDepth, numCategories int) <-chan depthOutcome {
	out := make(chan depthOutcome)
	go func() {
		c := newCounter(numCategories)
		for job := range jobs {
			p, err := estimateDepth(job.depth, trials, minDepth, c)
			out <- depthOutcome{index: job.index, point: p, err: err}
		}
		close(out)
	}()
	return out
}

// Assemble evaluates every depth against the shared trials on up to
// parallelism workers and collects the results in depth order. A failure at
// one depth is recorded in Curve.Failures and does not affect the others.
// A minDepth below 1 or an empty trial set fails before any depth is
// evaluated.
func Assemble(depths []int, trials []Trial, minDepth, numCategories, parallelism int) (*Curve, error) {
	if err := checkEstimate(minDepth, trials); err != nil {
		return nil, err
	}
	if parallelism < 1 {
		parallelism = 1
	}
	if parallelism > len(depths) {
		parallelism = len(depths)
	}
	jobs := make([]depthJob, len(depths))
	for i, d := range depths {
		jobs[i] = depthJob{index: i, depth: d}
	}
	inStream := pipeline.Channel(jobs)
	workers := make([]<-chan depthOutcome, parallelism)
	for w := range workers {
		workers[w] = estimateDepths(inStream, trials, minDepth, numCategories)
	}

	outcomes := make([]depthOutcome, len(depths))
	for o := range pipeline.Merge(workers...) {
		outcomes[o.index] = o
	}

	curve := &Curve{Points: make([]Point, 0, len(depths))}
	for i, o := range outcomes {
		if o.err != nil {
			de, ok := o.err.(*DepthError)
			if !ok {
				de = &DepthError{Depth: depths[i], Err: o.err}
			}
			log.Error.Printf("rarefaction: %v", de)
			curve.Failures = append(curve.Failures, de)
			continue
		}
		curve.Points = append(curve.Points, o.point)
		log.Debug.Printf("rarefaction: depth %d: %v %v %v", o.point.Depth, o.point.Lower, o.point.Median, o.point.Upper)
	}
	return curve, nil
}
