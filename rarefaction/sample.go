package rarefaction

import (
	"fmt"
	"math/rand/v2"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// Trial is one owned random permutation of a Pool.
type Trial []Category

// Sampler draws independent random permutations of a pool.
//
// Trial i is shuffled with its own PCG source seeded by (Seed, i), so the
// trials depend only on the pool, the trial count and Seed; the number of
// workers changes the wall-clock time and nothing else.
type Sampler struct {
	Seed        uint64
	Parallelism int
}

// Shuffle returns a uniformly random permutation of the pool. The result
// never shares storage with the pool.
func Shuffle(pool *Pool, r *rand.Rand) Trial {
	t := make(Trial, len(pool.reads))
	copy(t, pool.reads)
	r.Shuffle(len(t), func(i, j int) { t[i], t[j] = t[j], t[i] })
	return t
}

// Trials returns n independent permutations of the pool.
func (s Sampler) Trials(pool *Pool, n int) ([]Trial, error) {
	if n < 1 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("samples per depth must be positive, got %d", n))
	}
	parallelism := s.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	if parallelism > n {
		parallelism = n
	}
	trials := make([]Trial, n)
	log.Debug.Printf("sampling %d permutations of %d reads on %d workers", n, pool.Len(), parallelism)
	err := traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * n) / parallelism
		endIdx := ((jobIdx + 1) * n) / parallelism
		for i := startIdx; i < endIdx; i++ {
			trials[i] = Shuffle(pool, rand.New(rand.NewPCG(s.Seed, uint64(i))))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trials, nil
}
