package rarefaction

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

var depthSeed = []int{1, 2, 3, 4, 5, 10}

// Depths returns the ascending read depths at which the curve is evaluated
// for a pool of total reads: 1..5, then each of the last five values times
// ten until past total, truncated below total, and finally total itself.
func Depths(total int) ([]int, error) {
	if total < 1 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("total read count must be positive, got %d", total))
	}
	seq := append([]int(nil), depthSeed...)
grow:
	for {
		tail := append([]int(nil), seq[len(seq)-5:]...)
		for _, x := range tail {
			// x*10 > total, and so is everything after it.
			if x > total/10 {
				break grow
			}
			seq = append(seq, x*10)
		}
	}
	depths := make([]int, 0, len(seq)+1)
	for _, x := range seq {
		if x < total {
			depths = append(depths, x)
		}
	}
	return append(depths, total), nil
}
