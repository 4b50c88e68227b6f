// Package rarefaction estimates how many distinct categories (genes or
// transcripts) a sample would reveal as a function of sequencing depth, by
// repeatedly subsampling random permutations of the observed reads.
package rarefaction

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Category identifies an interned label within a Pool. The zero value None
// marks a read that does not qualify; it still occupies a slot so depth
// accounting includes it.
type Category int32

const None Category = 0

// Pool is the immutable observation pool: one Category per read.
type Pool struct {
	reads []Category
	names []string // names[c-1] is the label of category c
}

// Len returns the total number of reads, including null reads.
func (p *Pool) Len() int { return len(p.reads) }

// NumCategories returns the number of distinct labels in the pool.
func (p *Pool) NumCategories() int { return len(p.names) }

// Name returns the label for c, or "" for None.
func (p *Pool) Name(c Category) string {
	if c == None {
		return ""
	}
	return p.names[c-1]
}

// Distinct returns the number of categories seen at least minDepth times in
// the whole pool.
func (p *Pool) Distinct(minDepth int) int {
	counts := make([]int, len(p.names)+1)
	for _, c := range p.reads {
		counts[c]++
	}
	n := 0
	for _, k := range counts[1:] {
		if k >= minDepth {
			n++
		}
	}
	return n
}

// PoolBuilder interns read labels in arrival order. The empty label is
// treated as null.
type PoolBuilder struct {
	index map[string]Category
	names []string
	reads []Category
}

func NewPoolBuilder() *PoolBuilder {
	return &PoolBuilder{index: make(map[string]Category)}
}

// Add appends one read with the given label.
func (b *PoolBuilder) Add(label string) {
	if label == "" {
		b.AddNull()
		return
	}
	c, ok := b.index[label]
	if !ok {
		b.names = append(b.names, label)
		c = Category(len(b.names))
		b.index[label] = c
	}
	b.reads = append(b.reads, c)
}

// AddNull appends one read that does not qualify.
func (b *PoolBuilder) AddNull() {
	b.reads = append(b.reads, None)
}

// Len returns the number of reads added so far.
func (b *PoolBuilder) Len() int { return len(b.reads) }

// Build returns the pool. If totalReadCount is positive the pool is padded
// with null reads up to that size; more reads than totalReadCount is an
// error. The builder must not be used afterwards.
func (b *PoolBuilder) Build(totalReadCount int) (*Pool, error) {
	if totalReadCount < 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("negative read count %d", totalReadCount))
	}
	if totalReadCount > 0 {
		if len(b.reads) > totalReadCount {
			return nil, errors.E(errors.Invalid,
				fmt.Sprintf("can't have a read count (%d) greater than the original read count (%d)", len(b.reads), totalReadCount))
		}
		for len(b.reads) < totalReadCount {
			b.reads = append(b.reads, None)
		}
	}
	p := &Pool{reads: b.reads, names: b.names}
	b.reads, b.names, b.index = nil, nil, nil
	return p, nil
}
