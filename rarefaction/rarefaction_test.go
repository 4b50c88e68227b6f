package rarefaction

import (
	stderrors "errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepths(t *testing.T) {
	for _, test := range []struct {
		total int
		want  []int
	}{
		{1, []int{1}},
		{2, []int{1, 2}},
		{5, []int{1, 2, 3, 4, 5}},
		{7, []int{1, 2, 3, 4, 5, 7}},
		{10, []int{1, 2, 3, 4, 5, 10}},
		{23, []int{1, 2, 3, 4, 5, 10, 20, 23}},
		{100, []int{1, 2, 3, 4, 5, 10, 20, 30, 40, 50, 100}},
		{1234, []int{1, 2, 3, 4, 5, 10, 20, 30, 40, 50, 100, 200, 300, 400, 500, 1000, 1234}},
	} {
		got, err := Depths(test.total)
		require.NoError(t, err)
		assert.Equal(t, test.want, got, "total %d", test.total)
	}
}

func TestDepthsShape(t *testing.T) {
	for total := 1; total <= 5000; total++ {
		got, err := Depths(total)
		require.NoError(t, err)
		require.Equal(t, 1, got[0])
		require.Equal(t, total, got[len(got)-1])
		for i := 1; i < len(got); i++ {
			require.Less(t, got[i-1], got[i], "total %d: %v", total, got)
		}
	}
}

func TestDepthsLargeTotals(t *testing.T) {
	for _, total := range []int{
		1e9, 1e15 + 7, 1e18, 1 << 62, math.MaxInt64 / 10 * 10, math.MaxInt64 - 1, math.MaxInt64,
	} {
		got, err := Depths(total)
		require.NoError(t, err)
		require.Equal(t, 1, got[0])
		require.Equal(t, total, got[len(got)-1])
		for i := 1; i < len(got); i++ {
			require.Less(t, got[i-1], got[i], "total %d: %v", total, got)
		}
	}

	got, err := Depths(1e9)
	require.NoError(t, err)
	assert.Equal(t, []int{1e8, 2e8, 3e8, 4e8, 5e8, 1e9}, got[len(got)-6:])
}

func TestDepthsInvalid(t *testing.T) {
	for _, total := range []int{0, -1} {
		_, err := Depths(total)
		assert.True(t, errors.Is(errors.Invalid, err), "total %d: %v", total, err)
	}
}

func newPool(t *testing.T, labels []string, total int) *Pool {
	b := NewPoolBuilder()
	for _, l := range labels {
		b.Add(l)
	}
	p, err := b.Build(total)
	require.NoError(t, err)
	return p
}

func TestPoolBuilder(t *testing.T) {
	p := newPool(t, []string{"A", "A", "B", "", "A"}, 0)
	assert.Equal(t, 5, p.Len())
	assert.Equal(t, 2, p.NumCategories())
	assert.Equal(t, []Category{1, 1, 2, None, 1}, p.reads)
	assert.Equal(t, "A", p.Name(1))
	assert.Equal(t, "B", p.Name(2))
	assert.Equal(t, "", p.Name(None))
	assert.Equal(t, 2, p.Distinct(1))
	assert.Equal(t, 1, p.Distinct(2))
	assert.Equal(t, 0, p.Distinct(4))

	p = newPool(t, []string{"A", "B"}, 6)
	assert.Equal(t, 6, p.Len())
	assert.Equal(t, []Category{1, 2, None, None, None, None}, p.reads)

	p = newPool(t, []string{"A", "B"}, 2)
	assert.Equal(t, 2, p.Len())
}

func TestPoolBuilderTooManyReads(t *testing.T) {
	b := NewPoolBuilder()
	b.Add("A")
	b.AddNull()
	b.Add("B")
	assert.Equal(t, 3, b.Len())
	_, err := b.Build(2)
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)

	_, err = NewPoolBuilder().Build(-1)
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
}

func testPool(t *testing.T, n, numCategories int) *Pool {
	labels := make([]string, n)
	for i := range labels {
		if i%7 == 0 {
			continue
		}
		labels[i] = fmt.Sprintf("gene%d", (i*i)%numCategories)
	}
	return newPool(t, labels, 0)
}

func TestShuffleOwnsResult(t *testing.T) {
	p := testPool(t, 200, 30)
	orig := append([]Category(nil), p.reads...)
	r := rand.New(rand.NewPCG(1, 2))
	a := Shuffle(p, r)
	b := Shuffle(p, r)

	assert.Equal(t, orig, p.reads, "pool was modified")
	a[0] = 12345
	assert.Equal(t, orig, p.reads, "trial aliases the pool")
	assert.NotEqual(t, Category(12345), b[0])

	sorted := func(c []Category) []Category {
		c = append([]Category(nil), c...)
		sort.Slice(c, func(i, j int) bool { return c[i] < c[j] })
		return c
	}
	assert.Equal(t, sorted(orig), sorted(b))
}

func TestTrials(t *testing.T) {
	p := testPool(t, 500, 40)
	serial, err := Sampler{Seed: 42, Parallelism: 1}.Trials(p, 25)
	require.NoError(t, err)
	require.Len(t, serial, 25)
	for _, parallelism := range []int{0, 2, 3, 8, 100} {
		parallel, err := Sampler{Seed: 42, Parallelism: parallelism}.Trials(p, 25)
		require.NoError(t, err)
		assert.Equal(t, serial, parallel, "parallelism %d", parallelism)
	}

	other, err := Sampler{Seed: 43, Parallelism: 1}.Trials(p, 25)
	require.NoError(t, err)
	assert.NotEqual(t, serial, other)
	assert.NotEqual(t, serial[0], serial[1], "trials are correlated")

	_, err = Sampler{Seed: 1}.Trials(p, 0)
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
}

func TestEstimateDepthPercentiles(t *testing.T) {
	trials := []Trial{
		{1, 2, 3},
		{0, 0, 0},
		{1, 2, 0},
		{1, 0, 0},
	}
	p, err := EstimateDepth(3, trials, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Depth)
	assert.Equal(t, 0.0, p.Lower)
	assert.Equal(t, 1.5, p.Median)
	assert.Equal(t, 3.0, p.Upper)
	assert.Equal(t, 1.5, p.Mean)

	// A depth past the end of the trials saturates.
	q, err := EstimateDepth(50, trials, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 50, q.Depth)
	assert.Equal(t, p.Median, q.Median)

	p, err = EstimateDepth(1, trials, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Lower)
	assert.Equal(t, 1.0, p.Median)
	assert.Equal(t, 1.0, p.Upper)
}

func TestEstimateDepthMinDepth(t *testing.T) {
	trials := []Trial{{1, 1, 2, 0, 1, 2, 3}}
	for minDepth, want := range map[int]float64{1: 3, 2: 2, 3: 1, 4: 0} {
		p, err := EstimateDepth(7, trials, minDepth, 3)
		require.NoError(t, err)
		assert.Equal(t, want, p.Median, "min depth %d", minDepth)
	}
	_, err := EstimateDepth(7, trials, 0, 3)
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
	_, err = EstimateDepth(7, nil, 1, 3)
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
}

func TestEstimateDepthMalformedTrial(t *testing.T) {
	trials := []Trial{{1, 2, 0}, {1, 9, 0}}
	_, err := EstimateDepth(3, trials, 1, 2)
	var de *DepthError
	require.True(t, stderrors.As(err, &de), "%v", err)
	assert.Equal(t, 3, de.Depth)
	assert.True(t, errors.Is(errors.Integrity, de.Err), "%v", de.Err)

	// The bad read lies beyond depth 1.
	_, err = EstimateDepth(1, trials, 1, 2)
	assert.NoError(t, err)
}

func TestScenario(t *testing.T) {
	p := newPool(t, []string{"A", "A", "B", "", "A"}, 5)
	curve, err := Estimate(p, Options{SamplesPerXval: 200, MinDepth: 1, Parallelism: 3, Seed: 7})
	require.NoError(t, err)
	require.Empty(t, curve.Failures)
	require.Len(t, curve.Points, 5)
	assert.Equal(t, uint64(7), curve.Seed)

	first := curve.Points[0]
	assert.Equal(t, 1, first.Depth)
	assert.Equal(t, 0.0, first.Lower)
	assert.Equal(t, 1.0, first.Upper)

	last := curve.Points[4]
	assert.Equal(t, Point{Depth: 5, Lower: 2, Median: 2, Upper: 2, Mean: 2, StdDev: 0}, last)
}

func TestEstimateShape(t *testing.T) {
	p := testPool(t, 2345, 300)
	opts := Options{SamplesPerXval: 101, MinDepth: 2, Parallelism: 1, Seed: 99}
	serial, err := Estimate(p, opts)
	require.NoError(t, err)
	require.NoError(t, serial.Err())

	depths, err := Depths(p.Len())
	require.NoError(t, err)
	require.Len(t, serial.Points, len(depths))
	for i, pt := range serial.Points {
		assert.Equal(t, depths[i], pt.Depth)
		assert.LessOrEqual(t, pt.Lower, pt.Median, "depth %d", pt.Depth)
		assert.LessOrEqual(t, pt.Median, pt.Upper, "depth %d", pt.Depth)
	}

	// The whole pool is drawn at the last depth, so every trial agrees.
	last := serial.Points[len(serial.Points)-1]
	want := float64(p.Distinct(2))
	assert.Equal(t, want, last.Lower)
	assert.Equal(t, want, last.Median)
	assert.Equal(t, want, last.Upper)

	opts.Parallelism = 6
	parallel, err := Estimate(p, opts)
	require.NoError(t, err)
	assert.Equal(t, serial, parallel)
}

func TestEstimateSingleSample(t *testing.T) {
	p := testPool(t, 300, 50)
	curve, err := Estimate(p, Options{SamplesPerXval: 1, MinDepth: 1, Parallelism: 4})
	require.NoError(t, err)
	assert.NotZero(t, curve.Seed)
	for _, pt := range curve.Points {
		assert.Equal(t, pt.Lower, pt.Median, "depth %d", pt.Depth)
		assert.Equal(t, pt.Median, pt.Upper, "depth %d", pt.Depth)
	}
}

func TestEstimateInvalid(t *testing.T) {
	p := testPool(t, 10, 3)
	for _, opts := range []Options{
		{SamplesPerXval: 0, MinDepth: 1},
		{SamplesPerXval: 10, MinDepth: 0},
	} {
		_, err := Estimate(p, opts)
		assert.True(t, errors.Is(errors.Invalid, err), "%+v: %v", opts, err)
	}
	_, err := Estimate(newPool(t, nil, 0), Options{SamplesPerXval: 10, MinDepth: 1})
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
}

func TestAssembleIsolatesFailures(t *testing.T) {
	trials := []Trial{
		{1, 2, 1, 2, 1, 2, 1, 2, 1, 2},
		{2, 1, 2, 1, 2, 1, 2, 1, 2, 77},
	}
	depths, err := Depths(10)
	require.NoError(t, err)
	for _, parallelism := range []int{1, 4} {
		curve, err := Assemble(depths, trials, 1, 2, parallelism)
		require.NoError(t, err)
		require.Len(t, curve.Failures, 1)
		assert.Equal(t, 10, curve.Failures[0].Depth)
		require.Len(t, curve.Points, 5)
		for i, pt := range curve.Points {
			assert.Equal(t, i+1, pt.Depth)
		}
		assert.Equal(t, curve.Failures[0], curve.Err())
	}
}

func TestAssembleInvalid(t *testing.T) {
	trials := []Trial{{1, 2, 1}, {2, 1, 0}}
	for _, test := range []struct {
		name     string
		trials   []Trial
		minDepth int
	}{
		{"zero min depth", trials, 0},
		{"negative min depth", trials, -2},
		{"no trials", nil, 1},
		{"empty trials", []Trial{}, 1},
	} {
		curve, err := Assemble([]int{1, 2, 3}, test.trials, test.minDepth, 2, 1)
		assert.True(t, errors.Is(errors.Invalid, err), "%s: %v", test.name, err)
		assert.Nil(t, curve, test.name)
	}
}

func TestShuffleIsUniform(t *testing.T) {
	const (
		n      = 5
		rounds = 20000
	)
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("c%d", i)
	}
	p := newPool(t, labels, 0)
	r := rand.New(rand.NewPCG(3, 4))

	// Category 1 is the first read; it should land in every position
	// about rounds/n times.
	var hits [n]int
	for i := 0; i < rounds; i++ {
		for pos, c := range Shuffle(p, r) {
			if c == 1 {
				hits[pos]++
			}
		}
	}
	want := float64(rounds) / n
	for pos, h := range hits {
		assert.InDelta(t, want, float64(h), 0.08*want, "position %d: %v", pos, hits)
	}
}
