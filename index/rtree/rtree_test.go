package rtree

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/hupe1980/songsim/distance"
	"github.com/hupe1980/songsim/index"
	"github.com/hupe1980/songsim/index/flat"
	"github.com/hupe1980/songsim/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSnapshot(t *testing.T, n, dim int, seed uint64) *vectorstore.Snapshot {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	s, err := vectorstore.New(dim)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		v := make([]float32, dim)
		for d := range v {
			// Coarse grid values produce plenty of exact distance ties.
			v[d] = float32(rng.IntN(8))
		}
		require.NoError(t, s.Insert(fmt.Sprintf("t%04d", i), v))
	}
	return s.Snapshot()
}

// checkInvariants verifies containment, capacity and that every ordinal is
// stored exactly once.
func checkInvariants(t *testing.T, tr *Tree) {
	t.Helper()
	seen := make(map[uint32]int)
	var walk func(id uint32, depth int)
	walk = func(id uint32, depth int) {
		n := tr.nodes[id]
		require.LessOrEqual(t, len(n.children), tr.capacity(id))
		if n.leaf {
			assert.Equal(t, tr.height, depth, "leaves must all sit at the same depth")
			for _, ord := range n.children {
				assert.True(t, n.bounds.contains(pointRect(tr.snap.Vector(ord))))
				seen[ord]++
			}
			return
		}
		for _, c := range n.children {
			assert.True(t, n.bounds.contains(tr.nodes[c].bounds), "child rect must be inside parent rect")
			walk(c, depth+1)
		}
	}
	walk(tr.root, 1)
	assert.Len(t, seen, tr.snap.Len())
	for ord, count := range seen {
		assert.Equal(t, 1, count, "ordinal %d stored %d times", ord, count)
	}
}

func TestBuild_MatchesFlat(t *testing.T) {
	for _, bulk := range []bool{true, false} {
		for _, metric := range []distance.Metric{distance.MetricL2, distance.MetricL1} {
			for _, dim := range []int{2, 5, 16} {
				name := fmt.Sprintf("bulk=%v/%v/dim=%d", bulk, metric, dim)
				t.Run(name, func(t *testing.T) {
					snap := randomSnapshot(t, 300, dim, uint64(dim))
					tr, err := Build(snap, func(o *Options) {
						o.BulkLoad = bulk
						o.Metric = metric
						o.LeafCapacity = 4
						o.Fanout = 3
					})
					require.NoError(t, err)
					checkInvariants(t, tr)

					ref, err := flat.New(snap, func(o *flat.Options) { o.Metric = metric })
					require.NoError(t, err)

					rng := rand.New(rand.NewPCG(7, 9))
					for q := 0; q < 20; q++ {
						query := make([]float32, dim)
						for d := range query {
							query[d] = rng.Float32() * 8
						}
						for _, k := range []int{1, 5, 17, 300} {
							want, err := ref.Search(query, k)
							require.NoError(t, err)
							got, err := tr.Search(query, k)
							require.NoError(t, err)
							assert.Equal(t, want, got)
						}

						want, err := ref.RangeSearch(query, 4)
						require.NoError(t, err)
						got, err := tr.RangeSearch(query, 4)
						require.NoError(t, err)
						assert.Equal(t, want, got)
					}
				})
			}
		}
	}
}

func TestInsert_OrderIndependentResults(t *testing.T) {
	snap := randomSnapshot(t, 200, 3, 42)
	ref, err := Build(snap)
	require.NoError(t, err)

	tr, err := New(snap, func(o *Options) { o.LeafCapacity = 3; o.Fanout = 4 })
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(3, 4))
	for _, i := range rng.Perm(snap.Len()) {
		require.NoError(t, tr.Insert(uint32(i)))
	}
	checkInvariants(t, tr)
	assert.Equal(t, snap.Len(), tr.Len())

	for q := 0; q < 25; q++ {
		query := []float32{rng.Float32() * 8, rng.Float32() * 8, rng.Float32() * 8}
		want, err := ref.Search(query, 10)
		require.NoError(t, err)
		got, err := tr.Search(query, 10)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSearch_Scenario(t *testing.T) {
	s, err := vectorstore.New(2)
	require.NoError(t, err)
	require.NoError(t, s.Insert("a", []float32{0, 0}))
	require.NoError(t, s.Insert("b", []float32{1, 0}))
	require.NoError(t, s.Insert("c", []float32{5, 5}))

	tr, err := Build(s.Snapshot())
	require.NoError(t, err)
	res, err := tr.Search([]float32{0, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []index.Neighbor{{TrackID: "a", Distance: 0}, {TrackID: "b", Distance: 1}}, res)
}

func TestSearch_Errors(t *testing.T) {
	s, err := vectorstore.New(2)
	require.NoError(t, err)

	tr, err := Build(s.Snapshot())
	require.NoError(t, err)
	_, err = tr.Search([]float32{0, 0}, 1)
	assert.ErrorIs(t, err, index.ErrEmptyIndex)
	_, err = tr.RangeSearch([]float32{0, 0}, 1)
	assert.ErrorIs(t, err, index.ErrEmptyIndex)

	require.NoError(t, s.Insert("a", []float32{1, 1}))
	tr, err = Build(s.Snapshot())
	require.NoError(t, err)
	_, err = tr.Search([]float32{0, 0}, 0)
	assert.ErrorIs(t, err, index.ErrInvalidK)
	_, err = tr.Search([]float32{0}, 1)
	assert.Error(t, err)

	assert.ErrorIs(t, tr.Insert(5), index.ErrInvalidConfig)
}

func TestNew_InvalidConfig(t *testing.T) {
	s, err := vectorstore.New(2)
	require.NoError(t, err)

	_, err = New(s.Snapshot(), func(o *Options) { o.Metric = distance.MetricCosine })
	assert.ErrorIs(t, err, index.ErrInvalidConfig)

	_, err = New(s.Snapshot(), func(o *Options) { o.LeafCapacity = 1 })
	assert.ErrorIs(t, err, index.ErrInvalidConfig)
}

func TestStats(t *testing.T) {
	snap := randomSnapshot(t, 100, 2, 1)
	tr, err := Build(snap, func(o *Options) { o.LeafCapacity = 10; o.Fanout = 4 })
	require.NoError(t, err)

	st := tr.Stats()
	assert.Equal(t, 100, st.Size)
	assert.Equal(t, 10, st.Leaves)
	assert.Equal(t, 3, st.Height)
}

func TestMinDist(t *testing.T) {
	r := rect{min: []float32{0, 0}, max: []float32{1, 1}}
	assert.Equal(t, float32(0), minDist([]float32{0.5, 0.5}, r, distance.MetricL2))
	assert.Equal(t, float32(5), minDist([]float32{4, 5}, r, distance.MetricL2))
	assert.Equal(t, float32(7), minDist([]float32{4, 5}, r, distance.MetricL1))
}
