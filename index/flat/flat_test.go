package flat

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/hupe1980/songsim/distance"
	"github.com/hupe1980/songsim/index"
	"github.com/hupe1980/songsim/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioSnapshot(t *testing.T) *vectorstore.Snapshot {
	t.Helper()
	s, err := vectorstore.New(2)
	require.NoError(t, err)
	require.NoError(t, s.Insert("a", []float32{0, 0}))
	require.NoError(t, s.Insert("b", []float32{1, 0}))
	require.NoError(t, s.Insert("c", []float32{5, 5}))
	return s.Snapshot()
}

func TestFlat(t *testing.T) {
	f, err := New(scenarioSnapshot(t))
	require.NoError(t, err)

	t.Run("Search", func(t *testing.T) {
		res, err := f.Search([]float32{0, 0}, 2)
		require.NoError(t, err)
		assert.Equal(t, []index.Neighbor{{TrackID: "a", Distance: 0}, {TrackID: "b", Distance: 1}}, res)
	})

	t.Run("ClampK", func(t *testing.T) {
		res, err := f.Search([]float32{0, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, res, 3)
		assert.Equal(t, "c", res[2].TrackID)
	})

	t.Run("InvalidK", func(t *testing.T) {
		_, err := f.Search([]float32{0, 0}, 0)
		assert.ErrorIs(t, err, index.ErrInvalidK)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := f.Search([]float32{0, 0, 0}, 1)
		var dm *index.ErrDimensionMismatch
		assert.True(t, errors.As(err, &dm))
	})

	t.Run("RangeSearch", func(t *testing.T) {
		res, err := f.RangeSearch([]float32{0, 0}, 1)
		require.NoError(t, err)
		assert.Equal(t, []index.Neighbor{{TrackID: "a", Distance: 0}, {TrackID: "b", Distance: 1}}, res)

		res, err = f.RangeSearch([]float32{100, 100}, 1)
		require.NoError(t, err)
		assert.Empty(t, res)
	})
}

func TestFlat_TieBreakInsertionOrder(t *testing.T) {
	s, err := vectorstore.New(1)
	require.NoError(t, err)
	require.NoError(t, s.Insert("z", []float32{1}))
	require.NoError(t, s.Insert("y", []float32{-1}))
	require.NoError(t, s.Insert("x", []float32{1}))

	f, err := New(s.Snapshot())
	require.NoError(t, err)

	res, err := f.Search([]float32{0}, 2)
	require.NoError(t, err)
	assert.Equal(t, "z", res[0].TrackID)
	assert.Equal(t, "y", res[1].TrackID)
}

func TestFlat_Empty(t *testing.T) {
	s, err := vectorstore.New(2)
	require.NoError(t, err)
	f, err := New(s.Snapshot())
	require.NoError(t, err)

	_, err = f.Search([]float32{0, 0}, 1)
	assert.ErrorIs(t, err, index.ErrEmptyIndex)
}

func TestFlat_Metrics(t *testing.T) {
	f, err := New(scenarioSnapshot(t), func(o *Options) { o.Metric = distance.MetricL1 })
	require.NoError(t, err)
	assert.Equal(t, distance.MetricL1, f.Metric())

	res, err := f.Search([]float32{5, 4}, 1)
	require.NoError(t, err)
	assert.Equal(t, index.Neighbor{TrackID: "c", Distance: 1}, res[0])

	_, err = New(scenarioSnapshot(t), func(o *Options) { o.Metric = distance.Metric(42) })
	assert.Error(t, err)
}

// RangeSearch must equal the prefix of a full search bounded by the radius.
func TestFlat_RangeMatchesFullSearch(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	s, err := vectorstore.New(4)
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		v := make([]float32, 4)
		for d := range v {
			v[d] = rng.Float32()
		}
		require.NoError(t, s.Insert(string(rune('A'+i%26))+string(rune('a'+i/26)), v))
	}
	f, err := New(s.Snapshot())
	require.NoError(t, err)

	q := []float32{0.5, 0.5, 0.5, 0.5}
	all, err := f.Search(q, f.Len())
	require.NoError(t, err)

	const radius = 0.4
	var want []index.Neighbor
	for _, n := range all {
		if n.Distance <= radius {
			want = append(want, n)
		}
	}
	got, err := f.RangeSearch(q, radius)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
