package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/songsim/index"
)

func TestUniformVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformVectors(8, 32)

	assert.Equal(t, 8, len(v))
	assert.Equal(t, 32, len(v[0]))
	for _, vec := range v {
		for _, x := range vec {
			assert.GreaterOrEqual(t, x, float32(0))
			assert.Less(t, x, float32(1))
		}
	}
}

func TestUnitVectors(t *testing.T) {
	rng := NewRNG(4711)

	for _, vec := range rng.UnitVectors(8, 32) {
		var norm float64
		for _, x := range vec {
			norm += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
	}
}

func TestClusteredVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.ClusteredVectors(100, 16, 4, 0.01)
	require.Len(t, v, 100)

	// Members of one cluster are much closer to each other than to others.
	same := distanceL2(v[0], v[4])
	other := distanceL2(v[0], v[1])
	assert.Less(t, same, other)
}

func distanceL2(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i] - b[i])
		s += d * d
	}
	return math.Sqrt(s)
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	a := rng.UniformVectors(2, 4)
	rng.Reset()
	b := rng.UniformVectors(2, 4)
	assert.Equal(t, a, b)
	assert.Equal(t, uint64(4711), rng.Seed())
}

func TestLyrics(t *testing.T) {
	docs := NewRNG(1).Lyrics(10, 20)
	require.Len(t, docs, 10)
	assert.Equal(t, "doc-000000", docs[0].ID)
	assert.Equal(t, "en", docs[0].Language)
	assert.NotEmpty(t, docs[9].Text)
}

func TestBruteForceSearchAndRecall(t *testing.T) {
	snap, err := Snapshot([][]float32{{0, 0}, {1, 0}, {5, 5}})
	require.NoError(t, err)

	truth := BruteForceSearch(snap, []float32{0, 0}, 2)
	require.Len(t, truth, 2)
	assert.Equal(t, TrackID(0), truth[0].TrackID)
	assert.Equal(t, float32(1), truth[1].Distance)

	assert.Equal(t, 1.0, ComputeRecall(truth, truth))
	assert.Equal(t, 0.5, ComputeRecall(truth, []index.Neighbor{truth[1], {TrackID: "other"}}))
	assert.Equal(t, 1.0, ComputeRecall(nil, nil))
}
