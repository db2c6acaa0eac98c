package kmeans

import (
	"context"
	"testing"

	"github.com/hupe1980/songsim/distance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accessor(vecs [][]float32) func(int) []float32 {
	return func(i int) []float32 { return vecs[i] }
}

func TestTrain(t *testing.T) {
	ctx := context.Background()
	// 2 clusters: (0,0) and (10,10)
	vecs := [][]float32{
		{0, 0}, {0, 1}, {1, 0},
		{10, 10}, {10, 11}, {11, 10},
	}

	res, err := Train(ctx, len(vecs), 2, accessor(vecs), Config{K: 2, MaxIter: 100, Seed: 1})
	require.NoError(t, err)
	assert.Len(t, res.Centroids, 4)
	assert.True(t, res.Converged)

	a := res.Assignments
	assert.Equal(t, a[0], a[1])
	assert.Equal(t, a[0], a[2])
	assert.Equal(t, a[3], a[4])
	assert.Equal(t, a[3], a[5])
	assert.NotEqual(t, a[0], a[3])

	c := res.Centroid(a[0], 2)
	assert.InDelta(t, 1.0/3, c[0], 1e-6)
	assert.InDelta(t, 1.0/3, c[1], 1e-6)
}

func TestTrain_Deterministic(t *testing.T) {
	ctx := context.Background()
	vecs := make([][]float32, 50)
	for i := range vecs {
		vecs[i] = []float32{float32(i % 7), float32(i % 11)}
	}
	cfg := Config{K: 4, MaxIter: 20, Seed: 99}

	r1, err := Train(ctx, len(vecs), 2, accessor(vecs), cfg)
	require.NoError(t, err)
	r2, err := Train(ctx, len(vecs), 2, accessor(vecs), cfg)
	require.NoError(t, err)
	assert.Equal(t, r1.Centroids, r2.Centroids)
	assert.Equal(t, r1.Assignments, r2.Assignments)
}

func TestTrain_NotEnoughVectors(t *testing.T) {
	_, err := Train(context.Background(), 1, 2, accessor([][]float32{{0, 0}}), Config{K: 2, MaxIter: 10})
	assert.ErrorIs(t, err, ErrTooFewVectors)
}

func TestTrain_Error(t *testing.T) {
	_, err := Train(context.Background(), 1, 2, accessor([][]float32{{0, 0}}), Config{K: 1, MaxIter: 10, Metric: distance.Metric(999)})
	assert.Error(t, err)
}

func TestTrain_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	vecs := make([][]float32, 100)
	for i := range vecs {
		vecs[i] = []float32{float32(i), float32(i)}
	}
	_, err := Train(ctx, len(vecs), 2, accessor(vecs), Config{K: 10, MaxIter: 1000})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNearest(t *testing.T) {
	centroids := []float32{
		0, 0, // 0
		10, 10, // 1
		20, 20, // 2
	}
	j, d := Nearest([]float32{19, 19}, centroids, 2, distance.Euclidean)
	assert.Equal(t, 2, j)
	assert.InDelta(t, 1.4142135, d, 1e-6)

	// Ties resolve to the lower index.
	j, _ = Nearest([]float32{5, 5}, centroids, 2, distance.Euclidean)
	assert.Equal(t, 0, j)
}
