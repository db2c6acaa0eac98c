package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEuclidean(t *testing.T) {
	assert.Equal(t, float32(0), Euclidean([]float32{1, 2}, []float32{1, 2}))
	assert.Equal(t, float32(5), Euclidean([]float32{0, 0}, []float32{3, 4}))
	assert.Equal(t, float32(25), SquaredL2([]float32{0, 0}, []float32{3, 4}))
}

func TestManhattan(t *testing.T) {
	assert.Equal(t, float32(7), Manhattan([]float32{0, 0}, []float32{3, -4}))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 1, Cosine([]float32{1, 0}, []float32{0, 3}), 1e-6)
	assert.InDelta(t, 2, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, float32(1), Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestProvider(t *testing.T) {
	tests := []struct {
		metric Metric
		want   float64
	}{
		{MetricL2, 5},
		{MetricL1, 7},
		{MetricCosine, 1 - 4/math.Sqrt(32)},
	}
	for _, tt := range tests {
		t.Run(tt.metric.String(), func(t *testing.T) {
			fn, err := Provider(tt.metric)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, fn([]float32{1, 0}, []float32{4, 4}), 1e-6)
		})
	}

	_, err := Provider(Metric(99))
	assert.Error(t, err)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("manhattan")
	require.NoError(t, err)
	assert.Equal(t, MetricL1, m)

	m, err = ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricL2, m)

	_, err = ParseMetric("hamming")
	assert.Error(t, err)
}
