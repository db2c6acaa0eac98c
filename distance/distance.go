package distance

import (
	"fmt"
	"math"
)

// SquaredL2 calculates the squared Euclidean distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Euclidean calculates the L2 distance between two vectors.
func Euclidean(a, b []float32) float32 {
	return float32(math.Sqrt(float64(SquaredL2(a, b))))
}

// Manhattan calculates the L1 distance between two vectors.
func Manhattan(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}

// Dot calculates the dot product of two vectors.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Cosine returns 1 - cos(a, b). Zero vectors are treated as orthogonal to
// everything, so the distance is 1.
func Cosine(a, b []float32) float32 {
	na := Dot(a, a)
	nb := Dot(b, b)
	if na == 0 || nb == 0 {
		return 1
	}
	cos := float64(Dot(a, b)) / (math.Sqrt(float64(na)) * math.Sqrt(float64(nb)))
	// Rounding can push cos slightly outside [-1, 1].
	cos = math.Max(-1, math.Min(1, cos))
	return float32(1 - cos)
}

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	// MetricL2 is the Euclidean distance. It is the default.
	MetricL2 Metric = iota
	// MetricL1 is the Manhattan distance.
	MetricL1
	// MetricCosine is the cosine distance (1 - cosine similarity).
	MetricCosine
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricL1:
		return "L1"
	case MetricCosine:
		return "Cosine"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParseMetric converts a metric name ("l2", "euclidean", "l1", "manhattan",
// "cosine") to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "", "l2", "L2", "euclidean":
		return MetricL2, nil
	case "l1", "L1", "manhattan":
		return MetricL1, nil
	case "cosine", "Cosine":
		return MetricCosine, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", s)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return Euclidean, nil
	case MetricL1:
		return Manhattan, nil
	case MetricCosine:
		return Cosine, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
