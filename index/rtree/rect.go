package rtree

import (
	"math"

	"github.com/hupe1980/songsim/distance"
)

// rect is an axis-aligned bounding rectangle.
type rect struct {
	min []float32
	max []float32
}

func pointRect(v []float32) rect {
	return rect{min: v, max: v}
}

func (r rect) clone() rect {
	out := rect{min: make([]float32, len(r.min)), max: make([]float32, len(r.max))}
	copy(out.min, r.min)
	copy(out.max, r.max)
	return out
}

// extend grows r in place to cover o. r must own its slices.
func (r rect) extend(o rect) {
	for d := range r.min {
		if o.min[d] < r.min[d] {
			r.min[d] = o.min[d]
		}
		if o.max[d] > r.max[d] {
			r.max[d] = o.max[d]
		}
	}
}

func (r rect) contains(o rect) bool {
	for d := range r.min {
		if o.min[d] < r.min[d] || o.max[d] > r.max[d] {
			return false
		}
	}
	return true
}

func (r rect) center(d int) float32 {
	return r.min[d] + (r.max[d]-r.min[d])/2
}

func (r rect) volume() float64 {
	v := 1.0
	for d := range r.min {
		v *= float64(r.max[d] - r.min[d])
	}
	return v
}

func (r rect) margin() float64 {
	var m float64
	for d := range r.min {
		m += float64(r.max[d] - r.min[d])
	}
	return m
}

// enlargedVolume returns the volume and margin of r grown to cover o
// without modifying r.
func (r rect) enlarged(o rect) (vol, margin float64) {
	vol = 1.0
	for d := range r.min {
		lo, hi := r.min[d], r.max[d]
		if o.min[d] < lo {
			lo = o.min[d]
		}
		if o.max[d] > hi {
			hi = o.max[d]
		}
		ext := float64(hi - lo)
		vol *= ext
		margin += ext
	}
	return vol, margin
}

// minDist returns the smallest possible distance from q to any point in r.
func minDist(q []float32, r rect, metric distance.Metric) float32 {
	var sum float32
	for d, x := range q {
		var gap float32
		switch {
		case x < r.min[d]:
			gap = r.min[d] - x
		case x > r.max[d]:
			gap = x - r.max[d]
		}
		if metric == distance.MetricL1 {
			sum += gap
		} else {
			sum += gap * gap
		}
	}
	if metric == distance.MetricL1 {
		return sum
	}
	return float32(math.Sqrt(float64(sum)))
}
