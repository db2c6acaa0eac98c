package kmeans

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"

	"github.com/hupe1980/songsim/distance"
)

// ErrTooFewVectors is returned when there are fewer vectors than clusters.
var ErrTooFewVectors = errors.New("fewer vectors than clusters")

// Config controls training.
type Config struct {
	K       int
	MaxIter int
	Metric  distance.Metric
	// Seed makes initialization reproducible.
	Seed uint64
}

// Result holds the trained model.
type Result struct {
	// Centroids is flattened as K*dim.
	Centroids []float32
	// Assignments maps each input vector to its centroid.
	Assignments []int
	Iterations  int
	// Converged is true when an iteration changed no assignment.
	Converged bool
}

// Centroid returns centroid j.
func (r *Result) Centroid(j, dim int) []float32 {
	return r.Centroids[j*dim : (j+1)*dim]
}

// Train clusters n vectors of dimension dim, fetched through vec, into
// cfg.K centroids using Lloyd's algorithm: assign every vector to the
// nearest centroid, recompute each centroid as the mean of its members, and
// repeat until no assignment changes or MaxIter is reached. Initialization
// is k-means++ over a seeded generator.
func Train(ctx context.Context, n, dim int, vec func(i int) []float32, cfg Config) (*Result, error) {
	if cfg.K <= 0 {
		return nil, errors.New("k must be positive")
	}
	if n < cfg.K {
		return nil, ErrTooFewVectors
	}
	distFunc, err := distance.Provider(cfg.Metric)
	if err != nil {
		return nil, err
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = 1
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	centroids := initPlusPlus(n, dim, vec, cfg.K, distFunc, rng)

	res := &Result{
		Centroids:   centroids,
		Assignments: make([]int, n),
	}
	for i := range res.Assignments {
		res.Assignments[i] = -1
	}

	counts := make([]int, cfg.K)
	sums := make([]float64, cfg.K*dim)
	dists := make([]float32, n)

	for iter := 0; iter < cfg.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Iterations = iter + 1

		// Assignment step
		changed := false
		for i := 0; i < n; i++ {
			best, d := Nearest(vec(i), centroids, dim, distFunc)
			dists[i] = d
			if res.Assignments[i] != best {
				res.Assignments[i] = best
				changed = true
			}
		}
		if !changed {
			res.Converged = true
			break
		}

		// Update step
		clear(sums)
		clear(counts)
		for i := 0; i < n; i++ {
			c := res.Assignments[i]
			for d, x := range vec(i) {
				sums[c*dim+d] += float64(x)
			}
			counts[c]++
		}
		for j := 0; j < cfg.K; j++ {
			if counts[j] > 0 {
				for d := 0; d < dim; d++ {
					centroids[j*dim+d] = float32(sums[j*dim+d] / float64(counts[j]))
				}
				continue
			}
			// Re-seed an empty cluster with the point worst served by its
			// current centroid.
			far := farthest(dists)
			copy(centroids[j*dim:(j+1)*dim], vec(far))
			dists[far] = 0
		}
	}

	return res, nil
}

// Nearest returns the index of the centroid closest to v and its distance.
// The lowest index wins ties.
func Nearest(v []float32, centroids []float32, dim int, distFunc distance.Func) (int, float32) {
	best := -1
	bestDist := float32(math.MaxFloat32)
	for j := 0; j*dim < len(centroids); j++ {
		if d := distFunc(v, centroids[j*dim:(j+1)*dim]); best < 0 || d < bestDist {
			best, bestDist = j, d
		}
	}
	return best, bestDist
}

func initPlusPlus(n, dim int, vec func(i int) []float32, k int, distFunc distance.Func, rng *rand.Rand) []float32 {
	centroids := make([]float32, 0, k*dim)
	centroids = append(centroids, vec(rng.IntN(n))...)

	closest := make([]float64, n)
	for i := range closest {
		closest[i] = math.Inf(1)
	}
	for c := 1; c < k; c++ {
		last := centroids[(c-1)*dim : c*dim]
		var total float64
		for i := 0; i < n; i++ {
			d := float64(distFunc(vec(i), last))
			if d*d < closest[i] {
				closest[i] = d * d
			}
			total += closest[i]
		}

		next := 0
		if total == 0 {
			// Every remaining point coincides with a centroid.
			next = rng.IntN(n)
		} else {
			target := rng.Float64() * total
			for i := 0; i < n; i++ {
				target -= closest[i]
				if target < 0 {
					next = i
					break
				}
				next = i
			}
		}
		centroids = append(centroids, vec(next)...)
	}
	return centroids
}

func farthest(dists []float32) int {
	best := 0
	for i, d := range dists {
		if d > dists[best] {
			best = i
		}
	}
	return best
}
