package ivf

import (
	"context"
	"fmt"

	"github.com/hupe1980/songsim/distance"
	"github.com/hupe1980/songsim/index"
	"github.com/hupe1980/songsim/internal/kmeans"
	"github.com/hupe1980/songsim/vectorstore"
)

// Compile-time checks to ensure IVF satisfies required interfaces.
var (
	_ index.Index         = (*IVF)(nil)
	_ index.RangeSearcher = (*IVF)(nil)
)

// Options contains configuration options for the IVF index.
type Options struct {
	// Metric is the distance used for clustering and ranking.
	Metric distance.Metric

	// NumClusters is the number of k-means cells. Snapshots with fewer
	// vectors get one cell per vector.
	NumClusters int

	// NProbe is the number of cells scanned per query.
	NProbe int

	// MaxIterations bounds k-means refinement.
	MaxIterations int

	// Seed makes centroid initialization reproducible.
	Seed uint64
}

// DefaultOptions contains the default configuration options for the IVF index.
var DefaultOptions = Options{
	Metric:        distance.MetricL2,
	NumClusters:   16,
	NProbe:        4,
	MaxIterations: 25,
	Seed:          42,
}

type cell struct {
	ords []uint32
	// vecs holds the member vectors contiguously, len(ords)*dim.
	vecs []float32
}

// IVF is an inverted-file index over a vector store snapshot.
type IVF struct {
	snap *vectorstore.Snapshot
	opts Options
	dist distance.Func

	centroids []float32
	cells     []cell

	iterations int
	converged  bool
}

// New creates an unbuilt index over snap. Call Build before searching.
func New(snap *vectorstore.Snapshot, optFns ...func(o *Options)) (*IVF, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.NumClusters <= 0 {
		return nil, fmt.Errorf("%w: num clusters must be positive", index.ErrInvalidConfig)
	}
	if opts.NProbe <= 0 || opts.NProbe > opts.NumClusters {
		return nil, fmt.Errorf("%w: nprobe %d not in [1, %d]", index.ErrInvalidConfig, opts.NProbe, opts.NumClusters)
	}
	if opts.MaxIterations <= 0 {
		return nil, fmt.Errorf("%w: max iterations must be positive", index.ErrInvalidConfig)
	}
	dist, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}
	return &IVF{snap: snap, opts: opts, dist: dist}, nil
}

// Build trains the centroids and groups every vector under its nearest
// centroid. An empty snapshot leaves the index unbuilt.
func (ivf *IVF) Build(ctx context.Context) error {
	n, dim := ivf.snap.Len(), ivf.snap.Dim()
	if n == 0 {
		return nil
	}

	k := min(ivf.opts.NumClusters, n)
	res, err := kmeans.Train(ctx, n, dim, func(i int) []float32 {
		return ivf.snap.Vector(uint32(i))
	}, kmeans.Config{
		K:       k,
		MaxIter: ivf.opts.MaxIterations,
		Metric:  ivf.opts.Metric,
		Seed:    ivf.opts.Seed,
	})
	if err != nil {
		return fmt.Errorf("train centroids: %w", err)
	}

	// Lloyd's final update may move centroids after the last assignment
	// pass, so regroup against the published centroids.
	cells := make([]cell, k)
	for i := 0; i < n; i++ {
		ord := uint32(i)
		v := ivf.snap.Vector(ord)
		c, _ := kmeans.Nearest(v, res.Centroids, dim, ivf.dist)
		cells[c].ords = append(cells[c].ords, ord)
		cells[c].vecs = append(cells[c].vecs, v...)
	}

	ivf.centroids = res.Centroids
	ivf.cells = cells
	ivf.iterations = res.Iterations
	ivf.converged = res.Converged
	return nil
}

// Len returns the number of indexed vectors.
func (ivf *IVF) Len() int { return ivf.snap.Len() }

// Dim returns the vector dimension.
func (ivf *IVF) Dim() int { return ivf.snap.Dim() }

// Metric returns the distance metric.
func (ivf *IVF) Metric() distance.Metric { return ivf.opts.Metric }

// NumClusters returns the number of trained cells, 0 before Build.
func (ivf *IVF) NumClusters() int { return len(ivf.cells) }

// Stats describes a built index.
type Stats struct {
	Clusters   int
	Sizes      []int
	Iterations int
	Converged  bool
}

// Stats returns cell sizes and training details.
func (ivf *IVF) Stats() Stats {
	sizes := make([]int, len(ivf.cells))
	for i, c := range ivf.cells {
		sizes[i] = len(c.ords)
	}
	return Stats{
		Clusters:   len(ivf.cells),
		Sizes:      sizes,
		Iterations: ivf.iterations,
		Converged:  ivf.converged,
	}
}
