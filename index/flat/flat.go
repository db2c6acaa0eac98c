package flat

import (
	"slices"

	"github.com/hupe1980/songsim/distance"
	"github.com/hupe1980/songsim/index"
	"github.com/hupe1980/songsim/internal/queue"
	"github.com/hupe1980/songsim/vectorstore"
)

// Compile-time checks to ensure Flat satisfies required interfaces.
var (
	_ index.Index         = (*Flat)(nil)
	_ index.RangeSearcher = (*Flat)(nil)
)

// Options contains configuration options for the flat index.
type Options struct {
	// Metric is the distance used for ranking.
	Metric distance.Metric
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{
	Metric: distance.MetricL2,
}

// Flat is a linear-scan index over a vector store snapshot.
type Flat struct {
	snap   *vectorstore.Snapshot
	metric distance.Metric
	dist   distance.Func
}

// New creates a flat index over snap.
func New(snap *vectorstore.Snapshot, optFns ...func(o *Options)) (*Flat, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	dist, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}
	return &Flat{snap: snap, metric: opts.Metric, dist: dist}, nil
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int { return f.snap.Len() }

// Dim returns the vector dimension.
func (f *Flat) Dim() int { return f.snap.Dim() }

// Metric returns the distance metric.
func (f *Flat) Metric() distance.Metric { return f.metric }

// Search returns the k nearest vectors to query, ascending by distance.
func (f *Flat) Search(query []float32, k int) ([]index.Neighbor, error) {
	if err := f.validate(query); err != nil {
		return nil, err
	}
	k, err := index.ClampK(k, f.snap.Len())
	if err != nil {
		return nil, err
	}

	top := queue.NewTopK(k)
	for i := 0; i < f.snap.Len(); i++ {
		ord := uint32(i)
		top.Offer(queue.Item{ID: ord, Distance: f.dist(query, f.snap.Vector(ord))})
	}
	return index.ToNeighbors(f.snap, top.Drain()), nil
}

// RangeSearch returns every vector with distance <= radius, sorted ascending
// by distance with ties in insertion order.
func (f *Flat) RangeSearch(query []float32, radius float32) ([]index.Neighbor, error) {
	if err := f.validate(query); err != nil {
		return nil, err
	}

	var hits []queue.Item
	for i := 0; i < f.snap.Len(); i++ {
		ord := uint32(i)
		if d := f.dist(query, f.snap.Vector(ord)); d <= radius {
			hits = append(hits, queue.Item{ID: ord, Distance: d})
		}
	}
	slices.SortFunc(hits, compareItems)
	return index.ToNeighbors(f.snap, hits), nil
}

func (f *Flat) validate(query []float32) error {
	if f.snap.Len() == 0 {
		return index.ErrEmptyIndex
	}
	return index.ValidateQuery(query, f.snap.Dim())
}

func compareItems(a, b queue.Item) int {
	switch {
	case queue.Before(a, b):
		return -1
	case queue.Before(b, a):
		return 1
	default:
		return 0
	}
}
