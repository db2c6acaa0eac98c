package index

import (
	"errors"
	"fmt"

	"github.com/hupe1980/songsim/distance"
	"github.com/hupe1980/songsim/internal/queue"
	"github.com/hupe1980/songsim/vectorstore"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidConfig is returned for unusable index or query parameters.
	ErrInvalidConfig = errors.New("invalid index configuration")

	// ErrEmptyIndex is returned when an index is queried before anything
	// was indexed.
	ErrEmptyIndex = errors.New("index is empty")
)

// ErrDimensionMismatch indicates a query whose length differs from the
// indexed dimension.
type ErrDimensionMismatch = vectorstore.ErrDimensionMismatch

// Neighbor is a single search result.
type Neighbor struct {
	TrackID  string
	Distance float32
}

// Index is the k-nearest-neighbor capability implemented by every backend.
type Index interface {
	// Search returns the k nearest vectors to query in ascending distance.
	// k larger than the index size is clamped to the index size.
	Search(query []float32, k int) ([]Neighbor, error)
	// Len returns the number of indexed vectors.
	Len() int
	// Dim returns the indexed vector dimension.
	Dim() int
	// Metric returns the distance metric used for ranking.
	Metric() distance.Metric
}

// RangeSearcher is implemented by backends that can return every vector
// within a radius of the query.
type RangeSearcher interface {
	// RangeSearch returns all vectors with distance <= radius, sorted
	// ascending by distance.
	RangeSearch(query []float32, radius float32) ([]Neighbor, error)
}

// ValidateQuery checks the query dimension against dim.
func ValidateQuery(query []float32, dim int) error {
	if len(query) != dim {
		return &ErrDimensionMismatch{Expected: dim, Actual: len(query)}
	}
	return nil
}

// ClampK validates k and clamps it to n.
func ClampK(k, n int) (int, error) {
	if k <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	if k > n {
		return n, nil
	}
	return k, nil
}

// ToNeighbors resolves vector ordinals to track ids.
func ToNeighbors(snap *vectorstore.Snapshot, items []queue.Item) []Neighbor {
	out := make([]Neighbor, len(items))
	for i, it := range items {
		out[i] = Neighbor{TrackID: snap.ID(it.ID), Distance: it.Distance}
	}
	return out
}
