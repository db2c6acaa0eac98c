package ivf

import (
	"fmt"
	"slices"

	"github.com/hupe1980/songsim/index"
	"github.com/hupe1980/songsim/internal/queue"
)

// Search returns the k nearest vectors among the NProbe closest cells.
func (ivf *IVF) Search(query []float32, k int) ([]index.Neighbor, error) {
	return ivf.SearchProbe(query, k, min(ivf.opts.NProbe, len(ivf.cells)))
}

// SearchProbe is Search with a per-query probe count.
func (ivf *IVF) SearchProbe(query []float32, k, nProbe int) ([]index.Neighbor, error) {
	probes, err := ivf.probe(query, nProbe)
	if err != nil {
		return nil, err
	}
	k, err = index.ClampK(k, ivf.snap.Len())
	if err != nil {
		return nil, err
	}

	dim := ivf.snap.Dim()
	top := queue.NewTopK(k)
	for _, p := range probes {
		c := &ivf.cells[p.ID]
		for j, ord := range c.ords {
			top.Offer(queue.Item{ID: ord, Distance: ivf.dist(query, c.vecs[j*dim:(j+1)*dim])})
		}
	}
	return index.ToNeighbors(ivf.snap, top.Drain()), nil
}

// RangeSearch returns every vector within radius among the probed cells.
func (ivf *IVF) RangeSearch(query []float32, radius float32) ([]index.Neighbor, error) {
	probes, err := ivf.probe(query, min(ivf.opts.NProbe, len(ivf.cells)))
	if err != nil {
		return nil, err
	}

	dim := ivf.snap.Dim()
	var hits []queue.Item
	for _, p := range probes {
		c := &ivf.cells[p.ID]
		for j, ord := range c.ords {
			if d := ivf.dist(query, c.vecs[j*dim:(j+1)*dim]); d <= radius {
				hits = append(hits, queue.Item{ID: ord, Distance: d})
			}
		}
	}
	slices.SortFunc(hits, func(a, b queue.Item) int {
		switch {
		case queue.Before(a, b):
			return -1
		case queue.Before(b, a):
			return 1
		default:
			return 0
		}
	})
	return index.ToNeighbors(ivf.snap, hits), nil
}

// probe ranks the centroids against query and returns the nProbe closest.
func (ivf *IVF) probe(query []float32, nProbe int) ([]queue.Item, error) {
	if ivf.centroids == nil {
		return nil, index.ErrEmptyIndex
	}
	if err := index.ValidateQuery(query, ivf.snap.Dim()); err != nil {
		return nil, err
	}
	if nProbe <= 0 || nProbe > len(ivf.cells) {
		return nil, fmt.Errorf("%w: nprobe %d exceeds %d clusters", index.ErrInvalidConfig, nProbe, len(ivf.cells))
	}

	dim := ivf.snap.Dim()
	top := queue.NewTopK(nProbe)
	for j := range ivf.cells {
		top.Offer(queue.Item{ID: uint32(j), Distance: ivf.dist(query, ivf.centroids[j*dim:(j+1)*dim])})
	}
	return top.Drain(), nil
}
