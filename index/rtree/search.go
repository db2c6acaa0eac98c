package rtree

import (
	"slices"

	"github.com/hupe1980/songsim/index"
	"github.com/hupe1980/songsim/internal/queue"
)

// Search returns the k nearest vectors to query, ascending by distance.
func (t *Tree) Search(query []float32, k int) ([]index.Neighbor, error) {
	if err := t.validate(query); err != nil {
		return nil, err
	}
	k, err := index.ClampK(k, t.size)
	if err != nil {
		return nil, err
	}

	top := queue.NewTopK(k)
	frontier := queue.NewMin(2 * t.opts.Fanout)
	frontier.Push(queue.Item{ID: t.root, Distance: minDist(query, t.nodes[t.root].bounds, t.opts.Metric)})

	for frontier.Len() > 0 {
		cur, _ := frontier.Pop()
		if t.prunable(top, cur.Distance) {
			// The frontier is ordered by MinDist, so nothing left can
			// beat the current k-th best either.
			break
		}

		n := &t.nodes[cur.ID]
		if n.leaf {
			for _, ord := range n.children {
				top.Offer(queue.Item{ID: ord, Distance: t.dist(query, t.snap.Vector(ord))})
			}
			continue
		}
		for _, c := range n.children {
			d := minDist(query, t.nodes[c].bounds, t.opts.Metric)
			if t.prunable(top, d) {
				continue
			}
			frontier.Push(queue.Item{ID: c, Distance: d})
		}
	}

	return index.ToNeighbors(t.snap, top.Drain()), nil
}

// RangeSearch returns every vector with distance <= radius, sorted ascending
// by distance with ties in insertion order.
func (t *Tree) RangeSearch(query []float32, radius float32) ([]index.Neighbor, error) {
	if err := t.validate(query); err != nil {
		return nil, err
	}

	var hits []queue.Item
	stack := []uint32{t.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.nodes[id]
		if minDist(query, n.bounds, t.opts.Metric) > radius {
			continue
		}
		if !n.leaf {
			stack = append(stack, n.children...)
			continue
		}
		for _, ord := range n.children {
			if d := t.dist(query, t.snap.Vector(ord)); d <= radius {
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
	return index.ToNeighbors(t.snap, hits), nil
}

// prunable reports whether a node at MinDist d cannot contribute. Equal
// distances are still explored so that insertion-order ties resolve exactly
// like a linear scan.
func (t *Tree) prunable(top *queue.TopK, d float32) bool {
	if !top.Full() {
		return false
	}
	worst, _ := top.Worst()
	return d > worst.Distance
}

func (t *Tree) validate(query []float32) error {
	if t.size == 0 {
		return index.ErrEmptyIndex
	}
	return index.ValidateQuery(query, t.snap.Dim())
}
