package rtree

import (
	"slices"
)

// bulkLoad packs the whole snapshot bottom-up. Each level is produced by
// recursively halving the entries along their dimension of greatest spread
// until every group fits one node.
func (t *Tree) bulkLoad() {
	n := t.snap.Len()
	if n == 0 {
		return
	}

	entries := make([]uint32, n)
	for i := range entries {
		entries[i] = uint32(i)
	}
	rectOf := func(e uint32) rect { return pointRect(t.snap.Vector(e)) }

	var level []uint32
	for _, group := range pack(entries, rectOf, t.opts.LeafCapacity) {
		level = append(level, t.newNode(true, group))
	}
	t.height = 1

	for len(level) > 1 {
		rectOf = func(e uint32) rect { return t.nodes[e].bounds }
		var next []uint32
		for _, group := range pack(level, rectOf, t.opts.Fanout) {
			next = append(next, t.newNode(false, group))
		}
		level = next
		t.height++
	}

	t.root = level[0]
	t.size = n
}

// pack partitions entries into groups of at most capacity. All groups but
// the last of each recursive half are full.
func pack(entries []uint32, rectOf func(uint32) rect, capacity int) [][]uint32 {
	if len(entries) <= capacity {
		return [][]uint32{slices.Clone(entries)}
	}

	rects := make([]rect, len(entries))
	for i, e := range entries {
		rects[i] = rectOf(e)
	}
	dim := spreadDimension(rects)

	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		ca, cb := rects[a].center(dim), rects[b].center(dim)
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		default:
			return 0
		}
	})
	sorted := make([]uint32, len(entries))
	for i, j := range idx {
		sorted[i] = entries[j]
	}

	groups := (len(entries) + capacity - 1) / capacity
	cut := (groups / 2) * capacity
	return append(pack(sorted[:cut], rectOf, capacity), pack(sorted[cut:], rectOf, capacity)...)
}
