package rtree

import (
	"fmt"
	"slices"

	"github.com/hupe1980/songsim/index"
)

// Insert adds the snapshot vector at ordinal ord to the tree.
//
// Insert must not be called concurrently with itself or with searches; a
// tree is published to readers only after it is fully built.
func (t *Tree) Insert(ord uint32) error {
	if int(ord) >= t.snap.Len() {
		return fmt.Errorf("%w: ordinal %d out of range [0,%d)", index.ErrInvalidConfig, ord, t.snap.Len())
	}
	vec := t.snap.Vector(ord)

	if t.root == noNode {
		t.root = t.newNode(true, []uint32{ord})
		t.height = 1
		t.size = 1
		return nil
	}

	// Descend to a leaf, remembering the path for the way back up.
	path := []uint32{t.root}
	for cur := t.root; !t.nodes[cur].leaf; {
		cur = t.chooseChild(cur, pointRect(vec))
		path = append(path, cur)
	}

	leaf := path[len(path)-1]
	t.nodes[leaf].children = append(t.nodes[leaf].children, ord)

	sibling := noNode
	for i := len(path) - 1; i >= 0; i-- {
		id := path[i]
		if sibling != noNode {
			t.nodes[id].children = append(t.nodes[id].children, sibling)
			sibling = noNode
		}
		t.recomputeBounds(id)
		if len(t.nodes[id].children) > t.capacity(id) {
			sibling = t.split(id)
		}
	}

	if sibling != noNode {
		t.root = t.newNode(false, []uint32{t.root, sibling})
		t.height++
	}
	t.size++
	return nil
}

// chooseChild picks the child needing the least volume enlargement to cover
// r. Ties fall back to margin enlargement, then smaller volume, then the
// lower position.
func (t *Tree) chooseChild(id uint32, r rect) uint32 {
	children := t.nodes[id].children
	best := children[0]
	var bestVolEnl, bestMarginEnl, bestVol float64
	for i, c := range children {
		b := t.nodes[c].bounds
		vol := b.volume()
		newVol, newMargin := b.enlarged(r)
		volEnl := newVol - vol
		marginEnl := newMargin - b.margin()
		if i == 0 ||
			volEnl < bestVolEnl ||
			(volEnl == bestVolEnl && marginEnl < bestMarginEnl) ||
			(volEnl == bestVolEnl && marginEnl == bestMarginEnl && vol < bestVol) {
			best, bestVolEnl, bestMarginEnl, bestVol = c, volEnl, marginEnl, vol
		}
	}
	return best
}

// split moves part of the overflowing node id into a new sibling and returns
// the sibling index.
func (t *Tree) split(id uint32) uint32 {
	leaf := t.nodes[id].leaf
	entries := slices.Clone(t.nodes[id].children)
	rects := make([]rect, len(entries))
	for i, c := range entries {
		rects[i] = t.entryRect(id, c)
	}

	dim := spreadDimension(rects)
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
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

	minFill := max(1, len(entries)*2/5)
	cut := bestCut(rects, order, minFill)

	left := make([]uint32, 0, cut)
	right := make([]uint32, 0, len(entries)-cut)
	for i, o := range order {
		if i < cut {
			left = append(left, entries[o])
		} else {
			right = append(right, entries[o])
		}
	}

	t.nodes[id].children = left
	t.recomputeBounds(id)
	return t.newNode(leaf, right)
}

// bestCut returns the split position in [minFill, n-minFill] that minimizes
// the summed volume of both halves, then their summed margin. The earliest
// position wins remaining ties.
func bestCut(rects []rect, order []int, minFill int) int {
	n := len(order)
	prefix := make([]rect, n)
	suffix := make([]rect, n)
	prefix[0] = rects[order[0]].clone()
	for i := 1; i < n; i++ {
		prefix[i] = prefix[i-1].clone()
		prefix[i].extend(rects[order[i]])
	}
	suffix[n-1] = rects[order[n-1]].clone()
	for i := n - 2; i >= 0; i-- {
		suffix[i] = suffix[i+1].clone()
		suffix[i].extend(rects[order[i]])
	}

	best := minFill
	bestVol, bestMargin := -1.0, -1.0
	for cut := minFill; cut <= n-minFill; cut++ {
		l, r := prefix[cut-1], suffix[cut]
		vol := l.volume() + r.volume()
		margin := l.margin() + r.margin()
		if bestVol < 0 || vol < bestVol || (vol == bestVol && margin < bestMargin) {
			best, bestVol, bestMargin = cut, vol, margin
		}
	}
	return best
}

// spreadDimension returns the dimension along which entry centers are most
// spread out. The lowest dimension wins ties.
func spreadDimension(rects []rect) int {
	dims := len(rects[0].min)
	best, bestSpread := 0, float32(-1)
	for d := 0; d < dims; d++ {
		lo, hi := rects[0].center(d), rects[0].center(d)
		for _, r := range rects[1:] {
			c := r.center(d)
			lo = min(lo, c)
			hi = max(hi, c)
		}
		if spread := hi - lo; spread > bestSpread {
			best, bestSpread = d, spread
		}
	}
	return best
}
