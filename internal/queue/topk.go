package queue

// TopK keeps the k best (smallest) items seen so far.
type TopK struct {
	k    int
	heap *PriorityQueue
}

// NewTopK returns a collector for the k smallest items.
func NewTopK(k int) *TopK {
	return &TopK{k: k, heap: NewMax(k)}
}

// Offer adds the item if it beats the current worst entry.
// It reports whether the item was kept.
func (t *TopK) Offer(item Item) bool {
	if t.k <= 0 {
		return false
	}
	if t.heap.Len() < t.k {
		t.heap.Push(item)
		return true
	}
	worst, _ := t.heap.Top()
	if !Before(item, worst) {
		return false
	}
	t.heap.ReplaceTop(item)
	return true
}

// Full reports whether k items have been collected.
func (t *TopK) Full() bool { return t.heap.Len() >= t.k }

// Worst returns the current k-th best item.
func (t *TopK) Worst() (Item, bool) { return t.heap.Top() }

// Len returns the number of collected items.
func (t *TopK) Len() int { return t.heap.Len() }

// Drain empties the collector and returns the items in ascending order.
func (t *TopK) Drain() []Item {
	out := make([]Item, t.heap.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i], _ = t.heap.Pop()
	}
	return out
}
