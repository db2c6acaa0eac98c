package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinQueue(t *testing.T) {
	pq := NewMin(4)
	for i, d := range []float32{5, 1, 3, 1, 4} {
		pq.Push(Item{ID: uint32(i), Distance: d})
	}
	require.Equal(t, 5, pq.Len())

	var got []Item
	for pq.Len() > 0 {
		it, ok := pq.Pop()
		require.True(t, ok)
		got = append(got, it)
	}
	assert.Equal(t, []Item{{1, 1}, {3, 1}, {2, 3}, {4, 4}, {0, 5}}, got)

	_, ok := pq.Pop()
	assert.False(t, ok)
}

func TestMaxQueueTieBreak(t *testing.T) {
	pq := NewMax(2)
	pq.Push(Item{ID: 1, Distance: 2})
	pq.Push(Item{ID: 7, Distance: 2})
	top, ok := pq.Top()
	require.True(t, ok)
	assert.Equal(t, uint32(7), top.ID)

	pq.Reset()
	assert.Equal(t, 0, pq.Len())
}

func TestTopK(t *testing.T) {
	tk := NewTopK(3)
	for i, d := range []float32{9, 2, 2, 7, 1, 2} {
		tk.Offer(Item{ID: uint32(i), Distance: d})
	}
	assert.True(t, tk.Full())
	worst, ok := tk.Worst()
	require.True(t, ok)
	assert.Equal(t, Item{ID: 2, Distance: 2}, worst)

	assert.Equal(t, []Item{{4, 1}, {1, 2}, {2, 2}}, tk.Drain())
	assert.Equal(t, 0, tk.Len())
}

func TestTopKZero(t *testing.T) {
	tk := NewTopK(0)
	assert.False(t, tk.Offer(Item{ID: 1, Distance: 1}))
	assert.Empty(t, tk.Drain())
}
