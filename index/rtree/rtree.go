package rtree

import (
	"fmt"

	"github.com/hupe1980/songsim/distance"
	"github.com/hupe1980/songsim/index"
	"github.com/hupe1980/songsim/vectorstore"
)

// Compile-time checks to ensure Tree satisfies required interfaces.
var (
	_ index.Index         = (*Tree)(nil)
	_ index.RangeSearcher = (*Tree)(nil)
)

const noNode = ^uint32(0)

// Options configures the tree shape.
type Options struct {
	// Metric is the distance used for ranking. Only MetricL2 and MetricL1
	// are supported.
	Metric distance.Metric

	// LeafCapacity is the maximum number of vectors per leaf.
	LeafCapacity int

	// Fanout is the maximum number of children per internal node.
	Fanout int

	// BulkLoad selects top-down packing in Build. When false, Build inserts
	// the snapshot one vector at a time in insertion order.
	BulkLoad bool
}

// DefaultOptions contains the default tree configuration.
var DefaultOptions = Options{
	Metric:       distance.MetricL2,
	LeafCapacity: 16,
	Fanout:       16,
	BulkLoad:     true,
}

type node struct {
	leaf bool
	// children are vector ordinals in leaves and node indices otherwise.
	children []uint32
	bounds   rect
}

// Tree is an R-tree over a vector store snapshot.
type Tree struct {
	snap   *vectorstore.Snapshot
	opts   Options
	dist   distance.Func
	nodes  []node
	root   uint32
	height int
	size   int
}

// New creates an empty tree over snap. Vectors are added with Insert.
func New(snap *vectorstore.Snapshot, optFns ...func(o *Options)) (*Tree, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Metric != distance.MetricL2 && opts.Metric != distance.MetricL1 {
		return nil, fmt.Errorf("%w: rtree does not support metric %v", index.ErrInvalidConfig, opts.Metric)
	}
	if opts.LeafCapacity < 2 || opts.Fanout < 2 {
		return nil, fmt.Errorf("%w: leaf capacity and fanout must be >= 2", index.ErrInvalidConfig)
	}
	dist, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}
	return &Tree{snap: snap, opts: opts, dist: dist, root: noNode}, nil
}

// Build creates a tree containing every vector of snap.
func Build(snap *vectorstore.Snapshot, optFns ...func(o *Options)) (*Tree, error) {
	t, err := New(snap, optFns...)
	if err != nil {
		return nil, err
	}
	if t.opts.BulkLoad {
		t.bulkLoad()
		return t, nil
	}
	for i := 0; i < snap.Len(); i++ {
		if err := t.Insert(uint32(i)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Len returns the number of indexed vectors.
func (t *Tree) Len() int { return t.size }

// Dim returns the vector dimension.
func (t *Tree) Dim() int { return t.snap.Dim() }

// Metric returns the distance metric.
func (t *Tree) Metric() distance.Metric { return t.opts.Metric }

// Stats describes the shape of the tree.
type Stats struct {
	Height int
	Nodes  int
	Leaves int
	Size   int
}

// Stats returns the current tree shape.
func (t *Tree) Stats() Stats {
	s := Stats{Height: t.height, Nodes: len(t.nodes), Size: t.size}
	for i := range t.nodes {
		if t.nodes[i].leaf {
			s.Leaves++
		}
	}
	return s
}

func (t *Tree) newNode(leaf bool, children []uint32) uint32 {
	id := uint32(len(t.nodes))
	t.nodes = append(t.nodes, node{leaf: leaf, children: children})
	t.recomputeBounds(id)
	return id
}

func (t *Tree) entryRect(parent uint32, child uint32) rect {
	if t.nodes[parent].leaf {
		return pointRect(t.snap.Vector(child))
	}
	return t.nodes[child].bounds
}

func (t *Tree) recomputeBounds(id uint32) {
	n := &t.nodes[id]
	if len(n.children) == 0 {
		n.bounds = rect{}
		return
	}
	b := t.entryRect(id, n.children[0]).clone()
	for _, c := range n.children[1:] {
		b.extend(t.entryRect(id, c))
	}
	n.bounds = b
}

func (t *Tree) capacity(id uint32) int {
	if t.nodes[id].leaf {
		return t.opts.LeafCapacity
	}
	return t.opts.Fanout
}
