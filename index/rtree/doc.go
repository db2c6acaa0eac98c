// Package rtree implements exact k-nearest-neighbor search over an R-tree.
//
// Leaves hold small batches of vectors and the bounding rectangle around
// them; internal nodes hold the bounding rectangles of their children, and
// every child rectangle is contained in its parent's. Nodes live in a single
// arena slice and refer to each other by index.
//
// # Build
//
// Build bulk-loads a snapshot top-down: entries are recursively partitioned
// along the dimension of greatest spread into full leaves, and the same
// partitioning packs each upper level. With Options.BulkLoad disabled the
// tree is built by incremental Insert calls, splitting overflowing nodes
// along the dimension of greatest spread at the cut that minimizes the summed
// volume of the two halves. Both procedures are deterministic for a given
// input order.
//
// # Search
//
// Search is best-first: nodes are expanded in order of MinDist, the smallest
// possible distance from the query to their rectangle, and any node whose
// MinDist exceeds the current k-th best distance is pruned. Results are exact
// and equal the linear scan, including tie order.
//
// MinDist is only a lower bound for coordinate-separable metrics, so the tree
// accepts MetricL2 and MetricL1.
package rtree
