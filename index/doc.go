// Package index defines the k-nearest-neighbor capability shared by every
// vector backend, and the errors they report.
//
// Three interchangeable implementations are provided:
//
//   - flat: exact linear scan, the correctness baseline
//   - rtree: balanced spatial tree with best-first exact search
//   - ivf: k-means partitioned index with approximate search
//
// # Index Selection
//
//   - flat: small stores, or when the result must be exact and cheap to build
//   - rtree: low to moderate dimensions, exact results without a full scan
//   - ivf: high dimensions, recall traded for speed via NProbe
//
// # Index Interface
//
//	type Index interface {
//	    Search(query []float32, k int) ([]Neighbor, error)
//	    Len() int
//	    Dim() int
//	    Metric() distance.Metric
//	}
//
// Built indexes are immutable and safe for concurrent readers. Rebuilding
// produces a new instance.
package index
