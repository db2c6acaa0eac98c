// Package distance provides the vector distance functions used by every
// k-nearest-neighbor backend.
//
// All functions take float32 slices of equal length and return a
// non-negative distance where smaller means more similar. Callers are
// responsible for checking dimensions before calling into this package.
package distance
