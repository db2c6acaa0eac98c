// Package flat implements exact k-nearest-neighbor search by linear scan.
//
// Every query computes the distance to every vector in the snapshot, so the
// cost is O(N*D). Flat is the reference result the other backends are
// validated against: ties at equal distance are broken by insertion order,
// first inserted wins.
package flat
