// Package vectorstore holds the track feature vectors every KNN backend
// reads from.
//
// A Store maps track ids to fixed-dimension vectors and keeps them in a dense,
// insertion-ordered array so that backends can scan them sequentially. The
// dimension is fixed when the store is created and insertions of any other
// length are rejected.
//
// # Concurrency
//
// Store performs no locking. Index builders take a Snapshot, which is an
// immutable copy that is safe for any number of concurrent readers, before
// the store is mutated again.
//
// # File Format
//
//	+----------------+
//	|   Header       |  magic, version, dimension, count
//	+----------------+
//	|   Entries      |  uvarint id length, id bytes, dim * float32 (LE)
//	+----------------+
//	|   Checksum     |  CRC32C of everything before it
//	+----------------+
package vectorstore
