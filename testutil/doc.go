// Package testutil provides testing utilities for songsim.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random feature vectors and lyrics
// corpora, computing exact nearest neighbors, and verifying search recall.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.ClusteredVectors(1000, 16, 8, 0.05) // genre-like clusters
//	snap, _ := testutil.Snapshot(vecs)
//
// # Exact Search (Ground Truth)
//
//	truth := testutil.BruteForceSearch(snap, query, k)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(truth, approx)
package testutil
