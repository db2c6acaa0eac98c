// Package songsim is a music similarity retrieval engine.
//
// An Engine holds the audio feature vectors of tracks and answers two kinds
// of queries:
//
//   - k-nearest-neighbor search over feature vectors with one of three
//     interchangeable backends: an exact sequential scan, an R-tree and an
//     inverted-file index with k-means clustering
//   - ranked text search over lyrics and track metadata with a TF-IDF
//     retriever on an inverted index built with single-pass in-memory
//     indexing (SPIMI)
//
// # Quick Start
//
//	ctx := context.Background()
//	eng, _ := songsim.New(13) // 13 MFCC coefficients per track
//
//	_ = eng.Insert(ctx, "track-1", mfcc1)
//	_ = eng.Insert(ctx, "track-2", mfcc2)
//
//	_ = eng.BuildIndex(ctx, songsim.BackendSpatialTree)
//	neighbors, elapsed, _ := eng.Search(ctx, query, 10)
//
// Text search:
//
//	src := corpus.NewCSV(corpus.FileOpener("spotify_songs.csv"))
//	stats, _ := eng.BuildTextIndex(ctx, src)
//	results, elapsed, _ := eng.TextSearch(ctx, "love is blue", "en", 10)
//
// # Concurrency
//
// Indexes are built from an immutable snapshot of the vector store and
// published atomically, so searches never observe a partially built index
// and never take a lock. Rebuilding produces a new index that replaces the
// previous one for subsequent searches.
//
// # Persistence
//
// With a blob store configured (local directory, S3 or MinIO), the text
// index is published under a manifest and can be reopened with
// LoadTextIndex. SaveVectors and LoadVectors persist the vector store so
// indexes can be rebuilt without re-extracting features.
package songsim
