// Package spimi builds an inverted index with single-pass in-memory
// indexing.
//
// Documents are analyzed and accumulated into a block bounded by a posting
// budget and the resource controller's memory budget. A full block is
// sorted and spilled to a segment file. Once the source is exhausted the
// segments are merged with a k-way merge over their sorted term lists into
// a single index blob, which is published through the manifest.
//
// A journal written after every spill allows an interrupted build to resume:
// segments the journal does not list are discarded and the documents the
// listed segments cover are skipped.
package spimi
