// Package mmap maps immutable index files read-only into memory.
//
// Merged text indexes and persisted vector stores are written once and then
// only read, so loading them through a shared read-only mapping avoids
// copying the file into the Go heap. Platforms without mmap fall back to
// reading the whole file.
package mmap
