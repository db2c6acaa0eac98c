// Package compress provides self-describing block compression for segment
// and index bodies using LZ4 (fast) or Zstandard (compact).
package compress
