package benchmark_test

import (
	"context"
	"testing"

	"github.com/hupe1980/songsim/blobstore"
	"github.com/hupe1980/songsim/lexical"
	"github.com/hupe1980/songsim/lexical/bm25"
	"github.com/hupe1980/songsim/lexical/spimi"
	"github.com/hupe1980/songsim/lexical/tfidf"
)

func buildText(b *testing.B, docs lexical.SliceSource, optFns ...func(*spimi.Options)) *spimi.Index {
	b.Helper()
	builder, err := spimi.New(b.TempDir(), optFns...)
	if err != nil {
		b.Fatal(err)
	}
	idx, _, err := builder.Build(context.Background(), docs, blobstore.NewMemoryStore())
	if err != nil {
		b.Fatal(err)
	}
	return idx
}

// BenchmarkSPIMIBuild compares a single in-memory block against many
// spilled segments.
func BenchmarkSPIMIBuild(b *testing.B) {
	docs := rng().Lyrics(5000, 80)
	for _, tc := range []struct {
		name        string
		maxPostings int
	}{
		{"single_block", 1 << 24},
		{"spill_64k", 1 << 16},
		{"spill_8k", 1 << 13},
	} {
		b.Run(tc.name, func(b *testing.B) {
			for b.Loop() {
				buildText(b, docs, func(o *spimi.Options) { o.MaxBlockPostings = tc.maxPostings })
			}
		})
	}
}

// BenchmarkTextSearch benchmarks ranking with both scoring functions.
func BenchmarkTextSearch(b *testing.B) {
	idx := buildText(b, rng().Lyrics(20000, 80))
	rankers := map[string]lexical.Ranker{
		"tfidf":        tfidf.New(idx),
		"tfidf_cosine": tfidf.New(idx, func(o *tfidf.Options) { o.Cosine = true }),
		"tfidf_and":    tfidf.New(idx, func(o *tfidf.Options) { o.MatchAll = true }),
		"bm25":         bm25.New(idx),
	}
	for name, r := range rankers {
		b.Run(name, func(b *testing.B) {
			for b.Loop() {
				if _, err := r.TopK("neon midnight highway", "en", 10); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
