// Package daat scores posting lists document-at-a-time.
package daat

import (
	"container/heap"
	"slices"

	"github.com/hupe1980/songsim/lexical/spimi"
)

// WeightFunc scores one occurrence of a query term in a document.
type WeightFunc func(doc, tf uint32) float64

// Term is a query term's posting list and weighting.
type Term struct {
	Postings []spimi.Posting
	Weight   WeightFunc
}

// Hit is a scored document.
type Hit struct {
	Doc   uint32
	Score float64
}

// Options tunes a search. The zero value scores every document that
// contains at least one query term.
type Options struct {
	// Filter, when set, rejects candidate documents.
	Filter func(doc uint32) bool

	// Finalize, when set, maps a document's summed score to its final score.
	Finalize func(doc uint32, score float64) float64
}

// Search returns the k best documents containing any of the terms,
// descending by score with ties broken by ascending document ordinal.
func Search(terms []Term, k int, opts Options) []Hit {
	if k <= 0 || len(terms) == 0 {
		return nil
	}
	iterators := make([]termIterator, 0, len(terms))
	for _, t := range terms {
		if len(t.Postings) > 0 {
			iterators = append(iterators, termIterator{postings: t.Postings, weight: t.Weight})
		}
	}

	h := make(hitHeap, 0, k)
	for {
		// Linear scan is fine for the handful of terms in a query.
		minDoc := exhausted
		for i := range iterators {
			if doc := iterators[i].doc(); doc < minDoc {
				minDoc = doc
			}
		}
		if minDoc == exhausted {
			break
		}

		var score float64
		for i := range iterators {
			it := &iterators[i]
			if it.doc() == minDoc {
				score += it.weight(minDoc, it.tf())
				it.next()
			}
		}

		if opts.Filter != nil && !opts.Filter(minDoc) {
			continue
		}
		if opts.Finalize != nil {
			score = opts.Finalize(minDoc, score)
		}

		hit := Hit{Doc: minDoc, Score: score}
		switch {
		case len(h) < k:
			heap.Push(&h, hit)
		case better(hit, h[0]):
			h[0] = hit
			heap.Fix(&h, 0)
		}
	}

	hits := []Hit(h)
	slices.SortFunc(hits, func(a, b Hit) int {
		switch {
		case better(a, b):
			return -1
		case better(b, a):
			return 1
		}
		return 0
	})
	return hits
}

func better(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Doc < b.Doc
}

// hitHeap keeps the worst retained hit at the root.
type hitHeap []Hit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x any)        { *h = append(*h, x.(Hit)) }
func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
