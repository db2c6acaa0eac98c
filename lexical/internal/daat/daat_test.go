package daat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/songsim/lexical/spimi"
)

func constant(w float64) WeightFunc {
	return func(_, tf uint32) float64 { return w * float64(tf) }
}

func TestSearch(t *testing.T) {
	terms := []Term{
		{Postings: []spimi.Posting{{Doc: 0, TF: 1}, {Doc: 2, TF: 3}, {Doc: 5, TF: 1}}, Weight: constant(1)},
		{Postings: []spimi.Posting{{Doc: 2, TF: 1}, {Doc: 3, TF: 2}}, Weight: constant(2)},
	}

	hits := Search(terms, 10, Options{})
	assert.Equal(t, []Hit{
		{Doc: 2, Score: 5},
		{Doc: 3, Score: 4},
		{Doc: 0, Score: 1},
		{Doc: 5, Score: 1},
	}, hits)

	hits = Search(terms, 2, Options{})
	assert.Equal(t, []Hit{{Doc: 2, Score: 5}, {Doc: 3, Score: 4}}, hits)
}

func TestSearch_TiesByDoc(t *testing.T) {
	terms := []Term{
		{Postings: []spimi.Posting{{Doc: 4, TF: 1}, {Doc: 7, TF: 1}, {Doc: 9, TF: 1}}, Weight: constant(0)},
	}
	hits := Search(terms, 2, Options{})
	assert.Equal(t, []Hit{{Doc: 4, Score: 0}, {Doc: 7, Score: 0}}, hits)
}

func TestSearch_FilterAndFinalize(t *testing.T) {
	terms := []Term{
		{Postings: []spimi.Posting{{Doc: 0, TF: 2}, {Doc: 1, TF: 4}, {Doc: 2, TF: 1}}, Weight: constant(1)},
	}
	hits := Search(terms, 10, Options{
		Filter:   func(doc uint32) bool { return doc != 1 },
		Finalize: func(doc uint32, score float64) float64 { return score / 2 },
	})
	assert.Equal(t, []Hit{{Doc: 0, Score: 1}, {Doc: 2, Score: 0.5}}, hits)
}

func TestSearch_Empty(t *testing.T) {
	assert.Empty(t, Search(nil, 5, Options{}))
	assert.Empty(t, Search([]Term{{Weight: constant(1)}}, 5, Options{}))
	assert.Empty(t, Search([]Term{{Postings: []spimi.Posting{{Doc: 1, TF: 1}}, Weight: constant(1)}}, 0, Options{}))
}
