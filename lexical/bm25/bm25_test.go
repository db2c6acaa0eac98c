package bm25

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/songsim/blobstore"
	"github.com/hupe1980/songsim/lexical"
	"github.com/hupe1980/songsim/lexical/spimi"
)

func testIndex(t *testing.T) *spimi.Index {
	t.Helper()
	b, err := spimi.New(t.TempDir())
	require.NoError(t, err)
	idx, _, err := b.Build(context.Background(), lexical.SliceSource{
		{ID: "1", Text: "quick brown fox", Language: "en"},
		{ID: "2", Text: "jumped over lazy dog", Language: "en"},
		{ID: "3", Text: "quick brown dogs", Language: "en"},
		{ID: "4", Text: "fox and dog", Language: "en"},
	}, blobstore.NewMemoryStore())
	require.NoError(t, err)
	return idx
}

func TestRanker_TopK(t *testing.T) {
	r := New(testIndex(t))

	results, err := r.TopK("fox", "en", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Both documents contain "fox" once; the shorter one ranks first.
	assert.Equal(t, "4", results[0].DocID)
	assert.Equal(t, "1", results[1].DocID)
	assert.Greater(t, results[0].Score, results[1].Score)

	// N=4, df=2, |d4|=2 and avgdl=11/4 once stopwords are removed.
	idf := math.Log(1 + (4-2+0.5)/(2+0.5))
	want := idf * 2.2 / (1 + 1.2*(1-0.75+0.75*2.0/2.75))
	assert.InDelta(t, want, results[0].Score, 1e-12)
}

func TestRanker_StemmedTerms(t *testing.T) {
	r := New(testIndex(t))

	results, err := r.TopK("dogs", "en", 10)
	require.NoError(t, err)

	ids := make([]string, len(results))
	for i, res := range results {
		ids[i] = res.DocID
	}
	assert.ElementsMatch(t, []string{"2", "3", "4"}, ids)
}

func TestRanker_EmptyResults(t *testing.T) {
	r := New(testIndex(t))

	results, err := r.TopK("zeppelin", "en", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = r.TopK("fox", "en", 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = r.TopK("fox", "en", -1)
	assert.ErrorIs(t, err, lexical.ErrInvalidK)
}
