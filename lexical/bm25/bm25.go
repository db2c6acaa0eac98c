package bm25

import (
	"maps"
	"math"
	"slices"

	"github.com/hupe1980/songsim/lexical"
	"github.com/hupe1980/songsim/lexical/analysis"
	"github.com/hupe1980/songsim/lexical/internal/daat"
	"github.com/hupe1980/songsim/lexical/spimi"
)

// Options configures a Ranker.
type Options struct {
	// K1 controls term frequency saturation.
	K1 float64

	// B controls document length normalization.
	B float64

	// Analyzer tokenizes queries.
	Analyzer *analysis.Analyzer
}

// DefaultOptions contains the standard BM25 parameters.
var DefaultOptions = Options{
	K1: 1.2,
	B:  0.75,
}

// Ranker scores documents with BM25. It is safe for concurrent use.
type Ranker struct {
	idx  *spimi.Index
	opts Options
}

var _ lexical.Ranker = (*Ranker)(nil)

// New creates a ranker over idx.
func New(idx *spimi.Index, optFns ...func(o *Options)) *Ranker {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Analyzer == nil {
		opts.Analyzer = analysis.New()
	}
	return &Ranker{idx: idx, opts: opts}
}

// IDF = log(1 + (N - n + 0.5) / (n + 0.5))
func (r *Ranker) computeIDF(df int) float64 {
	n := float64(r.idx.NumDocs())
	d := float64(df)
	return math.Log(1 + (n-d+0.5)/(d+0.5))
}

// TopK returns the k highest scoring documents for query.
func (r *Ranker) TopK(query, language string, k int) ([]lexical.Result, error) {
	if k < 0 {
		return nil, lexical.ErrInvalidK
	}
	if k == 0 || r.idx.NumDocs() == 0 {
		return []lexical.Result{}, nil
	}

	lang := r.opts.Analyzer.Language(query, language)
	qtf := make(map[string]int)
	for _, t := range r.opts.Analyzer.Analyze(query, lang) {
		qtf[t]++
	}

	// Precompute BM25 constants for this query
	k1Plus1 := r.opts.K1 + 1
	k1B := r.opts.K1 * (1 - r.opts.B)
	k1BAvgDL := r.opts.K1 * r.opts.B / r.idx.AvgDocLength()

	terms := make([]daat.Term, 0, len(qtf))
	for _, term := range slices.Sorted(maps.Keys(qtf)) {
		postings := r.idx.Postings(term)
		if postings == nil {
			continue
		}
		w := float64(qtf[term]) * r.computeIDF(len(postings))
		terms = append(terms, daat.Term{
			Postings: postings,
			Weight: func(doc, tf uint32) float64 {
				f := float64(tf)
				docLen := float64(r.idx.Doc(doc).Length)
				return w * f * k1Plus1 / (f + k1B + k1BAvgDL*docLen)
			},
		})
	}

	hits := daat.Search(terms, k, daat.Options{})
	results := make([]lexical.Result, len(hits))
	for i, h := range hits {
		results[i] = lexical.Result{DocID: r.idx.Doc(h.Doc).ID, Score: h.Score}
	}
	return results, nil
}
