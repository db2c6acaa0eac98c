package tfidf

import (
	"maps"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/songsim/lexical"
	"github.com/hupe1980/songsim/lexical/analysis"
	"github.com/hupe1980/songsim/lexical/internal/daat"
	"github.com/hupe1980/songsim/lexical/spimi"
)

// Options configures a Retriever.
type Options struct {
	// Cosine divides scores by the document's TF-IDF vector norm.
	Cosine bool

	// MatchAll only returns documents containing every query term.
	MatchAll bool

	// Analyzer tokenizes queries. It must apply the rules the index was
	// built with.
	Analyzer *analysis.Analyzer
}

// DefaultOptions contains the default retriever configuration.
var DefaultOptions = Options{}

// Retriever ranks documents of an index. It is safe for concurrent use.
type Retriever struct {
	idx   *spimi.Index
	opts  Options
	norms []float64
}

var _ lexical.Ranker = (*Retriever)(nil)

// New creates a retriever over idx.
func New(idx *spimi.Index, optFns ...func(o *Options)) *Retriever {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Analyzer == nil {
		opts.Analyzer = analysis.New()
	}

	r := &Retriever{idx: idx, opts: opts}
	if opts.Cosine {
		r.norms = documentNorms(idx)
	}
	return r
}

// IDF returns ln(N/df) for an indexed term and 0 otherwise.
func (r *Retriever) IDF(term string) float64 {
	return idf(r.idx.NumDocs(), r.idx.DF(term))
}

func idf(n, df int) float64 {
	if df == 0 {
		return 0
	}
	return math.Log(float64(n) / float64(df))
}

func documentNorms(idx *spimi.Index) []float64 {
	norms := make([]float64, idx.NumDocs())
	for _, postings := range idx.All() {
		w := idf(idx.NumDocs(), len(postings))
		for _, p := range postings {
			x := float64(p.TF) * w
			norms[p.Doc] += x * x
		}
	}
	for i := range norms {
		norms[i] = math.Sqrt(norms[i])
	}
	return norms
}

// TopK returns the k highest scoring documents for query. language selects
// the analysis rules; empty detects it from the query. k == 0 and queries
// without indexed terms return an empty result.
func (r *Retriever) TopK(query, language string, k int) ([]lexical.Result, error) {
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

	n := r.idx.NumDocs()
	terms := make([]daat.Term, 0, len(qtf))
	var lists [][]spimi.Posting
	for _, term := range slices.Sorted(maps.Keys(qtf)) {
		postings := r.idx.Postings(term)
		if postings == nil {
			if r.opts.MatchAll {
				return []lexical.Result{}, nil
			}
			continue
		}
		w := float64(qtf[term]) * idf(n, len(postings))
		terms = append(terms, daat.Term{
			Postings: postings,
			Weight:   func(_, tf uint32) float64 { return float64(tf) * w },
		})
		lists = append(lists, postings)
	}
	if len(terms) == 0 {
		return []lexical.Result{}, nil
	}

	var opts daat.Options
	if r.opts.MatchAll && len(lists) > 1 {
		all := intersect(lists)
		if all.IsEmpty() {
			return []lexical.Result{}, nil
		}
		opts.Filter = all.Contains
	}
	if r.opts.Cosine {
		opts.Finalize = func(doc uint32, score float64) float64 {
			if r.norms[doc] == 0 {
				return 0
			}
			return score / r.norms[doc]
		}
	}

	hits := daat.Search(terms, k, opts)
	results := make([]lexical.Result, len(hits))
	for i, h := range hits {
		results[i] = lexical.Result{DocID: r.idx.Doc(h.Doc).ID, Score: h.Score}
	}
	return results, nil
}

// intersect returns the documents present in every posting list.
func intersect(lists [][]spimi.Posting) *roaring.Bitmap {
	bitmaps := make([]*roaring.Bitmap, len(lists))
	for i, postings := range lists {
		bm := roaring.New()
		for _, p := range postings {
			bm.Add(p.Doc)
		}
		bitmaps[i] = bm
	}
	return roaring.FastAnd(bitmaps...)
}
