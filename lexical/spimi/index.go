package spimi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"

	"github.com/hupe1980/songsim/blobstore"
	"github.com/hupe1980/songsim/internal/manifest"
)

// Index is a merged, immutable inverted index. It is safe for concurrent
// readers.
type Index struct {
	buildID     string
	docs        []DocInfo
	terms       []string
	postings    [][]Posting
	lookup      map[string]int
	totalLength uint64
}

func newIndex(buildID string) *Index {
	return &Index{buildID: buildID, lookup: make(map[string]int)}
}

// BuildID identifies the build that produced the index.
func (x *Index) BuildID() string { return x.buildID }

// NumDocs returns the number of indexed documents.
func (x *Index) NumDocs() int { return len(x.docs) }

// NumTerms returns the vocabulary size.
func (x *Index) NumTerms() int { return len(x.terms) }

// Doc returns the document with the given ordinal.
func (x *Index) Doc(ord uint32) DocInfo { return x.docs[ord] }

// Postings returns the posting list of term sorted by document ordinal, or
// nil if the term is not in the vocabulary. The slice must not be modified.
func (x *Index) Postings(term string) []Posting {
	i, ok := x.lookup[term]
	if !ok {
		return nil
	}
	return x.postings[i]
}

// DF returns the document frequency of term.
func (x *Index) DF(term string) int { return len(x.Postings(term)) }

// AvgDocLength returns the mean number of indexed terms per document.
func (x *Index) AvgDocLength() float64 {
	if len(x.docs) == 0 {
		return 0
	}
	return float64(x.totalLength) / float64(len(x.docs))
}

// All iterates the vocabulary in term order.
func (x *Index) All() iter.Seq2[string, []Posting] {
	return func(yield func(string, []Posting) bool) {
		for i, term := range x.terms {
			if !yield(term, x.postings[i]) {
				return
			}
		}
	}
}

// sink adapts an Index to the merge output.
func (x *Index) sink() indexSink { return indexSink{x} }

type indexSink struct{ x *Index }

func (s indexSink) docs(docs []DocInfo) error {
	s.x.docs = docs
	for _, d := range docs {
		s.x.totalLength += uint64(d.Length)
	}
	return nil
}

func (s indexSink) term(term string, postings []Posting) error {
	s.x.lookup[term] = len(s.x.terms)
	s.x.terms = append(s.x.terms, term)
	s.x.postings = append(s.x.postings, slices.Clone(postings))
	return nil
}

// teeSink forwards merge output to several sinks.
type teeSink []mergeSink

func (t teeSink) docs(docs []DocInfo) error {
	for _, s := range t {
		if err := s.docs(docs); err != nil {
			return err
		}
	}
	return nil
}

func (t teeSink) term(term string, postings []Posting) error {
	for _, s := range t {
		if err := s.term(term, postings); err != nil {
			return err
		}
	}
	return nil
}

// encoderSink writes merge output in the index layout.
type encoderSink struct{ e *encoder }

func (s encoderSink) docs(docs []DocInfo) error { return s.e.writeDocs(docs) }
func (s encoderSink) term(term string, postings []Posting) error {
	return s.e.writeTerm(term, postings)
}

// ReadIndex decodes an index blob.
func ReadIndex(r io.Reader) (*Index, error) {
	dec, err := newDecoder(r)
	if err != nil {
		return nil, err
	}
	if dec.kind != kindIndex {
		return nil, corrupt("not an index blob")
	}
	x := newIndex(dec.buildID)
	sink := x.sink()
	_ = sink.docs(dec.docs)
	for {
		term, postings, err := dec.next()
		if errors.Is(err, io.EOF) {
			return x, nil
		}
		if err != nil {
			return nil, err
		}
		_ = sink.term(term, postings)
	}
}

// Load opens the text index published in store.
func Load(ctx context.Context, store blobstore.BlobStore) (*Index, error) {
	m, err := manifest.NewStore(store).Load(ctx)
	if errors.Is(err, manifest.ErrNotFound) {
		return nil, ErrNoIndex
	}
	if err != nil {
		return nil, err
	}
	if m.Text == nil {
		return nil, ErrNoIndex
	}

	blob, err := store.Open(ctx, m.Text.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", m.Text.Path, err)
	}
	defer blob.Close()

	x, err := ReadIndex(blobstore.NewReader(ctx, blob))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", m.Text.Path, err)
	}
	if x.buildID != m.Text.BuildID {
		return nil, corrupt("index build %q does not match manifest build %q", x.buildID, m.Text.BuildID)
	}
	return x, nil
}
