package lexical

import (
	"context"
	"errors"
	"iter"
)

// ErrInvalidK is returned for a negative result count.
var ErrInvalidK = errors.New("k must not be negative")

// Document is one unit of retrievable text, usually a track's lyrics and
// metadata.
type Document struct {
	ID   string
	Text string
	// Language is an ISO 639-1 code. Empty means detect from Text.
	Language string
}

// Source streams documents for an index build.
type Source interface {
	// Documents yields every document in a stable order. A build that is
	// resumed replays the sequence and skips the consumed prefix.
	Documents(ctx context.Context) iter.Seq2[Document, error]
}

// SliceSource is a Source over an in-memory slice.
type SliceSource []Document

// Documents implements Source.
func (s SliceSource) Documents(ctx context.Context) iter.Seq2[Document, error] {
	return func(yield func(Document, error) bool) {
		for _, doc := range s {
			if err := ctx.Err(); err != nil {
				yield(Document{}, err)
				return
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

// Result is a ranked document.
type Result struct {
	DocID string
	Score float64
}

// Ranker scores documents against a free-text query.
type Ranker interface {
	// TopK returns the k best documents, descending by score with ties by
	// document id ascending. Queries with no indexed term return no results.
	TopK(query, language string, k int) ([]Result, error)
}
