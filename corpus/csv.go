package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/hupe1980/songsim/lexical"
)

// CSVSource reads a CSV file with a header row.
type CSVSource struct {
	open OpenFunc
	opts Options
}

var _ lexical.Source = (*CSVSource)(nil)

// NewCSV creates a CSV source. The header row names the fields.
func NewCSV(open OpenFunc, optFns ...func(o *Options)) *CSVSource {
	return &CSVSource{open: open, opts: newOptions(optFns)}
}

// Documents implements lexical.Source.
func (s *CSVSource) Documents(ctx context.Context) iter.Seq2[lexical.Document, error] {
	return func(yield func(lexical.Document, error) bool) {
		rc, err := s.open()
		if err != nil {
			yield(lexical.Document{}, err)
			return
		}
		defer rc.Close()

		r := csv.NewReader(rc)
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		r.ReuseRecord = true

		header, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			yield(lexical.Document{}, fmt.Errorf("read header: %w", err))
			return
		}
		columns := make(map[string]int, len(header))
		for i, name := range header {
			columns[name] = i
		}
		if _, ok := columns[s.opts.Fields.ID]; !ok {
			yield(lexical.Document{}, fmt.Errorf("missing id column %q", s.opts.Fields.ID))
			return
		}

		for {
			if err := ctx.Err(); err != nil {
				yield(lexical.Document{}, err)
				return
			}
			record, err := r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var perr *csv.ParseError
				if errors.As(err, &perr) {
					s.opts.Logger.Warn("skipping malformed record", "line", perr.Line, "error", perr.Err)
					continue
				}
				yield(lexical.Document{}, err)
				return
			}
			doc := s.opts.Fields.document(func(name string) string {
				i, ok := columns[name]
				if !ok || i >= len(record) {
					return ""
				}
				return record[i]
			})
			if !yield(doc, nil) {
				return
			}
		}
	}
}
