package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/hupe1980/songsim/lexical"
)

// SQLSource reads documents with a query. Result columns are matched to
// the field mapping by name, so the query should alias them accordingly.
type SQLSource struct {
	db    *sql.DB
	query string
	args  []any
	opts  Options
}

var _ lexical.Source = (*SQLSource)(nil)

// NewSQL creates a source running query with args on every pass. The query
// must order its rows deterministically for builds to be resumable.
func NewSQL(db *sql.DB, query string, args []any, optFns ...func(o *Options)) *SQLSource {
	return &SQLSource{db: db, query: query, args: args, opts: newOptions(optFns)}
}

// Documents implements lexical.Source.
func (s *SQLSource) Documents(ctx context.Context) iter.Seq2[lexical.Document, error] {
	return func(yield func(lexical.Document, error) bool) {
		rows, err := s.db.QueryContext(ctx, s.query, s.args...)
		if err != nil {
			yield(lexical.Document{}, fmt.Errorf("query corpus: %w", err))
			return
		}
		defer rows.Close()

		names, err := rows.Columns()
		if err != nil {
			yield(lexical.Document{}, err)
			return
		}
		columns := make(map[string]int, len(names))
		for i, name := range names {
			columns[name] = i
		}
		if _, ok := columns[s.opts.Fields.ID]; !ok {
			yield(lexical.Document{}, fmt.Errorf("missing id column %q", s.opts.Fields.ID))
			return
		}

		values := make([]sql.NullString, len(names))
		dest := make([]any, len(names))
		for i := range values {
			dest[i] = &values[i]
		}

		for rows.Next() {
			if err := rows.Scan(dest...); err != nil {
				yield(lexical.Document{}, fmt.Errorf("scan corpus row: %w", err))
				return
			}
			doc := s.opts.Fields.document(func(name string) string {
				i, ok := columns[name]
				if !ok {
					return ""
				}
				return values[i].String
			})
			if !yield(doc, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(lexical.Document{}, err)
		}
	}
}
