package corpus

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/hupe1980/songsim/lexical"
)

const maxLineSize = 16 << 20

// OpenFunc opens the input of a source. It is called once per pass.
type OpenFunc func() (io.ReadCloser, error)

// FileOpener opens path.
func FileOpener(path string) OpenFunc {
	return func() (io.ReadCloser, error) { return os.Open(path) }
}

// JSONLSource reads one JSON object per line.
type JSONLSource struct {
	open OpenFunc
	opts Options
}

var _ lexical.Source = (*JSONLSource)(nil)

// NewJSONL creates a JSON Lines source.
func NewJSONL(open OpenFunc, optFns ...func(o *Options)) *JSONLSource {
	return &JSONLSource{open: open, opts: newOptions(optFns)}
}

// Documents implements lexical.Source.
func (s *JSONLSource) Documents(ctx context.Context) iter.Seq2[lexical.Document, error] {
	return func(yield func(lexical.Document, error) bool) {
		rc, err := s.open()
		if err != nil {
			yield(lexical.Document{}, err)
			return
		}
		defer rc.Close()

		sc := bufio.NewScanner(rc)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		line := 0
		for sc.Scan() {
			line++
			if err := ctx.Err(); err != nil {
				yield(lexical.Document{}, err)
				return
			}
			b := bytes.TrimSpace(sc.Bytes())
			if len(b) == 0 {
				continue
			}

			var rec map[string]any
			if err := json.Unmarshal(b, &rec); err != nil {
				s.opts.Logger.Warn("skipping malformed record", "line", line, "error", err)
				continue
			}
			doc := s.opts.Fields.document(func(name string) string {
				switch v := rec[name].(type) {
				case nil:
					return ""
				case string:
					return v
				default:
					return fmt.Sprint(v)
				}
			})
			if !yield(doc, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(lexical.Document{}, fmt.Errorf("line %d: %w", line+1, err))
		}
	}
}
