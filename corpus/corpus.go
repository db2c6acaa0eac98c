package corpus

import (
	"log/slog"
	"strings"

	"github.com/hupe1980/songsim/lexical"
)

// Fields maps record fields to document parts.
type Fields struct {
	// ID is the field holding the document id.
	ID string

	// Text is the field holding the main text, usually lyrics.
	Text string

	// Language is an optional field holding an ISO 639-1 code.
	Language string

	// Metadata fields are appended to the text, for example track and
	// album names.
	Metadata []string
}

// Options configures a source.
type Options struct {
	Fields Fields
	Logger *slog.Logger
}

// DefaultOptions reads the columns of the Spotify songs dataset.
var DefaultOptions = Options{
	Fields: Fields{
		ID:       "track_id",
		Text:     "lyrics",
		Language: "language",
		Metadata: []string{"track_name", "track_artist", "track_album_name", "playlist_name"},
	},
}

func newOptions(optFns []func(o *Options)) Options {
	opts := DefaultOptions
	opts.Fields.Metadata = append([]string(nil), DefaultOptions.Fields.Metadata...)
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return opts
}

// WithFields overrides the field mapping.
func WithFields(f Fields) func(o *Options) {
	return func(o *Options) { o.Fields = f }
}

// WithLogger sets the logger used for skipped records.
func WithLogger(l *slog.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// document assembles a document from a field lookup.
func (f Fields) document(get func(name string) string) lexical.Document {
	parts := []string{get(f.Text)}
	for _, m := range f.Metadata {
		if v := strings.TrimSpace(get(m)); v != "" {
			parts = append(parts, v)
		}
	}
	doc := lexical.Document{
		ID:   strings.TrimSpace(get(f.ID)),
		Text: strings.Join(parts, "\n"),
	}
	if f.Language != "" {
		doc.Language = strings.TrimSpace(get(f.Language))
	}
	return doc
}
