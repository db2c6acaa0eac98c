package corpus

import (
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/hupe1980/songsim/lexical"
)

func stringOpener(s string) OpenFunc {
	return func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(s)), nil }
}

func collect(t *testing.T, src lexical.Source) []lexical.Document {
	t.Helper()
	var docs []lexical.Document
	for doc, err := range src.Documents(context.Background()) {
		require.NoError(t, err)
		docs = append(docs, doc)
	}
	return docs
}

func TestJSONL(t *testing.T) {
	input := `{"track_id":"t1","lyrics":"love is blue","language":"en","track_name":"Blue"}
not json

{"track_id":"t2","lyrics":"blue skies","duration_ms":181000}
`
	src := NewJSONL(stringOpener(input))
	docs := collect(t, src)

	assert.Equal(t, []lexical.Document{
		{ID: "t1", Text: "love is blue\nBlue", Language: "en"},
		{ID: "t2", Text: "blue skies"},
	}, docs)

	// Every pass yields the same sequence.
	assert.Equal(t, docs, collect(t, src))
}

func TestJSONL_CustomFields(t *testing.T) {
	src := NewJSONL(stringOpener(`{"id":7,"body":"hello","artist":"someone"}`),
		WithFields(Fields{ID: "id", Text: "body", Metadata: []string{"artist"}}))
	assert.Equal(t, []lexical.Document{{ID: "7", Text: "hello\nsomeone"}}, collect(t, src))
}

func TestJSONL_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"track_id":"a","lyrics":"x"}`+"\n"), 0o644))

	docs := collect(t, NewJSONL(FileOpener(path)))
	assert.Equal(t, []lexical.Document{{ID: "a", Text: "x"}}, docs)

	src := NewJSONL(FileOpener(filepath.Join(t.TempDir(), "missing.jsonl")))
	for _, err := range src.Documents(context.Background()) {
		assert.ErrorIs(t, err, os.ErrNotExist)
	}
}

func TestCSV(t *testing.T) {
	input := "track_id,track_name,lyrics,language\n" +
		"t1,Blue,love is blue,en\n" +
		"t2,,\"blue skies, again\",\n" +
		"t3,Short\n"
	docs := collect(t, NewCSV(stringOpener(input)))

	assert.Equal(t, []lexical.Document{
		{ID: "t1", Text: "love is blue\nBlue", Language: "en"},
		{ID: "t2", Text: "blue skies, again"},
		{ID: "t3", Text: "\nShort"},
	}, docs)
}

func TestCSV_MissingIDColumn(t *testing.T) {
	src := NewCSV(stringOpener("name,lyrics\na,b\n"))
	var errs []error
	for _, err := range src.Documents(context.Background()) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "track_id")
}

func TestCSV_Empty(t *testing.T) {
	assert.Empty(t, collect(t, NewCSV(stringOpener(""))))
}

func TestSQL(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE spotify_songs (
		track_id TEXT PRIMARY KEY,
		lyrics TEXT,
		language TEXT,
		track_album_name TEXT,
		duration_ms INTEGER
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO spotify_songs VALUES
		('t2', 'blue skies', NULL, 'Skies', 181000),
		('t1', 'love is blue', 'en', NULL, 200000)`)
	require.NoError(t, err)

	src := NewSQL(db,
		"SELECT track_id, lyrics, language, track_album_name FROM spotify_songs WHERE duration_ms > ? ORDER BY track_id",
		[]any{1000})
	assert.Equal(t, []lexical.Document{
		{ID: "t1", Text: "love is blue", Language: "en"},
		{ID: "t2", Text: "blue skies\nSkies"},
	}, collect(t, src))
}

func TestSQL_Cancelled(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := NewSQL(db, "SELECT 1 AS track_id", nil)
	for _, err := range src.Documents(ctx) {
		assert.Error(t, err)
	}
}
