package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/songsim/internal/compress"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "songsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "local", cfg.Store.Type)
	assert.Equal(t, compress.LZ4, cfg.Build.Compression)
	assert.Equal(t, compress.Zstd, cfg.Build.IndexCompression)
	assert.Equal(t, "track_id", cfg.Corpus.ID)
	assert.True(t, cfg.Text.Stem)
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
store:
  type: minio
  bucket: songs
  endpoint: localhost:9000
build:
  dir: /tmp/build
  compression: zstd
  max_block_postings: 4096
text:
  ranking: bm25
  stopwords: false
knn:
  backend: ivf
  metric: cosine
  clusters: 32
log:
  level: debug
  format: json
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "minio", cfg.Store.Type)
	assert.Equal(t, "songs", cfg.Store.Bucket)
	assert.Equal(t, compress.Zstd, cfg.Build.Compression)
	assert.Equal(t, compress.Zstd, cfg.Build.IndexCompression)
	assert.Equal(t, 4096, cfg.Build.MaxBlockPostings)
	assert.Equal(t, "bm25", cfg.Text.Ranking)
	assert.False(t, cfg.Text.Stopwords)
	assert.True(t, cfg.Text.Stem, "unset keys keep their defaults")
	assert.Equal(t, 32, cfg.KNN.Clusters)

	opts, err := cfg.engineOptions()
	require.NoError(t, err)
	assert.NotEmpty(t, opts)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"store type":  "store:\n  type: ftp\n",
		"bucket":      "store:\n  type: s3\n",
		"backend":     "knn:\n  backend: hnsw\n",
		"metric":      "knn:\n  metric: hamming\n",
		"ranking":     "text:\n  ranking: lsi\n",
		"log level":   "log:\n  level: loud\n",
		"compression": "build:\n  compression: brotli\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
