package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/songsim"
	"github.com/hupe1980/songsim/blobstore"
	"github.com/hupe1980/songsim/lexical/spimi"
)

// resetFlags restores every flag so commands can run repeatedly in one
// process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestCLI_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	buildDir := filepath.Join(dir, "build")

	cfg := writeConfig(t, "store:\n  type: local\n  path: "+storeDir+"\nbuild:\n  dir: "+buildDir+"\nlog:\n  level: error\n")

	vectors := filepath.Join(dir, "vectors.csv")
	require.NoError(t, os.WriteFile(vectors, []byte("track_id,f0,f1\na,0,0\nb,1,0\nc,5,5\n"), 0o600))

	songs := filepath.Join(dir, "songs.jsonl")
	require.NoError(t, os.WriteFile(songs, []byte(
		`{"track_id":"t1","lyrics":"love is blue","language":"en","track_name":"Blue"}`+"\n"+
			`{"track_id":"t2","lyrics":"blue skies","language":"en"}`+"\n"+
			`not json`+"\n"), 0o600))

	require.NoError(t, run(t, "--config", cfg, "knn", "import", vectors))
	require.NoError(t, run(t, "--config", cfg, "knn", "search", "--track", "a", "--k", "2", "--backend", "flat"))
	require.NoError(t, run(t, "--config", cfg, "knn", "search", "--vector", "0,0", "--k", "1"))
	require.NoError(t, run(t, "--config", cfg, "index", "build", "--jsonl", songs))
	require.NoError(t, run(t, "--config", cfg, "index", "search", "--lang", "en", "blue"))
	require.NoError(t, run(t, "--config", cfg, "index", "stats"))
	require.NoError(t, run(t, "lang", "detect", "--terms", "the river runs through the night"))

	ctx := context.Background()
	e, err := songsim.New(2, songsim.WithBlobStore(blobstore.NewLocalStore(storeDir)))
	require.NoError(t, err)
	require.NoError(t, e.LoadVectors(ctx))
	assert.Equal(t, 3, e.Len())

	require.NoError(t, e.LoadTextIndex(ctx))
	res, _, err := e.TextSearch(ctx, "love", "en", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "t1", res[0].DocID)

	unlock, err := spimi.LockDir(buildDir)
	require.NoError(t, err)
	defer func() { _ = unlock() }()
	assert.ErrorContains(t, run(t, "--config", cfg, "index", "build", "--jsonl", songs), "another build is running")
}
