package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/hupe1980/songsim"
	"github.com/hupe1980/songsim/corpus"
	"github.com/hupe1980/songsim/lexical"
	"github.com/hupe1980/songsim/lexical/spimi"
)

// textDim is the vector dimension of engines that only serve text.
const textDim = 1

var (
	flagBuildJSONL  string
	flagBuildCSV    string
	flagBuildSQLite string
	flagBuildQuery  string
	flagBuildResume bool

	flagTextLang string
	flagTextK    int
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and query the lyrics text index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the text index from a corpus and publish it",
	Args:  cobra.NoArgs,
	RunE:  runIndexBuild,
}

var indexSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank documents against a free-text query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndexSearch,
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics of the published text index",
	Args:  cobra.NoArgs,
	RunE:  runIndexStats,
}

func init() {
	bf := indexBuildCmd.Flags()
	bf.StringVar(&flagBuildJSONL, "jsonl", "", "JSON Lines corpus file")
	bf.StringVar(&flagBuildCSV, "csv", "", "CSV corpus file with a header row")
	bf.StringVar(&flagBuildSQLite, "sqlite", "", "SQLite database holding the corpus")
	bf.StringVar(&flagBuildQuery, "query", "SELECT * FROM songs", "Query selecting corpus rows from --sqlite")
	bf.BoolVar(&flagBuildResume, "resume", false, "Continue an interrupted build from its journal")
	indexBuildCmd.MarkFlagsMutuallyExclusive("jsonl", "csv", "sqlite")
	indexBuildCmd.MarkFlagsOneRequired("jsonl", "csv", "sqlite")

	indexSearchCmd.Flags().StringVar(&flagTextLang, "lang", "", "Query language (ISO 639-1); empty detects it")
	indexSearchCmd.Flags().IntVar(&flagTextK, "k", 10, "Number of results to show")

	indexCmd.AddCommand(indexBuildCmd, indexSearchCmd, indexStatsCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	unlock, err := spimi.LockDir(a.cfg.Build.Dir)
	if errors.Is(err, spimi.ErrLocked) {
		return fmt.Errorf("another build is running in %s", a.cfg.Build.Dir)
	}
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	src, closeSrc, err := openCorpus(a)
	if err != nil {
		return err
	}
	defer closeSrc()

	e, err := a.engine(textDim, songsim.WithSPIMIOptions(func(o *spimi.Options) {
		o.Resume = flagBuildResume
	}))
	if err != nil {
		return err
	}

	stats, err := e.BuildTextIndex(ctx, src)
	if err != nil {
		return err
	}

	fmt.Printf("Built index %s\n", stats.BuildID)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  documents\t%d\n", stats.Documents)
	fmt.Fprintf(tw, "  skipped\t%d\n", stats.Skipped)
	fmt.Fprintf(tw, "  segments\t%d\n", stats.Segments)
	fmt.Fprintf(tw, "  terms\t%d\n", stats.Terms)
	fmt.Fprintf(tw, "  postings\t%d\n", stats.Postings)
	fmt.Fprintf(tw, "  bytes\t%d\n", stats.Bytes)
	fmt.Fprintf(tw, "  resumed\t%t\n", stats.Resumed)
	fmt.Fprintf(tw, "  duration\t%s\n", stats.Duration)
	return tw.Flush()
}

// openCorpus opens the source selected by the build flags.
func openCorpus(a *app) (lexical.Source, func(), error) {
	opts := a.cfg.corpusOptions(a.logger)
	switch {
	case flagBuildJSONL != "":
		return corpus.NewJSONL(corpus.FileOpener(flagBuildJSONL), opts...), func() {}, nil
	case flagBuildCSV != "":
		return corpus.NewCSV(corpus.FileOpener(flagBuildCSV), opts...), func() {}, nil
	default:
		db, err := sql.Open("sqlite", flagBuildSQLite)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", flagBuildSQLite, err)
		}
		return corpus.NewSQL(db, flagBuildQuery, nil, opts...), func() { _ = db.Close() }, nil
	}
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	e, err := a.engine(textDim)
	if err != nil {
		return err
	}
	if err := e.LoadTextIndex(ctx); err != nil {
		return err
	}

	query := strings.Join(args, " ")
	results, elapsed, err := e.TextSearch(ctx, query, flagTextLang, flagTextK)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No matching documents.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tDOCUMENT\tSCORE")
	for i, r := range results {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\n", i+1, r.DocID, r.Score)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d results in %s\n", len(results), elapsed)
	return nil
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	e, err := a.engine(textDim)
	if err != nil {
		return err
	}
	if err := e.LoadTextIndex(ctx); err != nil {
		return err
	}
	idx, _ := e.TextIndex()

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "build\t%s\n", idx.BuildID())
	fmt.Fprintf(tw, "documents\t%d\n", idx.NumDocs())
	fmt.Fprintf(tw, "terms\t%d\n", idx.NumTerms())
	fmt.Fprintf(tw, "avg length\t%.2f\n", idx.AvgDocLength())
	return tw.Flush()
}
