package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/songsim"
	"github.com/hupe1980/songsim/internal/manifest"
)

var (
	flagKNNBackend string
	flagKNNK       int
	flagKNNTrack   string
	flagKNNVector  string
	flagKNNRadius  float64
)

var knnCmd = &cobra.Command{
	Use:   "knn",
	Short: "Import feature vectors and search nearest neighbors",
}

var knnImportCmd = &cobra.Command{
	Use:   "import <vectors.csv>",
	Short: "Load track vectors from CSV and save them to the store",
	Long: `Each row holds a track id followed by the vector components. A first
row whose components are not numbers is treated as a header.`,
	Args: cobra.ExactArgs(1),
	RunE: runKNNImport,
}

var knnSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find the nearest tracks to a track or a vector",
	Args:  cobra.NoArgs,
	RunE:  runKNNSearch,
}

func init() {
	knnSearchCmd.Flags().StringVar(&flagKNNBackend, "backend", "", "Backend: sequential, spatial_tree or approximate (default from config)")
	knnSearchCmd.Flags().IntVar(&flagKNNK, "k", 10, "Number of neighbors")
	knnSearchCmd.Flags().StringVar(&flagKNNTrack, "track", "", "Search neighbors of an imported track")
	knnSearchCmd.Flags().StringVar(&flagKNNVector, "vector", "", "Comma-separated query vector")
	knnSearchCmd.Flags().Float64Var(&flagKNNRadius, "radius", 0, "Return every track within radius of --vector instead of the k nearest")
	knnSearchCmd.MarkFlagsMutuallyExclusive("track", "vector")
	knnSearchCmd.MarkFlagsOneRequired("track", "vector")

	knnCmd.AddCommand(knnImportCmd, knnSearchCmd)
	rootCmd.AddCommand(knnCmd)
}

// trackVector is one row of a vectors file.
type trackVector struct {
	ID     string
	Vector []float32
}

// readVectors parses a vectors CSV. Every row must have the dimension of
// the first one.
func readVectors(r io.Reader) ([]trackVector, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []trackVector
	dim := -1
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: want a track id and at least one component", line)
		}

		vec, err := parseVector(rec[1:])
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if dim < 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return nil, fmt.Errorf("line %d: %w", line, &songsim.ErrDimensionMismatch{Expected: dim, Actual: len(vec)})
		}
		out = append(out, trackVector{ID: rec[0], Vector: vec})
	}
}

func parseVector(fields []string) ([]float32, error) {
	vec := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		vec[i] = float32(v)
	}
	return vec, nil
}

func runKNNImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := readVectors(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s: no vectors", args[0])
	}

	e, err := a.engine(len(rows[0].Vector))
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := e.Insert(ctx, row.ID, row.Vector); err != nil {
			return fmt.Errorf("track %s: %w", row.ID, err)
		}
	}
	if err := e.SaveVectors(ctx); err != nil {
		return err
	}
	fmt.Printf("Imported %d tracks of dimension %d\n", e.Len(), e.Dim())
	return nil
}

// openVectors creates an engine over the saved vectors.
func openVectors(ctx context.Context, a *app) (*songsim.Engine, error) {
	m, err := manifest.NewStore(a.store).Load(ctx)
	if errors.Is(err, manifest.ErrNotFound) || (err == nil && m.Vectors == nil) {
		return nil, errors.New("no vectors imported; run 'songsim knn import' first")
	}
	if err != nil {
		return nil, err
	}

	e, err := a.engine(m.Vectors.Dim)
	if err != nil {
		return nil, err
	}
	if err := e.LoadVectors(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func runKNNSearch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	name := a.cfg.KNN.Backend
	if flagKNNBackend != "" {
		name = flagKNNBackend
	}
	backend, err := songsim.ParseBackend(name)
	if err != nil {
		return err
	}

	e, err := openVectors(ctx, a)
	if err != nil {
		return err
	}
	if err := e.BuildIndex(ctx, backend); err != nil {
		return err
	}

	var (
		results []songsim.Neighbor
		elapsed time.Duration
	)
	switch {
	case flagKNNTrack != "":
		results, elapsed, err = e.SimilarTracks(ctx, flagKNNTrack, flagKNNK)
	default:
		query, perr := parseVector(strings.Split(flagKNNVector, ","))
		if perr != nil {
			return fmt.Errorf("--vector: %w", perr)
		}
		if cmd.Flags().Changed("radius") {
			results, elapsed, err = e.RangeSearch(ctx, query, float32(flagKNNRadius))
		} else {
			results, elapsed, err = e.Search(ctx, query, flagKNNK)
		}
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTRACK\tDISTANCE")
	for i, n := range results {
		fmt.Fprintf(tw, "%d\t%s\t%.6f\n", i+1, n.TrackID, n.Distance)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d results from %s in %s\n", len(results), backend, elapsed)
	return nil
}
