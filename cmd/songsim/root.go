package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/hupe1980/songsim"
	"github.com/hupe1980/songsim/blobstore"
	"github.com/hupe1980/songsim/metric"
)

var (
	flagConfig    string
	flagStorePath string
	flagLogLevel  string
	flagLogFormat string
	flagMetrics   bool
)

var rootCmd = &cobra.Command{
	Use:          "songsim",
	Short:        "Build and query music-similarity indexes",
	SilenceUsage: true,
	Long: `songsim indexes track feature vectors for nearest-neighbor search and
song lyrics for ranked text search. Indexes are published to a local
directory, S3 or MinIO as configured in songsim.yaml.`,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to songsim.yaml")
	pf.StringVar(&flagStorePath, "store", "", "Local store directory (overrides store.path and selects a local store)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")
	pf.BoolVar(&flagMetrics, "metrics", false, "Print Prometheus metrics to stderr on exit")
}

// Execute is called by main.go. An interrupt cancels the running command;
// an interrupted index build can be continued with --resume.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles what every command needs.
type app struct {
	cfg     *Config
	logger  *songsim.Logger
	store   blobstore.BlobStore
	metrics *metric.Prometheus
}

// loadApp reads the configuration, applies global flags and opens the
// store.
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagStorePath != "" {
		cfg.Store = StoreConfig{Type: "local", Path: flagStorePath}
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Log.Format = flagLogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := cfg.Log.Logger()
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, store: store, metrics: metric.New(nil)}, nil
}

// engine creates an engine of dimension dim over the app's store.
func (a *app) engine(dim int, extra ...songsim.Option) (*songsim.Engine, error) {
	opts, err := a.cfg.engineOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		songsim.WithBlobStore(a.store),
		songsim.WithLogger(a.logger),
		songsim.WithMetricsCollector(a.metrics),
	)
	return songsim.New(dim, append(opts, extra...)...)
}

// close prints the collected metrics when requested.
func (a *app) close() {
	if !flagMetrics {
		return
	}
	families, err := a.metrics.Gatherer().Gather()
	if err != nil {
		fmt.Fprintln(os.Stderr, "gather metrics:", err)
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stderr, mf); err != nil {
			fmt.Fprintln(os.Stderr, "write metrics:", err)
			return
		}
	}
}
