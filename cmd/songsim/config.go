package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/songsim"
	"github.com/hupe1980/songsim/corpus"
	"github.com/hupe1980/songsim/distance"
	"github.com/hupe1980/songsim/index/ivf"
	"github.com/hupe1980/songsim/index/rtree"
	"github.com/hupe1980/songsim/internal/compress"
	"github.com/hupe1980/songsim/lexical/analysis"
	"github.com/hupe1980/songsim/lexical/spimi"
	"github.com/hupe1980/songsim/lexical/tfidf"
)

// Config is the in-memory representation of songsim.yaml.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Build  BuildConfig  `yaml:"build"`
	Text   TextConfig   `yaml:"text"`
	KNN    KNNConfig    `yaml:"knn"`
	Corpus CorpusConfig `yaml:"corpus"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig selects where indexes and vectors are published.
type StoreConfig struct {
	// Type is "local", "s3" or "minio".
	Type   string `yaml:"type"`
	Path   string `yaml:"path,omitempty"`
	Bucket string `yaml:"bucket,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
	Region string `yaml:"region,omitempty"`

	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`

	// DynamoDBTable keeps the CURRENT pointer of an S3 store in DynamoDB.
	DynamoDBTable string `yaml:"dynamodb_table,omitempty"`
}

// BuildConfig tunes text index builds.
type BuildConfig struct {
	Dir              string         `yaml:"dir"`
	MaxBlockPostings int            `yaml:"max_block_postings"`
	BatchSize        int            `yaml:"batch_size"`
	Parallelism      int            `yaml:"parallelism,omitempty"`
	Compression      compress.Codec `yaml:"compression"`
	IndexCompression compress.Codec `yaml:"index_compression"`
	MemoryLimit      int64          `yaml:"memory_limit,omitempty"`
	IOLimit          int64          `yaml:"io_limit,omitempty"`
	KeepSegments     bool           `yaml:"keep_segments,omitempty"`
}

// TextConfig tunes analysis and ranking.
type TextConfig struct {
	Ranking         string `yaml:"ranking"`
	Cosine          bool   `yaml:"cosine,omitempty"`
	MatchAll        bool   `yaml:"match_all,omitempty"`
	DefaultLanguage string `yaml:"default_language"`
	Stem            bool   `yaml:"stem"`
	Stopwords       bool   `yaml:"stopwords"`
	MinTokenLength  int    `yaml:"min_token_length"`
}

// KNNConfig tunes the vector backends.
type KNNConfig struct {
	Backend       string `yaml:"backend"`
	Metric        string `yaml:"metric"`
	LeafCapacity  int    `yaml:"leaf_capacity"`
	Fanout        int    `yaml:"fanout"`
	Clusters      int    `yaml:"clusters"`
	NProbe        int    `yaml:"nprobe"`
	MaxIterations int    `yaml:"max_iterations"`
	Seed          uint64 `yaml:"seed"`
}

// CorpusConfig maps corpus records to documents.
type CorpusConfig struct {
	ID       string   `yaml:"id"`
	Text     string   `yaml:"text"`
	Language string   `yaml:"language"`
	Metadata []string `yaml:"metadata"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	fields := corpus.DefaultOptions.Fields
	return &Config{
		Store: StoreConfig{Type: "local", Path: "songsim-data"},
		Build: BuildConfig{
			Dir:              "songsim-build",
			MaxBlockPostings: spimi.DefaultOptions.MaxBlockPostings,
			BatchSize:        spimi.DefaultOptions.BatchSize,
			Compression:      spimi.DefaultOptions.Compression,
			IndexCompression: spimi.DefaultOptions.IndexCompression,
		},
		Text: TextConfig{
			Ranking:         songsim.RankTFIDF.String(),
			DefaultLanguage: analysis.DefaultOptions.DefaultLanguage,
			Stem:            analysis.DefaultOptions.Stem,
			Stopwords:       analysis.DefaultOptions.RemoveStopwords,
			MinTokenLength:  analysis.DefaultOptions.MinTokenLength,
		},
		KNN: KNNConfig{
			Backend:       songsim.BackendSpatialTree.String(),
			Metric:        distance.MetricL2.String(),
			LeafCapacity:  rtree.DefaultOptions.LeafCapacity,
			Fanout:        rtree.DefaultOptions.Fanout,
			Clusters:      ivf.DefaultOptions.NumClusters,
			NProbe:        ivf.DefaultOptions.NProbe,
			MaxIterations: ivf.DefaultOptions.MaxIterations,
			Seed:          ivf.DefaultOptions.Seed,
		},
		Corpus: CorpusConfig{
			ID:       fields.ID,
			Text:     fields.Text,
			Language: fields.Language,
			Metadata: append([]string(nil), fields.Metadata...),
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail deep inside a build.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Type {
	case "local":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for a local store"))
		}
	case "s3", "minio":
		if c.Store.Bucket == "" {
			errs = append(errs, fmt.Errorf("store.bucket is required for a %s store", c.Store.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.type %q", c.Store.Type))
	}
	if _, err := songsim.ParseBackend(c.KNN.Backend); err != nil {
		errs = append(errs, err)
	}
	if _, err := distance.ParseMetric(c.KNN.Metric); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseRanking(c.Text.Ranking); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func parseRanking(s string) (songsim.TextRanking, error) {
	switch s {
	case "", "tfidf":
		return songsim.RankTFIDF, nil
	case "bm25":
		return songsim.RankBM25, nil
	default:
		return 0, fmt.Errorf("unknown text.ranking %q", s)
	}
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Logger builds the configured logger.
func (l LogConfig) Logger() (*songsim.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}
	if l.Format == "json" {
		return songsim.NewJSONLogger(level), nil
	}
	return songsim.NewTextLogger(level), nil
}

// corpusOptions maps the corpus section to source options.
func (c *Config) corpusOptions(logger *songsim.Logger) []func(*corpus.Options) {
	return []func(*corpus.Options){
		corpus.WithFields(corpus.Fields{
			ID:       c.Corpus.ID,
			Text:     c.Corpus.Text,
			Language: c.Corpus.Language,
			Metadata: c.Corpus.Metadata,
		}),
		corpus.WithLogger(logger.Logger),
	}
}

// engineOptions maps the configuration to engine options.
func (c *Config) engineOptions() ([]songsim.Option, error) {
	metric, err := distance.ParseMetric(c.KNN.Metric)
	if err != nil {
		return nil, err
	}
	ranking, err := parseRanking(c.Text.Ranking)
	if err != nil {
		return nil, err
	}

	return []songsim.Option{
		songsim.WithMetric(metric),
		songsim.WithRTreeOptions(func(o *rtree.Options) {
			o.LeafCapacity = c.KNN.LeafCapacity
			o.Fanout = c.KNN.Fanout
		}),
		songsim.WithIVFOptions(func(o *ivf.Options) {
			o.NumClusters = c.KNN.Clusters
			o.NProbe = c.KNN.NProbe
			o.MaxIterations = c.KNN.MaxIterations
			o.Seed = c.KNN.Seed
		}),
		songsim.WithTextBuildDir(c.Build.Dir),
		songsim.WithSPIMIOptions(func(o *spimi.Options) {
			o.MaxBlockPostings = c.Build.MaxBlockPostings
			o.BatchSize = c.Build.BatchSize
			o.Parallelism = c.Build.Parallelism
			o.Compression = c.Build.Compression
			o.IndexCompression = c.Build.IndexCompression
			o.KeepSegments = c.Build.KeepSegments
		}),
		songsim.WithMemoryLimit(c.Build.MemoryLimit),
		songsim.WithIOLimit(c.Build.IOLimit),
		songsim.WithAnalyzerOptions(func(o *analysis.Options) {
			o.DefaultLanguage = c.Text.DefaultLanguage
			o.Stem = c.Text.Stem
			o.RemoveStopwords = c.Text.Stopwords
			o.MinTokenLength = c.Text.MinTokenLength
		}),
		songsim.WithTextRanking(ranking),
		songsim.WithTFIDFOptions(func(o *tfidf.Options) {
			o.Cosine = c.Text.Cosine
			o.MatchAll = c.Text.MatchAll
		}),
	}, nil
}
