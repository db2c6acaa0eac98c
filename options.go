package songsim

import (
	"log/slog"

	"github.com/hupe1980/songsim/blobstore"
	"github.com/hupe1980/songsim/distance"
	"github.com/hupe1980/songsim/index/flat"
	"github.com/hupe1980/songsim/index/ivf"
	"github.com/hupe1980/songsim/index/rtree"
	"github.com/hupe1980/songsim/internal/resource"
	"github.com/hupe1980/songsim/lexical/analysis"
	"github.com/hupe1980/songsim/lexical/bm25"
	"github.com/hupe1980/songsim/lexical/spimi"
	"github.com/hupe1980/songsim/lexical/tfidf"
)

// TextRanking selects the scoring function of text search.
type TextRanking int

const (
	// RankTFIDF scores with tf * ln(N/df).
	RankTFIDF TextRanking = iota
	// RankBM25 scores with Okapi BM25.
	RankBM25
)

// String returns the ranking name.
func (r TextRanking) String() string {
	switch r {
	case RankTFIDF:
		return "tfidf"
	case RankBM25:
		return "bm25"
	default:
		return "unknown"
	}
}

type options struct {
	metric distance.Metric

	flatOptions  []func(*flat.Options)
	rtreeOptions []func(*rtree.Options)
	ivfOptions   []func(*ivf.Options)

	store           blobstore.BlobStore
	textBuildDir    string
	spimiOptions    []func(*spimi.Options)
	analyzerOptions []func(*analysis.Options)
	tfidfOptions    []func(*tfidf.Options)
	bm25Options     []func(*bm25.Options)
	ranking         TextRanking

	metricsCollector MetricsCollector
	logger           *Logger
	strictSelfMatch  bool
	resources        resource.Config
}

// Option configures an Engine.
type Option func(*options)

// WithMetric sets the distance metric of every KNN backend. Backend options
// applied later may override it. The spatial tree only accepts L2 and L1.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithFlatOptions configures the sequential backend.
func WithFlatOptions(fns ...func(*flat.Options)) Option {
	return func(o *options) {
		o.flatOptions = append(o.flatOptions, fns...)
	}
}

// WithRTreeOptions configures the spatial tree backend.
func WithRTreeOptions(fns ...func(*rtree.Options)) Option {
	return func(o *options) {
		o.rtreeOptions = append(o.rtreeOptions, fns...)
	}
}

// WithIVFOptions configures the approximate backend.
func WithIVFOptions(fns ...func(*ivf.Options)) Option {
	return func(o *options) {
		o.ivfOptions = append(o.ivfOptions, fns...)
	}
}

// WithBlobStore sets where text indexes and vector snapshots are published.
// If nil is passed, an in-memory store is used.
func WithBlobStore(s blobstore.BlobStore) Option {
	return func(o *options) {
		if s == nil {
			s = blobstore.NewMemoryStore()
		}
		o.store = s
	}
}

// WithTextBuildDir sets the local directory text builds spill segments and
// the journal to. Without it each build uses a temporary directory that is
// removed afterwards, so builds cannot be resumed.
func WithTextBuildDir(dir string) Option {
	return func(o *options) {
		o.textBuildDir = dir
	}
}

// WithSPIMIOptions configures the text index builder.
func WithSPIMIOptions(fns ...func(*spimi.Options)) Option {
	return func(o *options) {
		o.spimiOptions = append(o.spimiOptions, fns...)
	}
}

// WithAnalyzerOptions configures tokenization shared by text builds and
// queries.
func WithAnalyzerOptions(fns ...func(*analysis.Options)) Option {
	return func(o *options) {
		o.analyzerOptions = append(o.analyzerOptions, fns...)
	}
}

// WithTFIDFOptions configures TF-IDF ranking.
func WithTFIDFOptions(fns ...func(*tfidf.Options)) Option {
	return func(o *options) {
		o.tfidfOptions = append(o.tfidfOptions, fns...)
	}
}

// WithBM25Options configures BM25 ranking.
func WithBM25Options(fns ...func(*bm25.Options)) Option {
	return func(o *options) {
		o.bm25Options = append(o.bm25Options, fns...)
	}
}

// WithTextRanking selects the text scoring function. Default is RankTFIDF.
func WithTextRanking(r TextRanking) Option {
	return func(o *options) {
		o.ranking = r
	}
}

// WithMetricsCollector sets the metrics collector.
//
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger sets the logger.
//
// If nil is passed, NoopLogger is used.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel installs a text logger at level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithStrictSelfMatch makes SimilarTracks fail with ErrSelfNotFirst when the
// queried track is not its own first result. By default this is only logged.
func WithStrictSelfMatch(strict bool) Option {
	return func(o *options) {
		o.strictSelfMatch = strict
	}
}

// WithMemoryLimit bounds the memory text builds hold in blocks before
// spilling. Zero only tracks usage.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.resources.MemoryLimitBytes = bytes
	}
}

// WithIOLimit caps segment spill throughput in bytes per second.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.resources.IOLimitBytesPerSec = bytesPerSec
	}
}

func applyOptions(opts []Option) options {
	o := options{
		metric:           distance.MetricL2,
		ranking:          RankTFIDF,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.store == nil {
		o.store = blobstore.NewMemoryStore()
	}
	return o
}
