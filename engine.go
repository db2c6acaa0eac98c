package songsim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/songsim/blobstore"
	"github.com/hupe1980/songsim/index"
	"github.com/hupe1980/songsim/index/flat"
	"github.com/hupe1980/songsim/index/ivf"
	"github.com/hupe1980/songsim/index/rtree"
	"github.com/hupe1980/songsim/internal/manifest"
	"github.com/hupe1980/songsim/internal/resource"
	"github.com/hupe1980/songsim/lexical"
	"github.com/hupe1980/songsim/lexical/analysis"
	"github.com/hupe1980/songsim/lexical/bm25"
	"github.com/hupe1980/songsim/lexical/spimi"
	"github.com/hupe1980/songsim/lexical/tfidf"
	"github.com/hupe1980/songsim/vectorstore"
)

// VectorPrefix is the blob prefix vector snapshots are saved under.
const VectorPrefix = "vectors/"

// Backend names a KNN search strategy.
type Backend int

const (
	// BackendSequential scans every vector.
	BackendSequential Backend = iota
	// BackendSpatialTree searches an R-tree with branch-and-bound pruning.
	BackendSpatialTree
	// BackendApproximate probes the nearest clusters of an IVF index.
	BackendApproximate
)

// String returns the backend name.
func (b Backend) String() string {
	switch b {
	case BackendSequential:
		return "sequential"
	case BackendSpatialTree:
		return "spatial_tree"
	case BackendApproximate:
		return "approximate"
	default:
		return "unknown"
	}
}

// ParseBackend parses a backend name as returned by Backend.String. The
// short forms "flat", "rtree" and "ivf" are accepted too.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "sequential", "flat":
		return BackendSequential, nil
	case "spatial_tree", "rtree":
		return BackendSpatialTree, nil
	case "approximate", "ivf":
		return BackendApproximate, nil
	default:
		return 0, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, s)
	}
}

// Neighbor is a KNN result.
type Neighbor = index.Neighbor

// knnState is an immutable, fully built KNN index.
type knnState struct {
	backend Backend
	idx     index.Index
}

// textState is an immutable, fully built text index with its ranker.
type textState struct {
	idx    *spimi.Index
	ranker lexical.Ranker
}

// Engine owns the vectors of a catalog and serves KNN and text search.
//
// Builds are published atomically: searches running during a rebuild keep
// using the previous index and never observe a partial one. Searches are
// safe for concurrent use and do not lock.
type Engine struct {
	dim       int
	opts      options
	logger    *Logger
	metrics   MetricsCollector
	analyzer  *analysis.Analyzer
	resources *resource.Controller

	mu    sync.RWMutex // guards store
	store *vectorstore.Store

	// persistMu serializes text builds and vector saves, which both
	// publish manifests.
	persistMu sync.Mutex

	knn  atomic.Pointer[knnState]
	text atomic.Pointer[textState]
}

// New creates an engine for vectors of dimension dim.
func New(dim int, opts ...Option) (*Engine, error) {
	o := applyOptions(opts)

	store, err := vectorstore.New(dim)
	if err != nil {
		return nil, translateError(err)
	}

	return &Engine{
		dim:       dim,
		opts:      o,
		logger:    o.logger.WithDimension(dim),
		metrics:   o.metricsCollector,
		analyzer:  analysis.New(o.analyzerOptions...),
		resources: resource.NewController(o.resources),
		store:     store,
	}, nil
}

// Dim returns the vector dimension.
func (e *Engine) Dim() int { return e.dim }

// Len returns the number of stored tracks.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Len()
}

// Insert stores or replaces the vector of a track. Built indexes are not
// affected until the next BuildIndex.
func (e *Engine) Insert(ctx context.Context, trackID string, vec []float32) error {
	start := time.Now()

	e.mu.Lock()
	err := e.store.Insert(trackID, vec)
	e.mu.Unlock()

	err = translateError(err)
	e.metrics.RecordInsert(time.Since(start), err)
	e.logger.LogInsert(ctx, trackID, len(vec), err)
	return err
}

// Get returns a copy of the vector of a track.
func (e *Engine) Get(trackID string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	vec, err := e.store.Get(trackID)
	return vec, translateError(err)
}

// BuildIndex builds backend over the vectors stored now and publishes it
// for searches. On error the previously published index stays in place.
func (e *Engine) BuildIndex(ctx context.Context, backend Backend) error {
	start := time.Now()

	e.mu.RLock()
	snap := e.store.Snapshot()
	e.mu.RUnlock()

	idx, err := e.build(ctx, backend, snap)
	err = translateError(err)

	elapsed := time.Since(start)
	e.metrics.RecordBuild(backend.String(), elapsed, err)
	e.logger.WithBackend(backend).LogBuild(ctx, "knn", snap.Len(), elapsed, err)
	if err != nil {
		return err
	}

	e.knn.Store(&knnState{backend: backend, idx: idx})
	return nil
}

func (e *Engine) build(ctx context.Context, backend Backend, snap *vectorstore.Snapshot) (index.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch backend {
	case BackendSequential:
		fns := append([]func(*flat.Options){func(o *flat.Options) { o.Metric = e.opts.metric }}, e.opts.flatOptions...)
		return flat.New(snap, fns...)
	case BackendSpatialTree:
		fns := append([]func(*rtree.Options){func(o *rtree.Options) { o.Metric = e.opts.metric }}, e.opts.rtreeOptions...)
		return rtree.Build(snap, fns...)
	case BackendApproximate:
		fns := append([]func(*ivf.Options){func(o *ivf.Options) { o.Metric = e.opts.metric }}, e.opts.ivfOptions...)
		idx, err := ivf.New(snap, fns...)
		if err != nil {
			return nil, err
		}
		if err := idx.Build(ctx); err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %d", ErrInvalidConfig, int(backend))
	}
}

// Backend returns the backend of the published index.
func (e *Engine) Backend() (Backend, bool) {
	s := e.knn.Load()
	if s == nil {
		return 0, false
	}
	return s.backend, true
}

// IndexStats returns backend specific statistics of the published index:
// rtree.Stats for the spatial tree, ivf.Stats for the approximate index and
// nil otherwise.
func (e *Engine) IndexStats() any {
	s := e.knn.Load()
	if s == nil {
		return nil
	}
	switch idx := s.idx.(type) {
	case *rtree.Tree:
		return idx.Stats()
	case *ivf.IVF:
		return idx.Stats()
	default:
		return nil
	}
}

// Search returns the k nearest tracks to query, ascending by distance, and
// the time the search took. k larger than the catalog is clamped.
func (e *Engine) Search(ctx context.Context, query []float32, k int) ([]Neighbor, time.Duration, error) {
	start := time.Now()
	s := e.knn.Load()
	if s == nil {
		return nil, 0, ErrEmptyIndex
	}

	res, err := s.idx.Search(query, k)
	err = translateError(err)
	elapsed := time.Since(start)

	e.metrics.RecordSearch(s.backend.String(), k, elapsed, err)
	e.logger.WithBackend(s.backend).LogSearch(ctx, "knn", k, len(res), elapsed, err)
	if err != nil {
		return nil, elapsed, err
	}
	return res, elapsed, nil
}

// RangeSearch returns every track within radius of query, ascending by
// distance.
func (e *Engine) RangeSearch(ctx context.Context, query []float32, radius float32) ([]Neighbor, time.Duration, error) {
	start := time.Now()
	s := e.knn.Load()
	if s == nil {
		return nil, 0, ErrEmptyIndex
	}
	rs, ok := s.idx.(index.RangeSearcher)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s does not support range search", ErrInvalidConfig, s.backend)
	}

	res, err := rs.RangeSearch(query, radius)
	err = translateError(err)
	elapsed := time.Since(start)

	e.logger.WithBackend(s.backend).LogSearch(ctx, "range", 0, len(res), elapsed, err)
	if err != nil {
		return nil, elapsed, err
	}
	return res, elapsed, nil
}

// SimilarTracks returns the k nearest other tracks to an indexed track. The
// track itself is removed from the results wherever it appears. When it is
// not the first result, because other tracks share its vector or the
// approximate index missed it, ErrSelfNotFirst is logged, or returned with
// WithStrictSelfMatch.
func (e *Engine) SimilarTracks(ctx context.Context, trackID string, k int) ([]Neighbor, time.Duration, error) {
	start := time.Now()
	if k <= 0 {
		return nil, 0, ErrInvalidK
	}
	s := e.knn.Load()
	if s == nil {
		return nil, 0, ErrEmptyIndex
	}

	vec, err := e.Get(trackID)
	if err != nil {
		return nil, 0, err
	}

	res, err := s.idx.Search(vec, k+1)
	if err != nil {
		err = translateError(err)
		e.metrics.RecordSearch(s.backend.String(), k, time.Since(start), err)
		return nil, time.Since(start), err
	}

	pos := slices.IndexFunc(res, func(n Neighbor) bool { return n.TrackID == trackID })
	if pos != 0 {
		err := fmt.Errorf("%w: %q at position %d", ErrSelfNotFirst, trackID, pos)
		if e.opts.strictSelfMatch {
			e.metrics.RecordSearch(s.backend.String(), k, time.Since(start), err)
			return nil, time.Since(start), err
		}
		e.logger.WithTrack(trackID).WarnContext(ctx, "track is not its own nearest neighbor", "position", pos)
	}
	if pos >= 0 {
		res = slices.Delete(res, pos, pos+1)
	}
	if len(res) > k {
		res = res[:k]
	}

	elapsed := time.Since(start)
	e.metrics.RecordSearch(s.backend.String(), k, elapsed, nil)
	e.logger.WithBackend(s.backend).LogSearch(ctx, "similar", k, len(res), elapsed, nil)
	return res, elapsed, nil
}

// BuildTextIndex builds an inverted index over src, publishes it to the
// blob store and makes it available to TextSearch.
func (e *Engine) BuildTextIndex(ctx context.Context, src lexical.Source) (spimi.Stats, error) {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	start := time.Now()
	stats, err := e.buildText(ctx, src)
	err = translateError(err)

	elapsed := time.Since(start)
	e.metrics.RecordBuild("text", elapsed, err)
	e.logger.LogBuild(ctx, "text", stats.Documents, elapsed, err)
	return stats, err
}

func (e *Engine) buildText(ctx context.Context, src lexical.Source) (spimi.Stats, error) {
	dir := e.opts.textBuildDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "songsim-spimi-*")
		if err != nil {
			return spimi.Stats{}, err
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	fns := append([]func(*spimi.Options){func(o *spimi.Options) {
		o.Analyzer = e.analyzer
		o.Resources = e.resources
		o.Logger = e.logger.Logger
	}}, e.opts.spimiOptions...)

	b, err := spimi.New(dir, fns...)
	if err != nil {
		return spimi.Stats{}, err
	}
	idx, stats, err := b.Build(ctx, src, e.opts.store)
	if err != nil {
		return stats, err
	}

	e.text.Store(e.newTextState(idx))
	return stats, nil
}

// LoadTextIndex loads the text index published in the blob store.
func (e *Engine) LoadTextIndex(ctx context.Context) error {
	idx, err := spimi.Load(ctx, e.opts.store)
	err = translateError(err)
	e.logger.LogSnapshot(ctx, "text index load", spimi.IndexPrefix, err)
	if err != nil {
		return err
	}
	e.text.Store(e.newTextState(idx))
	return nil
}

func (e *Engine) newTextState(idx *spimi.Index) *textState {
	var ranker lexical.Ranker
	switch e.opts.ranking {
	case RankBM25:
		fns := append([]func(*bm25.Options){func(o *bm25.Options) { o.Analyzer = e.analyzer }}, e.opts.bm25Options...)
		ranker = bm25.New(idx, fns...)
	default:
		fns := append([]func(*tfidf.Options){func(o *tfidf.Options) { o.Analyzer = e.analyzer }}, e.opts.tfidfOptions...)
		ranker = tfidf.New(idx, fns...)
	}
	return &textState{idx: idx, ranker: ranker}
}

// TextSearch ranks indexed documents against a free-text query. language
// is an ISO 639-1 code; empty detects it from the query. k == 0 returns no
// results.
func (e *Engine) TextSearch(ctx context.Context, query, language string, k int) ([]lexical.Result, time.Duration, error) {
	start := time.Now()
	s := e.text.Load()
	if s == nil {
		return nil, 0, ErrNoTextIndex
	}

	res, err := s.ranker.TopK(query, language, k)
	err = translateError(err)
	elapsed := time.Since(start)

	e.metrics.RecordTextSearch(k, elapsed, err)
	e.logger.LogSearch(ctx, "text", k, len(res), elapsed, err)
	if err != nil {
		return nil, elapsed, err
	}
	return res, elapsed, nil
}

// TextIndex returns the published text index.
func (e *Engine) TextIndex() (*spimi.Index, bool) {
	s := e.text.Load()
	if s == nil {
		return nil, false
	}
	return s.idx, true
}

// SaveVectors persists the stored vectors to the blob store and records
// them in the manifest. The previous snapshot is removed once the new one
// is published.
func (e *Engine) SaveVectors(ctx context.Context) (err error) {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	name := path.Join(VectorPrefix, uuid.NewString()+".vec")
	defer func() { e.logger.LogSnapshot(ctx, "vector save", name, err) }()

	store := e.opts.store
	blob, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	e.mu.RLock()
	size, err := e.store.WriteTo(blob)
	count := e.store.Len()
	e.mu.RUnlock()
	if err == nil {
		err = blob.Sync()
	}
	if cerr := blob.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = store.Delete(ctx, name)
		return fmt.Errorf("write %s: %w", name, err)
	}

	var previous string
	_, err = manifest.NewStore(store).Update(ctx, func(m *manifest.Manifest) error {
		if m.Vectors != nil {
			previous = m.Vectors.Path
		}
		m.Vectors = &manifest.VectorInfo{
			Path:   name,
			Dim:    e.dim,
			Count:  count,
			Metric: e.opts.metric.String(),
			Size:   size,
		}
		return nil
	})
	if err != nil {
		_ = store.Delete(ctx, name)
		return err
	}
	if previous != "" && previous != name {
		if derr := store.Delete(ctx, previous); derr != nil && !errors.Is(derr, blobstore.ErrNotFound) {
			e.logger.WarnContext(ctx, "remove superseded vectors", "path", previous, "error", derr)
		}
	}
	return nil
}

// LoadVectors replaces the stored vectors with the snapshot recorded in the
// manifest. Published indexes are not affected until the next BuildIndex.
func (e *Engine) LoadVectors(ctx context.Context) (err error) {
	var name string
	defer func() { e.logger.LogSnapshot(ctx, "vector load", name, err) }()

	m, err := manifest.NewStore(e.opts.store).Load(ctx)
	if err != nil {
		return translateError(err)
	}
	if m.Vectors == nil {
		return fmt.Errorf("%w: no saved vectors", ErrNotFound)
	}
	name = m.Vectors.Path

	blob, err := e.opts.store.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer blob.Close()

	loaded, err := vectorstore.ReadFrom(blobstore.NewReader(ctx, blob))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if loaded.Dim() != e.dim {
		return &ErrDimensionMismatch{Expected: e.dim, Actual: loaded.Dim()}
	}

	e.mu.Lock()
	e.store = loaded
	e.mu.Unlock()
	return nil
}
