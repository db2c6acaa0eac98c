package spimi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/songsim/blobstore"
	"github.com/hupe1980/songsim/internal/compress"
	"github.com/hupe1980/songsim/internal/fs"
	"github.com/hupe1980/songsim/internal/manifest"
	"github.com/hupe1980/songsim/internal/resource"
	"github.com/hupe1980/songsim/lexical"
	"github.com/hupe1980/songsim/lexical/analysis"
)

// IndexPrefix is the blob prefix merged indexes are published under.
const IndexPrefix = "text/"

// ErrInvalidConfig is returned for unusable builder options.
var ErrInvalidConfig = errors.New("invalid builder configuration")

// Options configures a Builder.
type Options struct {
	// FS is the file system segments and the journal are spilled to.
	FS fs.FileSystem

	// MaxBlockPostings bounds the postings held in memory before a block is
	// spilled as a segment.
	MaxBlockPostings int

	// Compression is the codec of spilled segments.
	Compression compress.Codec

	// IndexCompression is the codec of the merged index blob.
	IndexCompression compress.Codec

	// Parallelism bounds concurrent document analysis. Zero uses GOMAXPROCS.
	Parallelism int

	// BatchSize is the number of documents analyzed concurrently before
	// they are added to the block in source order.
	BatchSize int

	// Resume continues a build from the journal in the build directory.
	// Without it any previous build state is discarded.
	Resume bool

	// KeepSegments leaves segments and the journal in place after publish.
	KeepSegments bool

	// Analyzer tokenizes documents. Queries must use the same rules.
	Analyzer *analysis.Analyzer

	// Resources bounds block memory and throttles spill I/O. May be nil.
	Resources *resource.Controller

	Logger *slog.Logger
}

// DefaultOptions contains the default builder configuration.
var DefaultOptions = Options{
	FS:               fs.Default,
	MaxBlockPostings: 1 << 20,
	Compression:      compress.LZ4,
	IndexCompression: compress.Zstd,
	BatchSize:        256,
}

// Stats summarizes a finished build.
type Stats struct {
	BuildID   string
	Documents int
	Skipped   int
	Segments  int
	Terms     int
	Postings  int64
	Bytes     int64
	Resumed   bool
	Duration  time.Duration
}

// Builder builds inverted indexes using dir for spilled segments.
type Builder struct {
	dir  string
	opts Options
}

// New creates a builder spilling to dir.
func New(dir string, optFns ...func(o *Options)) (*Builder, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if dir == "" {
		return nil, fmt.Errorf("%w: empty build directory", ErrInvalidConfig)
	}
	if opts.MaxBlockPostings <= 0 {
		return nil, fmt.Errorf("%w: MaxBlockPostings must be positive", ErrInvalidConfig)
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: BatchSize must be positive", ErrInvalidConfig)
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	if opts.FS == nil {
		opts.FS = fs.Default
	}
	if opts.Analyzer == nil {
		opts.Analyzer = analysis.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{dir: dir, opts: opts}, nil
}

// Build indexes every document of src and publishes the merged index to
// out. Documents without an id, with empty text or with an id seen before
// are skipped with a warning. Any failure to spill, merge or publish
// returns ErrBuildAborted and leaves the previously published index, if
// any, in place.
func (b *Builder) Build(ctx context.Context, src lexical.Source, out blobstore.BlobStore) (*Index, Stats, error) {
	start := time.Now()
	r := &run{
		ctx:  ctx,
		dir:  b.dir,
		opts: b.opts,
		log:  b.opts.Logger,
		blk:  newBlock(),
		seen: make(map[string]struct{}),
	}
	defer func() { r.opts.Resources.ReleaseMemory(r.blk.reserved) }()

	if err := r.prepare(); err != nil {
		return nil, Stats{}, err
	}
	if err := r.consume(src); err != nil {
		return nil, r.stats, err
	}
	if !r.blk.empty() {
		if err := r.flush(); err != nil {
			return nil, r.stats, err
		}
	}

	idx, err := r.publish(out)
	if err != nil {
		return nil, r.stats, err
	}

	if !b.opts.KeepSegments {
		if err := cleanDir(r.opts.FS, r.dir, nil, true); err != nil {
			r.log.Warn("failed to remove build state", "dir", r.dir, "error", err)
		}
	}

	r.stats.Documents = idx.NumDocs()
	r.stats.Terms = idx.NumTerms()
	r.stats.Duration = time.Since(start)
	r.log.Info("text index built",
		"build_id", r.stats.BuildID,
		"documents", r.stats.Documents,
		"skipped", r.stats.Skipped,
		"segments", r.stats.Segments,
		"terms", r.stats.Terms,
		"bytes", r.stats.Bytes,
		"duration", r.stats.Duration,
	)
	return idx, r.stats, nil
}

// run holds the state of one build.
type run struct {
	ctx       context.Context
	dir       string
	opts      Options
	log       *slog.Logger
	journal   *journal
	blk       *block
	seen      map[string]struct{}
	processed int64
	stats     Stats
}

func (r *run) prepare() error {
	fsys := r.opts.FS
	if err := fsys.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrBuildAborted, err)
	}

	var j *journal
	if r.opts.Resume {
		var err error
		if j, err = readJournal(fsys, r.dir); err != nil {
			return fmt.Errorf("%w: %w", ErrBuildAborted, err)
		}
	}

	if j == nil {
		if err := cleanDir(fsys, r.dir, nil, true); err != nil {
			return fmt.Errorf("%w: %w", ErrBuildAborted, err)
		}
		r.journal = &journal{BuildID: uuid.NewString()}
		r.stats.BuildID = r.journal.BuildID
		return nil
	}

	// Segments spilled after the last journal write are incomplete.
	if err := cleanDir(fsys, r.dir, j.Segments, false); err != nil {
		return fmt.Errorf("%w: %w", ErrBuildAborted, err)
	}
	for _, name := range j.Segments {
		dec, closer, err := openSegment(fsys, filepath.Join(r.dir, name), j.BuildID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildAborted, err)
		}
		for _, d := range dec.docs {
			r.seen[d.ID] = struct{}{}
		}
		_ = closer.Close()
	}

	r.journal = j
	r.stats.BuildID = j.BuildID
	r.stats.Resumed = true
	r.stats.Segments = len(j.Segments)
	r.log.Info("resuming text index build",
		"build_id", j.BuildID,
		"segments", len(j.Segments),
		"docs_consumed", j.DocsConsumed,
	)
	return nil
}

type analyzedDoc struct {
	info   DocInfo
	counts map[string]uint32
	skip   string
}

func (r *run) analyze(doc lexical.Document) analyzedDoc {
	a := analyzedDoc{info: DocInfo{ID: doc.ID}}
	switch {
	case strings.TrimSpace(doc.ID) == "":
		a.skip = "missing document id"
	case !utf8.ValidString(doc.Text):
		a.skip = "invalid utf-8 text"
	case strings.TrimSpace(doc.Text) == "":
		a.skip = "empty text"
	}
	if a.skip != "" {
		return a
	}

	lang := r.opts.Analyzer.Language(doc.Text, doc.Language)
	terms := r.opts.Analyzer.Analyze(doc.Text, lang)
	if len(terms) == 0 {
		a.skip = "no indexable terms"
		return a
	}
	a.counts = make(map[string]uint32, len(terms))
	for _, t := range terms {
		a.counts[t]++
	}
	a.info.Length = uint32(len(terms))
	a.info.Language = lang
	return a
}

func (r *run) consume(src lexical.Source) error {
	skip := r.journal.DocsConsumed
	batch := make([]lexical.Document, 0, r.opts.BatchSize)
	for doc, err := range src.Documents(r.ctx) {
		if err != nil {
			return fmt.Errorf("read corpus: %w", err)
		}
		if skip > 0 {
			skip--
			r.processed++
			continue
		}
		batch = append(batch, doc)
		if len(batch) == r.opts.BatchSize {
			if err := r.addBatch(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		return r.addBatch(batch)
	}
	return nil
}

// addBatch analyzes documents concurrently and adds them in source order.
func (r *run) addBatch(batch []lexical.Document) error {
	analyzed := make([]analyzedDoc, len(batch))
	g, ctx := errgroup.WithContext(r.ctx)
	g.SetLimit(r.opts.Parallelism)
	for i, doc := range batch {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			analyzed[i] = r.analyze(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i := range analyzed {
		if err := r.add(&analyzed[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) add(a *analyzedDoc) error {
	if a.skip == "" {
		if _, dup := r.seen[a.info.ID]; dup {
			a.skip = "duplicate document id"
		}
	}
	if a.skip != "" {
		r.log.Warn("skipping document", "doc_id", a.info.ID, "reason", a.skip)
		r.stats.Skipped++
		r.processed++
		return nil
	}

	if err := r.reserve(a); err != nil {
		return err
	}
	r.blk.add(a.info, a.counts)
	r.seen[a.info.ID] = struct{}{}
	r.processed++

	if r.blk.numPostings >= r.opts.MaxBlockPostings {
		return r.flush()
	}
	return nil
}

// reserve accounts the document against the memory budget, spilling the
// current block first if the budget is exhausted. A single document that
// exceeds the whole budget is indexed unaccounted.
func (r *run) reserve(a *analyzedDoc) error {
	cost := r.blk.cost(a.info.ID, a.counts)
	err := r.opts.Resources.AcquireMemory(cost)
	if err == nil {
		r.blk.reserved += cost
		return nil
	}
	if !errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return err
	}
	if r.blk.empty() {
		return nil
	}
	if err := r.flush(); err != nil {
		return err
	}
	cost = r.blk.cost(a.info.ID, a.counts)
	if r.opts.Resources.AcquireMemory(cost) == nil {
		r.blk.reserved += cost
	}
	return nil
}

// flush sorts the current block, spills it as the next segment and records
// it in the journal.
func (r *run) flush() error {
	docs, terms, lists := r.blk.sorted()
	name := segmentName(len(r.journal.Segments) + 1)

	var size int64
	err := fs.WriteFileAtomic(r.opts.FS, filepath.Join(r.dir, name), func(w io.Writer) error {
		enc, err := newEncoder(r.opts.Resources.Writer(r.ctx, w), kindSegment, r.opts.Compression, r.journal.BuildID)
		if err != nil {
			return err
		}
		if err := enc.writeDocs(docs); err != nil {
			return err
		}
		for i, term := range terms {
			if err := enc.writeTerm(term, lists[i]); err != nil {
				return err
			}
		}
		size, err = enc.close()
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: write segment %s: %w", ErrBuildAborted, name, err)
	}

	r.journal.Segments = append(r.journal.Segments, name)
	r.journal.DocsConsumed = r.processed
	r.journal.Documents += len(docs)
	if err := writeJournal(r.opts.FS, r.dir, r.journal); err != nil {
		return fmt.Errorf("%w: write journal: %w", ErrBuildAborted, err)
	}

	r.log.Debug("segment spilled",
		"segment", name,
		"documents", len(docs),
		"terms", len(terms),
		"postings", r.blk.numPostings,
		"bytes", size,
	)
	r.stats.Segments++
	r.stats.Postings += int64(r.blk.numPostings)

	r.opts.Resources.ReleaseMemory(r.blk.reserved)
	r.blk = newBlock()
	return nil
}

// publish merges the journaled segments into the index blob and points the
// manifest at it.
func (r *run) publish(out blobstore.BlobStore) (*Index, error) {
	buildID := r.journal.BuildID
	name := path.Join(IndexPrefix, buildID+".idx")
	paths := make([]string, len(r.journal.Segments))
	for i, seg := range r.journal.Segments {
		paths[i] = filepath.Join(r.dir, seg)
	}

	w, err := out.Create(r.ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrBuildAborted, name, err)
	}
	abort := func(err error) error {
		_ = w.Close()
		_ = out.Delete(context.WithoutCancel(r.ctx), name)
		return fmt.Errorf("%w: %w", ErrBuildAborted, err)
	}

	enc, err := newEncoder(r.opts.Resources.Writer(r.ctx, w), kindIndex, r.opts.IndexCompression, buildID)
	if err != nil {
		return nil, abort(err)
	}
	idx := newIndex(buildID)
	if err := mergeSegments(r.ctx, r.opts.FS, paths, buildID, teeSink{idx.sink(), encoderSink{enc}}); err != nil {
		return nil, abort(fmt.Errorf("merge: %w", err))
	}
	size, err := enc.close()
	if err != nil {
		return nil, abort(err)
	}
	if err := w.Sync(); err != nil {
		return nil, abort(err)
	}
	if err := w.Close(); err != nil {
		_ = out.Delete(context.WithoutCancel(r.ctx), name)
		return nil, fmt.Errorf("%w: close %s: %w", ErrBuildAborted, name, err)
	}

	var previous string
	_, err = manifest.NewStore(out).Update(r.ctx, func(m *manifest.Manifest) error {
		if m.Text != nil && m.Text.Path != name {
			previous = m.Text.Path
		}
		m.Text = &manifest.TextInfo{
			Path:      name,
			BuildID:   buildID,
			Documents: idx.NumDocs(),
			Terms:     idx.NumTerms(),
			Size:      size,
		}
		return nil
	})
	if err != nil {
		_ = out.Delete(context.WithoutCancel(r.ctx), name)
		return nil, fmt.Errorf("%w: publish: %w", ErrBuildAborted, err)
	}
	if previous != "" {
		if err := out.Delete(r.ctx, previous); err != nil {
			r.log.Warn("failed to remove superseded index", "path", previous, "error", err)
		}
	}

	r.stats.Bytes = size
	return idx, nil
}
