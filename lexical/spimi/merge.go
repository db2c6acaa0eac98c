package spimi

import (
	"cmp"
	"container/heap"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/hupe1980/songsim/internal/fs"
)

// segmentCursor walks the term list of one segment.
type segmentCursor struct {
	seg      int
	name     string
	dec      *decoder
	remap    []uint32
	term     string
	postings []Posting
}

func (c *segmentCursor) advance() error {
	term, postings, err := c.dec.next()
	if err != nil {
		return err
	}
	c.term, c.postings = term, postings
	return nil
}

type cursorHeap []*segmentCursor

func (h cursorHeap) Len() int { return len(h) }
func (h cursorHeap) Less(i, j int) bool {
	if h[i].term != h[j].term {
		return h[i].term < h[j].term
	}
	return h[i].seg < h[j].seg
}
func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x any)   { *h = append(*h, x.(*segmentCursor)) }
func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return c
}

// mergeSink receives the merged index in order: the document table once,
// then every term with its postings sorted by document ordinal. The
// postings slice is reused between calls.
type mergeSink interface {
	docs(docs []DocInfo) error
	term(term string, postings []Posting) error
}

// openSegment opens a segment file and reads its document table.
func openSegment(fsys fs.FileSystem, path, buildID string) (*decoder, io.Closer, error) {
	f, err := fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, nil, err
	}
	dec, err := newDecoder(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("segment %s: %w", filepath.Base(path), err)
	}
	if dec.kind != kindSegment || dec.buildID != buildID {
		_ = f.Close()
		return nil, nil, fmt.Errorf("segment %s: %w", filepath.Base(path), corrupt("belongs to build %q", dec.buildID))
	}
	return dec, f, nil
}

// mergeSegments performs a k-way merge over the sorted term lists of the
// named segments.
func mergeSegments(ctx context.Context, fsys fs.FileSystem, paths []string, buildID string, sink mergeSink) error {
	cursors := make([]*segmentCursor, 0, len(paths))
	closers := make([]io.Closer, 0, len(paths))
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	type ref struct {
		seg   int
		local uint32
	}
	var refs []ref
	for i, path := range paths {
		dec, closer, err := openSegment(fsys, path, buildID)
		if err != nil {
			return err
		}
		closers = append(closers, closer)
		cursors = append(cursors, &segmentCursor{
			seg:   i,
			name:  filepath.Base(path),
			dec:   dec,
			remap: make([]uint32, len(dec.docs)),
		})
		for j := range dec.docs {
			refs = append(refs, ref{seg: i, local: uint32(j)})
		}
	}

	// The global document table is the sorted union of the segment tables.
	docOf := func(r ref) *DocInfo { return &cursors[r.seg].dec.docs[r.local] }
	slices.SortFunc(refs, func(a, b ref) int {
		return cmp.Compare(docOf(a).ID, docOf(b).ID)
	})
	docs := make([]DocInfo, len(refs))
	for pos, r := range refs {
		docs[pos] = *docOf(r)
		if pos > 0 && docs[pos].ID == docs[pos-1].ID {
			return corrupt("document %q is in more than one segment", docs[pos].ID)
		}
		cursors[r.seg].remap[r.local] = uint32(pos)
	}
	if err := sink.docs(docs); err != nil {
		return err
	}

	h := make(cursorHeap, 0, len(cursors))
	for _, c := range cursors {
		switch err := c.advance(); {
		case err == nil:
			h = append(h, c)
		case !errors.Is(err, io.EOF):
			return fmt.Errorf("segment %s: %w", c.name, err)
		}
	}
	heap.Init(&h)

	var merged []Posting
	for h.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		term := h[0].term
		merged = merged[:0]
		var drained []*segmentCursor
		for h.Len() > 0 && h[0].term == term {
			c := heap.Pop(&h).(*segmentCursor)
			for _, p := range c.postings {
				merged = append(merged, Posting{Doc: c.remap[p.Doc], TF: p.TF})
			}
			drained = append(drained, c)
		}
		slices.SortFunc(merged, comparePostings)

		if err := sink.term(term, merged); err != nil {
			return err
		}

		for _, c := range drained {
			switch err := c.advance(); {
			case err == nil:
				heap.Push(&h, c)
			case !errors.Is(err, io.EOF):
				return fmt.Errorf("segment %s: %w", c.name, err)
			}
		}
	}
	return nil
}
