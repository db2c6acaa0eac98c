package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/songsim/blobstore"
)

const (
	ManifestPrefix  = "MANIFEST-"
	CurrentFileName = "CURRENT"
	// CurrentVersion is the version of the manifest format.
	CurrentVersion = 1
)

// Manifest describes one published state.
type Manifest struct {
	Version   int       `json:"version"`
	ID        uint64    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Text    *TextInfo   `json:"text,omitempty"`
	Vectors *VectorInfo `json:"vectors,omitempty"`
}

// TextInfo describes a merged inverted index blob.
type TextInfo struct {
	Path      string `json:"path"`
	BuildID   string `json:"build_id"`
	Documents int    `json:"documents"`
	Terms     int    `json:"terms"`
	Size      int64  `json:"size"`
}

// VectorInfo describes a persisted vector store blob.
type VectorInfo struct {
	Path   string `json:"path"`
	Dim    int    `json:"dim"`
	Count  int    `json:"count"`
	Metric string `json:"metric"`
	Size   int64  `json:"size"`
}

// FileName returns the blob name of manifest id.
func FileName(id uint64) string {
	return fmt.Sprintf("%s%06d.json", ManifestPrefix, id)
}

// Store reads and publishes manifests in a blob store.
type Store struct {
	store blobstore.BlobStore
	mu    sync.Mutex
}

// NewStore creates a new manifest store.
func NewStore(store blobstore.BlobStore) *Store {
	return &Store{store: store}
}

// Load returns the manifest CURRENT points at.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (*Manifest, error) {
	current, err := blobstore.ReadAll(ctx, s.store, CurrentFileName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	name := strings.TrimSpace(string(current))

	data, err := blobstore.ReadAll(ctx, s.store, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest %s: %w", name, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", name, err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, m.Version)
	}
	return &m, nil
}

// Update applies fn to a copy of the current manifest (or an empty one)
// and publishes the result under the next id.
func (s *Store) Update(ctx context.Context, fn func(m *Manifest) error) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		m = &Manifest{Version: CurrentVersion}
	case err != nil:
		return nil, err
	}

	if err := fn(m); err != nil {
		return nil, err
	}
	m.ID++
	m.CreatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	name := FileName(m.ID)
	if err := s.store.Put(ctx, name, data); err != nil {
		return nil, fmt.Errorf("write manifest %s: %w", name, err)
	}
	if err := s.store.Put(ctx, CurrentFileName, []byte(name)); err != nil {
		return nil, fmt.Errorf("publish manifest %s: %w", name, err)
	}
	return m, nil
}
