package vectorstore

import (
	"fmt"
	"iter"
	"slices"
)

// Store maps track ids to feature vectors of a fixed dimension.
type Store struct {
	dim   int
	ids   []string
	data  []float32
	index map[string]uint32
}

// New creates an empty store for vectors of the given dimension.
func New(dim int) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	return &Store{
		dim:   dim,
		index: make(map[string]uint32),
	}, nil
}

// Dim returns the fixed vector dimension.
func (s *Store) Dim() int { return s.dim }

// Len returns the number of stored vectors.
func (s *Store) Len() int { return len(s.ids) }

// Insert stores a copy of vec under trackID. An existing entry is replaced
// and keeps its original insertion position.
func (s *Store) Insert(trackID string, vec []float32) error {
	if len(vec) != s.dim {
		return &ErrDimensionMismatch{Expected: s.dim, Actual: len(vec)}
	}
	if ord, ok := s.index[trackID]; ok {
		copy(s.row(ord), vec)
		return nil
	}
	s.index[trackID] = uint32(len(s.ids))
	s.ids = append(s.ids, trackID)
	s.data = append(s.data, vec...)
	return nil
}

// Get returns a copy of the vector stored under trackID.
func (s *Store) Get(trackID string) ([]float32, error) {
	ord, ok := s.index[trackID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, trackID)
	}
	return slices.Clone(s.row(ord)), nil
}

// All yields (track id, vector) pairs in insertion order. The sequence is
// lazy and can be ranged over any number of times. Yielded vectors alias the
// store and must not be modified.
func (s *Store) All() iter.Seq2[string, []float32] {
	return func(yield func(string, []float32) bool) {
		for i, id := range s.ids {
			if !yield(id, s.row(uint32(i))) {
				return
			}
		}
	}
}

// Snapshot returns an immutable copy of the current contents.
func (s *Store) Snapshot() *Snapshot {
	return &Snapshot{
		dim:  s.dim,
		ids:  slices.Clone(s.ids),
		data: slices.Clone(s.data),
	}
}

func (s *Store) row(ord uint32) []float32 {
	off := int(ord) * s.dim
	return s.data[off : off+s.dim : off+s.dim]
}

// Snapshot is a read-only view of a Store at a point in time. Vectors are
// addressed by their ordinal, the zero-based insertion position.
type Snapshot struct {
	dim  int
	ids  []string
	data []float32
}

// Dim returns the vector dimension.
func (s *Snapshot) Dim() int { return s.dim }

// Len returns the number of vectors.
func (s *Snapshot) Len() int { return len(s.ids) }

// ID returns the track id at ordinal i.
func (s *Snapshot) ID(i uint32) string { return s.ids[i] }

// Vector returns the vector at ordinal i. It must not be modified.
func (s *Snapshot) Vector(i uint32) []float32 {
	off := int(i) * s.dim
	return s.data[off : off+s.dim : off+s.dim]
}

// All yields (track id, vector) pairs in insertion order.
func (s *Snapshot) All() iter.Seq2[string, []float32] {
	return func(yield func(string, []float32) bool) {
		for i, id := range s.ids {
			if !yield(id, s.Vector(uint32(i))) {
				return
			}
		}
	}
}
