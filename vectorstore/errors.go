package vectorstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a track id is not in the store.
	ErrNotFound = errors.New("track not found")

	// ErrInvalidDimension is returned when a store is created with dim <= 0.
	ErrInvalidDimension = errors.New("dimension must be positive")

	// ErrCorrupt is returned when a persisted store fails validation.
	ErrCorrupt = errors.New("vector store corrupt")
)

// ErrDimensionMismatch indicates a vector whose length differs from the
// store dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}
