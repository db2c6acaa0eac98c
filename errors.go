package songsim

import (
	"errors"
	"fmt"

	"github.com/hupe1980/songsim/index"
	"github.com/hupe1980/songsim/internal/kmeans"
	"github.com/hupe1980/songsim/internal/manifest"
	"github.com/hupe1980/songsim/lexical"
	"github.com/hupe1980/songsim/lexical/spimi"
	"github.com/hupe1980/songsim/vectorstore"
)

var (
	// ErrNotFound is returned for unknown track ids.
	ErrNotFound = vectorstore.ErrNotFound

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = index.ErrInvalidK

	// ErrInvalidConfig is returned for unusable options or query parameters.
	ErrInvalidConfig = index.ErrInvalidConfig

	// ErrEmptyIndex is returned when searching before an index was built or
	// when the index holds no vectors.
	ErrEmptyIndex = index.ErrEmptyIndex

	// ErrBuildAborted is returned when a text index build fails. Nothing is
	// published in that case.
	ErrBuildAborted = spimi.ErrBuildAborted

	// ErrNoTextIndex is returned when searching text before an index was
	// built or loaded.
	ErrNoTextIndex = errors.New("no text index")

	// ErrSelfNotFirst is reported when a track is not the first result of a
	// search with its own vector, which happens when other tracks share its
	// vector.
	ErrSelfNotFirst = errors.New("track is not its own nearest neighbor")
)

// ErrDimensionMismatch indicates a vector or query of the wrong length.
type ErrDimensionMismatch = vectorstore.ErrDimensionMismatch

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Already normalized.
	if errors.Is(err, ErrInvalidK) || errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrNotFound) {
		return err
	}

	if errors.Is(err, lexical.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}
	if errors.Is(err, spimi.ErrInvalidConfig) || errors.Is(err, kmeans.ErrTooFewVectors) || errors.Is(err, vectorstore.ErrInvalidDimension) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if errors.Is(err, spimi.ErrNoIndex) {
		return fmt.Errorf("%w: %w", ErrNoTextIndex, err)
	}
	if errors.Is(err, manifest.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}
