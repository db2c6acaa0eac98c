package spimi

import "errors"

var (
	// ErrBuildAborted is returned when a segment spill, the merge or the
	// publish step fails. Nothing is published in that case.
	ErrBuildAborted = errors.New("index build aborted")

	// ErrCorrupt is returned for segment or index data that cannot be decoded.
	ErrCorrupt = errors.New("corrupt index data")

	// ErrNoIndex is returned by Load when no text index has been published.
	ErrNoIndex = errors.New("no text index published")

	// ErrLocked is returned when another build holds the directory lock.
	ErrLocked = errors.New("index directory is locked by another build")
)
