package spimi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/hupe1980/songsim/internal/fs"
)

const (
	journalName   = "JOURNAL"
	segmentPrefix = "seg-"
	segmentSuffix = ".seg"
)

// journal records the spilled segments of a build and how many source
// documents they cover.
type journal struct {
	BuildID      string    `json:"build_id"`
	Segments     []string  `json:"segments"`
	DocsConsumed int64     `json:"docs_consumed"`
	Documents    int       `json:"documents"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func segmentName(n int) string {
	return fmt.Sprintf("%s%06d%s", segmentPrefix, n, segmentSuffix)
}

func isSegmentName(name string) bool {
	return strings.HasPrefix(name, segmentPrefix) && strings.HasSuffix(name, segmentSuffix)
}

// readJournal returns nil if dir has no journal.
func readJournal(fsys fs.FileSystem, dir string) (*journal, error) {
	data, err := fs.ReadFile(fsys, filepath.Join(dir, journalName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var j journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, corrupt("journal: %v", err)
	}
	if j.BuildID == "" {
		return nil, corrupt("journal without build id")
	}
	return &j, nil
}

func writeJournal(fsys fs.FileSystem, dir string, j *journal) error {
	j.UpdatedAt = time.Now().UTC()
	return fs.WriteFileAtomic(fsys, filepath.Join(dir, journalName), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(j)
	})
}

// cleanDir removes temporary files and every segment not in keep. With
// dropJournal the journal is removed as well.
func cleanDir(fsys fs.FileSystem, dir string, keep []string, dropJournal bool) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		stale := strings.HasSuffix(name, fs.TempSuffix) ||
			(isSegmentName(name) && !slices.Contains(keep, name)) ||
			(dropJournal && name == journalName)
		if !stale {
			continue
		}
		if err := fsys.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}
