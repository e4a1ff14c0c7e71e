package graphcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-firm/firmgraph/internal/graph"
)

// CurrentFilename and BackupFilename are the two cache files kept in a
// workspace root (§6).
const (
	CurrentFilename = "current.firm.graph"
	BackupFilename  = "backup.firm.graph"
)

// Save serializes g into <root>/current.firm.graph. If a current snapshot
// already exists and decodes cleanly it is atomically renamed to backup
// first; a current file that fails to decode is not rotated, so a
// corrupted snapshot never replaces the backup. The new content is
// written to a temp file in the same directory, fsynced, and renamed into
// place, so a reader of current never observes a half
// written file (§4.5, §5).
func Save(root string, g *graph.Graph) error {
	data, err := Encode(g)
	if err != nil {
		return fmt.Errorf("graphcache: failed to encode graph: %w", err)
	}

	currentPath := filepath.Join(root, CurrentFilename)
	backupPath := filepath.Join(root, BackupFilename)

	if _, statErr := os.Stat(currentPath); statErr == nil {
		if _, loadErr := loadFile(currentPath); loadErr == nil {
			if err := os.Rename(currentPath, backupPath); err != nil {
				return fmt.Errorf("graphcache: failed to rotate current to backup: %w", err)
			}
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("graphcache: failed to stat %s: %w", currentPath, statErr)
	}

	tmp, err := os.CreateTemp(root, ".firm.graph.tmp-*")
	if err != nil {
		return fmt.Errorf("graphcache: failed to create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("graphcache: failed to write temp cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("graphcache: failed to fsync temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("graphcache: failed to close temp cache file: %w", err)
	}
	if err := os.Rename(tmpPath, currentPath); err != nil {
		return fmt.Errorf("graphcache: failed to rename temp cache into place: %w", err)
	}
	return nil
}

// Load reads and decodes <root>/current.firm.graph.
func Load(root string) (*graph.Graph, error) {
	return loadFile(filepath.Join(root, CurrentFilename))
}

// LoadBackup reads and decodes <root>/backup.firm.graph.
func LoadBackup(root string) (*graph.Graph, error) {
	return loadFile(filepath.Join(root, BackupFilename))
}

func loadFile(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graphcache: failed to read %s: %w", path, err)
	}
	g, err := Decode(data)
	if err != nil {
		var cerr *CacheFormatError
		if errors.As(err, &cerr) {
			cerr.Path = path
		}
		return nil, err
	}
	return g, nil
}
