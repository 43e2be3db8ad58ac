package chunkstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Sweep deletes temp files not touched for longer than maxAge and removes
// owner directories left empty. It returns the number of files removed.
func (s *Store) Sweep(maxAge time.Duration, now time.Time) (int, error) {
	owners, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("list temp dir: %w", err)
	}

	var (
		removed int
		errs    []error
	)

	for _, owner := range owners {
		if !owner.IsDir() {
			continue
		}
		ownerDir := filepath.Join(s.dir, owner.Name())

		entries, err := os.ReadDir(ownerDir)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		kept := 0
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				// removed concurrently
				continue
			}
			if entry.IsDir() || now.Sub(info.ModTime()) <= maxAge {
				kept++
				continue
			}
			if err := os.Remove(filepath.Join(ownerDir, entry.Name())); err != nil {
				errs = append(errs, err)
				kept++
				continue
			}
			removed++
		}

		if kept == 0 {
			if info, err := os.Stat(ownerDir); err == nil && now.Sub(info.ModTime()) > maxAge {
				os.Remove(ownerDir)
			}
		}
	}

	return removed, errors.Join(errs...)
}
