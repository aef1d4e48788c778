// Package scoremaps provides the places score tables are read from: a local
// directory, an HTTP base URL, a Redis cache in front of either, and an
// ordered chain of sources.
package scoremaps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/kickscore/internal/domain/scoremap"
)

const ext = ".csv"

// DirSource reads <dir>/<name>.csv.
type DirSource struct {
	dir string
}

// NewDirSource creates a DirSource rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Fetch implements scoremap.Source.
func (s *DirSource) Fetch(ctx context.Context, key scoremap.Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, key.Name()+ext))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key.Name(), scoremap.ErrNoResource)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key.Name(), err)
	}
	return raw, nil
}
