// Package source loads the text of interface sources named by a request.
package source

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/delegate/spec"
	"martianoff/delegen/internal/logger"
)

// Loader reads the text of an interface source.
type Loader interface {
	Load(ctx context.Context, src *spec.Source) (string, error)
}

// FileLoader reads sources from the filesystem. Relative paths are resolved
// against Dir.
type FileLoader struct {
	Dir string
}

// NewFileLoader creates a FileLoader rooted at dir.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{Dir: dir}
}

// Load returns inline text directly and reads file sources from disk.
func (l *FileLoader) Load(ctx context.Context, src *spec.Source) (string, error) {
	if src.IsInline {
		return src.Inline, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := resolvePath(l.Dir, src.Path)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", delerr.NewIOError(src.Pos.Err(), src.Path, errors.Wrap(err, "read interface source"))
	}
	logger.Debugw("loaded interface source", "path", path, "bytes", len(data))
	return string(data), nil
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}
