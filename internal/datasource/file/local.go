// Package file implements the local filesystem source.
package file

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Local opens dataset files from the local disk.
type Local struct{ path string }

// NewLocal binds a source to path. The file is opened lazily on Open so that
// a pipeline can be validated without touching the filesystem.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the configured path for reading. A context that is already
// canceled fails fast without touching the filesystem; filesystem errors are
// wrapped with the path while remaining inspectable via errors.Is (e.g.
// os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// ReadList reads a text file of pipeline config paths, one per line.
// Blank lines and lines starting with '#' are skipped; order is preserved.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
