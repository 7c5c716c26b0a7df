// Package finder locates the compiled entry for a date among the collections'
// output directories.
package finder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Dirs searches a fixed list of output directories.
type Dirs struct {
	dirs []string
}

// New creates a finder over dirs. Duplicates are ignored.
func New(dirs ...string) *Dirs {
	seen := make(map[string]struct{}, len(dirs))
	var out []string
	for _, d := range dirs {
		if _, ok := seen[d]; ok || d == "" {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return &Dirs{dirs: out}
}

// FindCompiledOutput returns the most plausible compiled entry for date: a
// Markdown file whose name starts with the date. The longest name wins (it
// carries the most title suffix); ties go to the lexically smaller path.
// Missing directories are skipped.
func (f *Dirs) FindCompiledOutput(ctx context.Context, date string) (string, bool, error) {
	var best string
	for _, dir := range f.dirs {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", false, fmt.Errorf("finder: read %s: %w", dir, err)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".md") || !strings.HasPrefix(name, date) {
				continue
			}
			candidate := filepath.Join(dir, name)
			if better(candidate, best) {
				best = candidate
			}
		}
	}
	return best, best != "", nil
}

func better(candidate, current string) bool {
	if current == "" {
		return true
	}
	cn, bn := len(filepath.Base(candidate)), len(filepath.Base(current))
	if cn != bn {
		return cn > bn
	}
	return candidate < current
}
