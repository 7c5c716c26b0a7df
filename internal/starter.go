package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/starford/devdiary/internal/compiler"
)

// StarterTemplatePath is where init writes the entry template.
const StarterTemplatePath = "templates/dev-diary.md"

// StarterConfig is the configuration written by init.
const StarterConfig = `projectName: devdiary
repoRoot: .
inboxDir: inbox

app:
  log_level: info
  http:
    host: localhost
    port: 7825
    auto_open: true
    open_on_compile: true
    title: Dev Diary Dashboard
    default_collection: devDiary

sqlite:
  path: .devdiary/index.db

collections:
  devDiary:
    outputDir: content/dev-diary
    templatePath: ` + StarterTemplatePath + `
    draftDefault: true
    rules:
      titleRegex: '^\d{4}-\d{2}-\d{2} - .+'
      titleFormatHelp: "YYYY-MM-DD - Short summary"
      excerpt:
        min: 20
        max: 160
      topics:
        minCount: 1
        allowed: [general, bugfix, feature, refactor, infra, docs]
`

// ErrStarterExists is returned when init would overwrite a file without force.
var ErrStarterExists = errors.New("file already exists (use --force to overwrite)")

// WriteStarter writes the starter config and template into dir and returns
// the paths written. Existing files are left alone unless force is set.
func WriteStarter(dir string, force bool) ([]string, error) {
	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(dir, DefaultConfigFile), StarterConfig},
		{filepath.Join(dir, filepath.FromSlash(StarterTemplatePath)), compiler.DefaultTemplate},
	}

	if !force {
		for _, f := range files {
			if _, err := os.Stat(f.path); err == nil {
				return nil, fmt.Errorf("%s: %w", f.path, ErrStarterExists)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("init: stat %s: %w", f.path, err)
			}
		}
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return written, fmt.Errorf("init: mkdir: %w", err)
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return written, fmt.Errorf("init: write %s: %w", f.path, err)
		}
		written = append(written, f.path)
	}
	return written, nil
}
