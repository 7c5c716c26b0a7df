package compiler

import (
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/starford/devdiary/internal/rules"
)

var windowsAbsRe = regexp.MustCompile(`^[a-zA-Z]:[\\/]`)

// Collection is one compile destination.
type Collection struct {
	OutputDir    string       `yaml:"outputDir" json:"outputDir"`
	TemplatePath string       `yaml:"templatePath" json:"templatePath"`
	DraftDefault *bool        `yaml:"draftDefault" json:"draftDefault,omitempty"`
	BulletTimes  bool         `yaml:"bulletTimes" json:"bulletTimes,omitempty"`
	Rules        *rules.Rules `yaml:"rules" json:"rules,omitempty"`
}

// Draft returns the draft flag for new entries; true unless configured.
func (c Collection) Draft() bool {
	if c.DraftDefault == nil {
		return true
	}
	return *c.DraftDefault
}

// Config is everything the compiler needs; it is passed in explicitly.
type Config struct {
	// RepoRoot anchors relative template paths.
	RepoRoot    string
	Collections map[string]Collection
	// WorkDir anchors relative output directories. Empty means the process
	// working directory.
	WorkDir string
	// Location renders HH:MM clocks. nil means time.Local.
	Location *time.Location
}

// Keys returns the configured collection keys, sorted.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c.Collections))
	for k := range c.Collections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// OutputDir resolves a collection's output directory: absolute paths are
// kept, anything else is taken relative to WorkDir.
func (c Config) OutputDir(col Collection) string {
	out := col.OutputDir
	if filepath.IsAbs(out) || windowsAbsRe.MatchString(out) {
		return out
	}
	return filepath.Join(c.WorkDir, out)
}

// OutputDirs returns the resolved output directory of every collection.
func (c Config) OutputDirs() []string {
	var dirs []string
	for _, k := range c.Keys() {
		dirs = append(dirs, c.OutputDir(c.Collections[k]))
	}
	return dirs
}

// TemplatePath resolves a collection's template against RepoRoot.
func (c Config) TemplatePath(col Collection) string {
	if filepath.IsAbs(col.TemplatePath) {
		return col.TemplatePath
	}
	return filepath.Join(c.RepoRoot, col.TemplatePath)
}
