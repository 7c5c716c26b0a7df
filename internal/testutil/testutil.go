// Package testutil provides shared test helpers for setting up diary repos,
// services and databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/devdiary/internal/compiler"
	"github.com/starford/devdiary/internal/diary"
	"github.com/starford/devdiary/internal/eventlog"
	"github.com/starford/devdiary/internal/finder"
	"github.com/starford/devdiary/internal/index"
)

// Collection is the key of the collection TestRepo configures.
const Collection = "devDiary"

// Env bundles everything a service-level test touches.
type Env struct {
	Repo    string
	Config  compiler.Config
	Log     *eventlog.Log
	DB      *index.DB
	Service *diary.Service
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "devdiary-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRepo creates a repo with the default template and returns a compiler
// configuration with one collection writing to {repo}/entries.
func TestRepo(t *testing.T) (string, compiler.Config) {
	t.Helper()
	repo := t.TempDir()
	tmpl := filepath.Join(repo, "templates", "dev-diary.md")
	if err := os.MkdirAll(filepath.Dir(tmpl), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tmpl, []byte(compiler.DefaultTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	return repo, compiler.Config{
		RepoRoot: repo,
		Collections: map[string]compiler.Collection{
			Collection: {OutputDir: "entries", TemplatePath: "templates/dev-diary.md"},
		},
		WorkDir:  repo,
		Location: time.UTC,
	}
}

// NewEnv builds a service over a fresh repo. When withIndex is set the
// service is backed by a temporary SQLite index.
func NewEnv(t *testing.T, withIndex bool, opts ...diary.Option) *Env {
	t.Helper()
	repo, cfg := TestRepo(t)
	return NewEnvWithConfig(t, repo, cfg, withIndex, opts...)
}

// NewEnvWithConfig is NewEnv for a caller-supplied configuration.
func NewEnvWithConfig(t *testing.T, repo string, cfg compiler.Config, withIndex bool, opts ...diary.Option) *Env {
	t.Helper()
	log, err := eventlog.Open(repo, "inbox")
	if err != nil {
		t.Fatal(err)
	}
	comp, err := compiler.New(cfg, log, finder.New(cfg.OutputDirs()...), Logger())
	if err != nil {
		t.Fatal(err)
	}
	env := &Env{Repo: repo, Config: cfg, Log: log}
	all := []diary.Option{diary.WithLogger(Logger()), diary.WithLocation(time.UTC)}
	if withIndex {
		env.DB = TestDB(t)
		all = append(all, diary.WithIndex(env.DB))
	}
	env.Service = diary.NewService(log, comp, append(all, opts...)...)
	return env
}
