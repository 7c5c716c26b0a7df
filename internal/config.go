package internal

import (
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/devdiary/internal/compiler"
	"github.com/starford/devdiary/internal/diary"
	"github.com/starford/devdiary/internal/rules"
)

// DefaultConfigFile is the configuration file looked up when none is given.
const DefaultConfigFile = "devdiary.yaml"

// Config represents the application configuration.
type Config struct {
	ProjectName string                         `yaml:"projectName"`
	RepoRoot    string                         `yaml:"repoRoot"`
	InboxDir    string                         `yaml:"inboxDir"`
	App         ApplicationConfig              `yaml:"app"`
	SQLite      SQLiteConfig                   `yaml:"sqlite"`
	Collections map[string]compiler.Collection `yaml:"collections"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.InboxDir, validation.Required),
		validation.Field(&c.Collections, validation.Required.Error("config must include collections")),
	); err != nil {
		return err
	}
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}

	errs := validation.Errors{}
	for key, col := range c.Collections {
		errs[key] = validateCollection(col)
	}
	if err := errs.Filter(); err != nil {
		return fmt.Errorf("collections: %w", err)
	}

	if d := c.App.HTTP.DefaultCollection; d != "" {
		if _, ok := c.Collections[d]; !ok {
			return fmt.Errorf("app.http.default_collection: unknown collection %q", d)
		}
	}
	return nil
}

func validateCollection(col compiler.Collection) error {
	if err := validation.ValidateStruct(&col,
		validation.Field(&col.OutputDir, validation.Required),
		validation.Field(&col.TemplatePath, validation.Required),
	); err != nil {
		return err
	}
	if col.Rules == nil {
		return nil
	}
	return validateRules(col.Rules)
}

func validateRules(r *rules.Rules) error {
	if r.TitleRegex != "" {
		if _, err := regexp.Compile(r.TitleRegex); err != nil {
			return fmt.Errorf("rules.titleRegex: %w", err)
		}
	}
	if r.Excerpt != nil {
		if err := validation.ValidateStruct(r.Excerpt,
			validation.Field(&r.Excerpt.Min, validation.Min(0)),
			validation.Field(&r.Excerpt.Max, validation.Min(r.Excerpt.Min)),
		); err != nil {
			return fmt.Errorf("rules.excerpt: %w", err)
		}
	}
	if r.Topics != nil {
		if err := validation.ValidateStruct(r.Topics,
			validation.Field(&r.Topics.MinCount, validation.Min(0)),
		); err != nil {
			return fmt.Errorf("rules.topics: %w", err)
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds the dashboard server configuration.
type HTTPConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	AutoOpen          bool   `yaml:"auto_open"`
	OpenOnCompile     bool   `yaml:"open_on_compile"`
	Title             string `yaml:"title"`
	DefaultCollection string `yaml:"default_collection"`
}

// Address returns the HTTP listen address.
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL returns the browser URL of the dashboard.
func (c *HTTPConfig) URL() string {
	return "http://" + c.Address()
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds the search index database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
// Collections have no default and must come from the file.
func NewDefaultConfig() *Config {
	return &Config{
		ProjectName: "devdiary",
		RepoRoot:    ".",
		InboxDir:    "inbox",
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Host:          "localhost",
				Port:          7825,
				AutoOpen:      true,
				OpenOnCompile: true,
				Title:         "Dev Diary Dashboard",
			},
		},
		SQLite: SQLiteConfig{
			Path: ".devdiary/index.db",
		},
	}
}

// ResolvePaths makes RepoRoot absolute. It is called once after loading.
func (c *Config) ResolvePaths() error {
	abs, err := filepath.Abs(c.RepoRoot)
	if err != nil {
		return fmt.Errorf("config: resolve repoRoot: %w", err)
	}
	c.RepoRoot = abs
	return nil
}

// InboxPath returns the absolute inbox directory.
func (c *Config) InboxPath() string {
	return c.underRepo(c.InboxDir)
}

// SQLitePath returns the absolute index database path.
func (c *Config) SQLitePath() string {
	return c.underRepo(c.SQLite.Path)
}

func (c *Config) underRepo(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.RepoRoot, p)
}

// DefaultCollection returns the configured default collection, else
// devDiary when present, else the first key in sorted order.
func (c *Config) DefaultCollection() string {
	if d := c.App.HTTP.DefaultCollection; d != "" {
		return d
	}
	if _, ok := c.Collections[diary.DefaultCollectionKey]; ok {
		return diary.DefaultCollectionKey
	}
	keys := c.CompilerConfig().Keys()
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

// CompilerConfig returns the explicit configuration the compiler runs with.
// Output directories resolve against the process working directory.
func (c *Config) CompilerConfig() compiler.Config {
	return compiler.Config{
		RepoRoot:    c.RepoRoot,
		Collections: c.Collections,
		Location:    time.Local,
	}
}
