package internal

import (
	"log/slog"

	"github.com/starford/devdiary/internal/opener"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	logger  *slog.Logger
	opener  opener.Opener
	version string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the JSON logger Run would otherwise build.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithOpener sets how the dashboard and compiled entries are opened.
// Without it nothing is opened.
func WithOpener(o opener.Opener) Option {
	return func(a *application) {
		a.opener = o
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, errConfigRequired
	}
	return app, nil
}
