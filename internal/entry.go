// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/devdiary/internal/api"
	"github.com/starford/devdiary/internal/compiler"
	"github.com/starford/devdiary/internal/diary"
	"github.com/starford/devdiary/internal/eventlog"
	"github.com/starford/devdiary/internal/finder"
	"github.com/starford/devdiary/internal/index"
	"github.com/starford/devdiary/internal/mcpserver"
	"github.com/starford/devdiary/internal/sse"
)

var errConfigRequired = errors.New("config is required")

// NewLogger builds the JSON logger used by every entry point.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Core is the wired diary: event log, compiler, optional index and the
// service on top of them.
type Core struct {
	Config  *Config
	Log     *eventlog.Log
	Index   *index.DB
	Service *diary.Service
}

// NewCore wires the diary from cfg. With withIndex set the SQLite index is
// opened (its directory is created) and attached to the service.
func NewCore(cfg *Config, logger *slog.Logger, withIndex bool, opts ...diary.Option) (*Core, error) {
	log, err := eventlog.Open(cfg.RepoRoot, cfg.InboxDir)
	if err != nil {
		return nil, fmt.Errorf("init event log: %w", err)
	}

	ccfg := cfg.CompilerConfig()
	comp, err := compiler.New(ccfg, log, finder.New(ccfg.OutputDirs()...), logger)
	if err != nil {
		return nil, fmt.Errorf("init compiler: %w", err)
	}

	c := &Core{Config: cfg, Log: log}
	opts = append([]diary.Option{diary.WithLogger(logger), diary.WithLocation(ccfg.Location)}, opts...)

	if withIndex {
		path := cfg.SQLitePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		db, err := index.Open(path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		c.Index = db
		opts = append(opts, diary.WithIndex(db))
	}

	c.Service = diary.NewService(log, comp, opts...)
	return c, nil
}

// Close releases the index, if one was opened.
func (c *Core) Close() error {
	if c.Index == nil {
		return nil
	}
	return c.Index.Close()
}

// Run starts the dashboard server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = NewLogger(os.Stdout, cfg.App.LogLevel)
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("repo_root", cfg.RepoRoot),
		slog.String("inbox_path", cfg.InboxPath()),
		slog.String("sqlite_path", cfg.SQLitePath()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	core, err := NewCore(cfg, logger, true, diary.WithPublisher(broker))
	if err != nil {
		return err
	}
	defer core.Close()

	// Run initial sync.
	if err := core.Service.Reindex(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	settings := api.Settings{
		Title:             cfg.App.HTTP.Title,
		DefaultCollection: cfg.DefaultCollection(),
		Events:            broker,
		Logger:            logger,
	}
	if cfg.App.HTTP.OpenOnCompile {
		settings.Opener = app.opener
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newRouter(api.NewRouter(core.Service, settings)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Ends open SSE streams so Shutdown does not wait on them.
	httpServer.RegisterOnShutdown(broker.Close)

	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", httpServer.Addr, err)
	}

	logger.Info("Server starting...", slog.String("http_address", httpServer.Addr))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		err := index.Watch(gCtx, core.Index, core.Log.Store(), cfg.InboxPath(), logger, broker.PublishDayEvent)
		if err != nil {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", httpServer.Addr))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if cfg.App.HTTP.AutoOpen && app.opener != nil {
		url := cfg.App.HTTP.URL()
		if err := app.opener.Open(gCtx, url); err != nil {
			logger.Warn("open dashboard failed", slog.String("url", url), slog.String("error", err.Error()))
		}
	}

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

func newRouter(apiRouter http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", health)
	r.Get("/health/ready", health)

	r.Mount("/api", apiRouter)
	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// ServeMCP runs the MCP tool server on stdin/stdout until the client
// disconnects. Logs go to stderr so they never mix with the protocol stream.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = NewLogger(os.Stderr, cfg.App.LogLevel)
	}

	core, err := NewCore(cfg, logger, true)
	if err != nil {
		return err
	}
	defer core.Close()

	if err := core.Service.Reindex(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	srv := mcpserver.New(core.Service, cfg.App.HTTP.DefaultCollection, app.version, logger)
	return srv.ServeStdio()
}
