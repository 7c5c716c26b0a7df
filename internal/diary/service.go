// Package diary is the application service behind the CLI, the HTTP API
// and the MCP tools. It composes the event log, the compiler and the
// optional search index, and announces changes to an optional publisher.
package diary

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/starford/devdiary/internal/compiler"
	"github.com/starford/devdiary/internal/dates"
	"github.com/starford/devdiary/internal/eventlog"
	"github.com/starford/devdiary/internal/index"
	"github.com/starford/devdiary/internal/models"
	"github.com/starford/devdiary/internal/parser"
	"github.com/starford/devdiary/internal/sse"
	"github.com/starford/devdiary/internal/storage"
)

// DefaultCollectionKey is preferred when no default collection is configured.
const DefaultCollectionKey = "devDiary"

// Publisher receives change notifications. *sse.Broker satisfies it.
type Publisher interface {
	Publish(event sse.Event)
}

// Option configures a Service.
type Option func(*Service)

// WithIndex attaches a search index. Writes made through the service keep
// it current.
func WithIndex(idx index.DiaryIndex) Option {
	return func(s *Service) { s.idx = idx }
}

// WithPublisher attaches a change publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithLocation sets the zone used for "today" and clock rendering.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// Service coordinates the log, the compiler and the index.
type Service struct {
	log    *eventlog.Log
	comp   *compiler.Compiler
	idx    index.DiaryIndex
	pub    Publisher
	logger *slog.Logger
	loc    *time.Location
}

// NewService creates a service over log and comp.
func NewService(log *eventlog.Log, comp *compiler.Compiler, opts ...Option) *Service {
	s := &Service{log: log, comp: comp}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s
}

// Added describes a stored note.
type Added struct {
	Path  string       `json:"path"`
	Event models.Event `json:"event"`
}

// InboxView is one day's log as shown to a user.
type InboxView struct {
	Date    string           `json:"date"`
	Events  []models.Event   `json:"events"`
	Skipped int              `json:"skipped"`
	Meta    *models.Metadata `json:"meta,omitempty"`
}

// Collections returns the configured collection keys, sorted.
func (s *Service) Collections() []string {
	return s.comp.Config().Keys()
}

// DefaultCollection picks the collection used when a caller names none:
// preferred when set, else "devDiary" when configured, else the first key.
func (s *Service) DefaultCollection(preferred string) string {
	if preferred != "" {
		return preferred
	}
	keys := s.Collections()
	for _, k := range keys {
		if k == DefaultCollectionKey {
			return k
		}
	}
	if len(keys) > 0 {
		return keys[0]
	}
	return ""
}

// CompilerConfig returns the configuration compiles run with.
func (s *Service) CompilerConfig() compiler.Config {
	return s.comp.Config()
}

// Location returns the zone used for "today" and clock rendering.
func (s *Service) Location() *time.Location {
	return s.loc
}

// AddNote classifies raw and appends it to the log for date (today when
// empty).
func (s *Service) AddNote(ctx context.Context, date, raw string) (*Added, error) {
	ymd, err := dates.OrToday(date, s.loc)
	if err != nil {
		return nil, err
	}
	path, ev, err := s.log.AppendNote(ctx, ymd, raw)
	if err != nil {
		return nil, err
	}
	s.refreshDay(ymd)
	s.logger.Debug("diary: note added",
		slog.String("date", ymd),
		slog.String("section", string(ev.Section)))
	return &Added{Path: path, Event: ev}, nil
}

// Inbox returns the events of date, the number of skipped lines and the
// metadata a compile form should be pre-filled with.
func (s *Service) Inbox(ctx context.Context, date string) (*InboxView, error) {
	ymd, err := dates.OrToday(date, s.loc)
	if err != nil {
		return nil, err
	}
	read, err := s.log.ReadAll(ctx, ymd)
	if err != nil {
		return nil, err
	}
	meta, err := s.comp.ResolveMetadata(ctx, ymd)
	if err != nil {
		return nil, err
	}
	return &InboxView{Date: ymd, Events: read.Events, Skipped: read.Skipped, Meta: meta}, nil
}

// ReplaceInbox overwrites the log for date with events.
func (s *Service) ReplaceInbox(ctx context.Context, date string, events []models.Event) (string, error) {
	ymd, err := dates.Normalize(date)
	if err != nil {
		return "", err
	}
	path, err := s.log.ReplaceAll(ctx, ymd, events)
	if err != nil {
		return "", err
	}
	s.refreshDay(ymd)
	return path, nil
}

// Compile runs the compiler, records the entry in the index and publishes
// entry.compiled.
func (s *Service) Compile(ctx context.Context, req compiler.Request) (*compiler.Result, error) {
	if strings.TrimSpace(req.Date) == "" {
		req.Date = dates.Today(s.loc)
	}
	res, err := s.comp.Compile(ctx, req)
	if err != nil {
		return nil, err
	}
	s.refreshDay(res.Date)
	if s.idx != nil {
		if err := s.idx.UpsertEntry(index.EntryRow{
			Path:       res.OutputPath,
			Date:       res.Date,
			Title:      res.Title,
			Topics:     res.Topics,
			Collection: res.Collection,
		}); err != nil {
			s.logger.Warn("diary: index entry failed",
				slog.String("path", res.OutputPath),
				slog.String("error", err.Error()))
		}
	}
	if s.pub != nil {
		s.pub.Publish(sse.Event{Type: sse.TypeEntryCompiled, Data: res})
	}
	return res, nil
}

// Reindex brings the index up to date with the day logs and the compiled
// entries on disk. It is a no-op without an index.
func (s *Service) Reindex(ctx context.Context) error {
	if s.idx == nil {
		return nil
	}
	if err := index.Sync(ctx, s.idx, s.log.Store(), s.logger); err != nil {
		return fmt.Errorf("diary: sync days: %w", err)
	}
	entries, err := s.scanEntries(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := s.idx.UpsertEntry(e); err != nil {
			return fmt.Errorf("diary: sync entries: %w", err)
		}
	}
	return nil
}

// Search finds events whose text contains query, newest day first. Without
// an index the day logs are scanned directly.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []index.SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if s.idx != nil {
		return s.idx.Search(query, limit)
	}

	days, err := s.log.Dates(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	out := []index.SearchResult{}
	for i := len(days) - 1; i >= 0; i-- {
		read, err := s.log.ReadAll(ctx, days[i])
		if err != nil {
			return nil, err
		}
		for _, ev := range read.Events {
			if !strings.Contains(strings.ToLower(ev.Text), needle) {
				continue
			}
			out = append(out, index.SearchResult{Date: days[i], TS: ev.TS, Section: ev.Section, Text: ev.Text})
			if len(out) == limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// Entries lists compiled entries, newest first.
func (s *Service) Entries(ctx context.Context, limit int) ([]index.EntryRow, error) {
	if s.idx != nil {
		return s.idx.ListEntries(limit)
	}
	entries, err := s.scanEntries(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// scanEntries reads the front matter of every dated markdown file in the
// collection output directories.
func (s *Service) scanEntries(ctx context.Context) ([]index.EntryRow, error) {
	cfg := s.comp.Config()
	out := []index.EntryRow{}
	for _, key := range cfg.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir, err := storage.NewFS(cfg.OutputDir(cfg.Collections[key]))
		if err != nil {
			return nil, fmt.Errorf("diary: %s: %w", key, err)
		}
		files, err := dir.List(".md")
		if err != nil {
			return nil, fmt.Errorf("diary: %s: %w", key, err)
		}
		for _, f := range files {
			if strings.Contains(f.Path, "/") || len(f.Path) < len(dates.Layout) {
				continue
			}
			date := f.Path[:len(dates.Layout)]
			if ymd, err := dates.Normalize(date); err != nil || ymd != date {
				continue
			}
			data, err := dir.Read(f.Path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return nil, err
			}
			fm := parser.Parse(data)
			abs, _ := dir.Abs(f.Path)
			topics := fm.Topics
			if topics == nil {
				topics = []string{}
			}
			out = append(out, index.EntryRow{
				Path:       abs,
				Date:       date,
				Title:      fm.Title,
				Topics:     topics,
				Collection: key,
				UpdatedAt:  f.UpdatedAt,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// refreshDay reindexes one day after a write through the service.
func (s *Service) refreshDay(date string) {
	if s.idx == nil {
		return
	}
	data, err := s.log.Store().Read(eventlog.FileName(date))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			_ = s.idx.DeleteDay(date)
			return
		}
		s.logger.Warn("diary: reindex read failed", slog.String("date", date), slog.String("error", err.Error()))
		return
	}
	if err := index.IndexDay(s.idx, date, data); err != nil {
		s.logger.Warn("diary: reindex failed", slog.String("date", date), slog.String("error", err.Error()))
	}
}

// FormatInbox renders a plain-text listing of a day's events.
func FormatInbox(view *InboxView, loc *time.Location) string {
	if len(view.Events) == 0 {
		return fmt.Sprintf("No inbox entries for %s.", view.Date)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Inbox (%s) — %d item(s)\n", view.Date, len(view.Events))
	for _, ev := range view.Events {
		clock, ok := dates.Clock(ev.TS, loc)
		if !ok {
			clock = ev.TS
		}
		fmt.Fprintf(&b, "\n- [%s] (%s) %s", clock, ev.Section, ev.Text)
	}
	return b.String()
}
