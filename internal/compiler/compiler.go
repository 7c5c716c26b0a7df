// Package compiler turns a day's event log into a rendered diary entry.
//
// The pipeline is linear: resolve the collection, normalise the date, build
// title and topics, read and bucket the events, derive the excerpt, validate,
// render the template, write the entry and record the compile metadata.
// Validation happens before any write, so a rejected compile leaves no file.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/starford/devdiary/internal/aggregate"
	"github.com/starford/devdiary/internal/apperr"
	"github.com/starford/devdiary/internal/dates"
	"github.com/starford/devdiary/internal/eventlog"
	"github.com/starford/devdiary/internal/models"
	"github.com/starford/devdiary/internal/parser"
	"github.com/starford/devdiary/internal/render"
	"github.com/starford/devdiary/internal/rules"
	"github.com/starford/devdiary/internal/storage"
)

// Finder locates a previously compiled entry for a date.
type Finder interface {
	FindCompiledOutput(ctx context.Context, date string) (string, bool, error)
}

// Request describes one compile.
type Request struct {
	Date        string
	Collection  string
	TitleSuffix string
	TopicsCSV   string
}

// Result describes the written entry.
type Result struct {
	OutputPath string   `json:"path"`
	Collection string   `json:"collection"`
	Date       string   `json:"date"`
	Title      string   `json:"title"`
	Excerpt    string   `json:"excerpt"`
	Topics     []string `json:"topics"`
}

// Compiler runs the compile pipeline.
type Compiler struct {
	cfg    Config
	log    *eventlog.Log
	finder Finder
	logger *slog.Logger
}

// New creates a compiler. finder may be nil, in which case metadata comes
// from the event log only.
func New(cfg Config, log *eventlog.Log, finder Finder, logger *slog.Logger) (*Compiler, error) {
	if cfg.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("compiler: working directory: %w", err)
		}
		cfg.WorkDir = wd
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{cfg: cfg, log: log, finder: finder, logger: logger}, nil
}

// Config returns the compiler's configuration.
func (c *Compiler) Config() Config { return c.cfg }

// Compile renders the entry for req and returns where it was written.
func (c *Compiler) Compile(ctx context.Context, req Request) (*Result, error) {
	col, ok := c.cfg.Collections[req.Collection]
	if !ok {
		return nil, &apperr.UnknownDestinationError{Key: req.Collection, Available: c.cfg.Keys()}
	}

	date, err := dates.Normalize(req.Date)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(date + " - " + req.TitleSuffix)
	topics := ParseTopics(req.TopicsCSV)

	read, err := c.log.ReadAll(ctx, date)
	if err != nil {
		return nil, err
	}
	if read.Skipped > 0 {
		c.logger.Warn("compile: skipped malformed log lines",
			slog.String("date", date),
			slog.Int("skipped", read.Skipped))
	}
	buckets := aggregate.Bucketize(read.Events)

	var excerptRule *rules.ExcerptRule
	if col.Rules != nil {
		excerptRule = col.Rules.Excerpt
	}
	excerpt := rules.ClampExcerpt(ExcerptSeed(buckets, date), excerptRule)

	if err := rules.Validate(req.Collection, title, excerpt, topics, col.Rules); err != nil {
		return nil, err
	}

	templatePath := c.cfg.TemplatePath(col)
	tmpl, err := os.ReadFile(templatePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &apperr.TemplateNotFoundError{Path: templatePath}
		}
		return nil, fmt.Errorf("compiler: read template: %w", err)
	}

	loc := c.cfg.Location
	vars := map[string]string{
		"title":        title,
		"date":         date,
		"excerpt":      render.QuoteEscape(excerpt),
		"topics":       render.TopicList(topics),
		"draft":        strconv.FormatBool(col.Draft()),
		"context":      aggregate.RenderBullets(buckets.Context, loc, col.BulletTimes),
		"actions":      aggregate.RenderBullets(buckets.Actions, loc, col.BulletTimes),
		"observations": aggregate.RenderBullets(buckets.Observations, loc, col.BulletTimes),
		"openThreads":  aggregate.RenderBullets(buckets.OpenThreads, loc, col.BulletTimes),
		"timeline":     aggregate.RenderTimeline(read.Events, loc),
	}
	rendered := render.Render(string(tmpl), vars)

	outDir := c.cfg.OutputDir(col)
	out, err := storage.NewFS(outDir)
	if err != nil {
		return nil, fmt.Errorf("compiler: output dir: %w", err)
	}
	name := OutputName(date, req.TitleSuffix)
	if err := out.Write(name, []byte(rendered)); err != nil {
		return nil, fmt.Errorf("compiler: write entry: %w", err)
	}
	outPath := filepath.Join(out.Root(), name)

	if _, err := c.log.AppendMeta(ctx, date, models.Metadata{
		TitleSuffix: req.TitleSuffix,
		TopicsCSV:   req.TopicsCSV,
	}); err != nil {
		return nil, fmt.Errorf("compiler: record metadata: %w", err)
	}

	c.logger.Info("compile: entry written",
		slog.String("collection", req.Collection),
		slog.String("date", date),
		slog.String("path", outPath),
		slog.Int("events", len(read.Events)))

	return &Result{
		OutputPath: outPath,
		Collection: req.Collection,
		Date:       date,
		Title:      title,
		Excerpt:    excerpt,
		Topics:     topics,
	}, nil
}

// ResolveMetadata returns the compile metadata to pre-fill for date. The
// last meta event is the fallback; the front matter of an already compiled
// entry overrides every field it carries. nil means nothing is known.
func (c *Compiler) ResolveMetadata(ctx context.Context, date string) (*models.Metadata, error) {
	ymd, err := dates.Normalize(date)
	if err != nil {
		return nil, err
	}
	meta, err := c.log.ReadMeta(ctx, ymd)
	if err != nil {
		return nil, err
	}
	if c.finder == nil {
		return meta, nil
	}
	path, ok, err := c.finder.FindCompiledOutput(ctx, ymd)
	if err != nil {
		return nil, err
	}
	if !ok {
		return meta, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn("compile: read compiled entry failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return meta, nil
	}
	fm := parser.Parse(data)
	if fm.Title == "" && !fm.HasTopics {
		return meta, nil
	}
	merged := models.Metadata{}
	if meta != nil {
		merged = *meta
	}
	if fm.Title != "" {
		merged.TitleSuffix = SuffixFromTitle(fm.Title, ymd)
	}
	if fm.HasTopics {
		merged.TopicsCSV = strings.Join(fm.Topics, ", ")
	}
	return &merged, nil
}

// ExcerptSeed picks the first action, else observation, else context note,
// else a generated sentence.
func ExcerptSeed(b models.Buckets, date string) string {
	for _, bucket := range [][]models.Event{b.Actions, b.Observations, b.Context} {
		if len(bucket) > 0 && bucket[0].Text != "" {
			return bucket[0].Text
		}
	}
	return fmt.Sprintf("Dev Diary entry for %s.", date)
}

// ParseTopics splits a comma or newline separated list, dropping blanks.
func ParseTopics(csv string) []string {
	fields := strings.FieldsFunc(csv, func(r rune) bool { return r == ',' || r == '\n' })
	topics := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// OutputName is the entry file name: slug(date-suffix).md, or
// date-dev-diary.md when the slug is empty.
func OutputName(date, suffix string) string {
	slug := dates.Slugify(date + "-" + suffix)
	if slug == "" {
		slug = date + "-dev-diary"
	}
	return slug + ".md"
}

// SuffixFromTitle strips a leading "YYYY-MM-DD - " from a compiled title.
func SuffixFromTitle(title, date string) string {
	t := strings.TrimSpace(title)
	if rest, ok := strings.CutPrefix(t, date); ok {
		rest = strings.TrimSpace(rest)
		rest = strings.TrimPrefix(rest, "-")
		return strings.TrimSpace(rest)
	}
	return t
}
