// Package eventlog stores classified notes as an append-only JSON Lines file
// per calendar day.
//
// Each line is a self-contained object with the keys ts, date, section and
// text. Reads are lenient: a line that does not parse, or lacks a required
// key, is counted and skipped rather than failing the read.
package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/devdiary/internal/apperr"
	"github.com/starford/devdiary/internal/classify"
	"github.com/starford/devdiary/internal/dates"
	"github.com/starford/devdiary/internal/models"
	"github.com/starford/devdiary/internal/storage"
)

// Ext is the file extension of a day log.
const Ext = ".jsonl"

// ReadResult is the outcome of a lenient read.
type ReadResult struct {
	Events  []models.Event
	Skipped int
}

// Log reads and writes day logs through a storage.Provider rooted at the inbox directory.
type Log struct {
	store storage.Provider
	now   func() string
}

// New creates a Log over store.
func New(store storage.Provider) *Log {
	return &Log{store: store, now: dates.Now}
}

// Open creates a Log for {repoRoot}/{inboxDir}.
func Open(repoRoot, inboxDir string) (*Log, error) {
	dir := inboxDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(repoRoot, inboxDir)
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		return nil, fmt.Errorf("eventlog: %w", err)
	}
	return New(store), nil
}

// Store returns the provider the log reads and writes through.
func (l *Log) Store() storage.Provider { return l.store }

// FileName returns the log file name for a normalised date.
func FileName(date string) string {
	return date + Ext
}

// Path returns the storage location of the log for date.
func (l *Log) Path(date string) (string, error) {
	ymd, err := dates.Normalize(date)
	if err != nil {
		return "", err
	}
	return l.store.Abs(FileName(ymd))
}

// AppendNote classifies raw and appends it. It fails with EmptyNoteError
// before touching storage when nothing is left after the prefix.
func (l *Log) AppendNote(ctx context.Context, date, raw string) (string, models.Event, error) {
	section, cleaned, err := classify.Classify(raw)
	if err != nil {
		return "", models.Event{}, err
	}
	return l.append(ctx, date, section, cleaned, "")
}

// Append writes one event line for date and returns the log location.
// An empty ts is replaced with the current instant.
func (l *Log) Append(ctx context.Context, date string, section models.Section, text, ts string) (string, error) {
	path, _, err := l.append(ctx, date, section, text, ts)
	return path, err
}

// AppendMeta records compile metadata for date. Later records win.
func (l *Log) AppendMeta(ctx context.Context, date string, meta models.Metadata) (string, error) {
	payload, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("eventlog: encode meta: %w", err)
	}
	return l.Append(ctx, date, models.SectionMeta, string(payload), "")
}

func (l *Log) append(ctx context.Context, date string, section models.Section, text, ts string) (string, models.Event, error) {
	if err := ctx.Err(); err != nil {
		return "", models.Event{}, err
	}
	ymd, err := dates.Normalize(date)
	if err != nil {
		return "", models.Event{}, err
	}
	ev, err := l.prepare(ymd, models.Event{TS: ts, Section: section, Text: text})
	if err != nil {
		return "", models.Event{}, err
	}
	line, err := json.Marshal(ev)
	if err != nil {
		return "", models.Event{}, fmt.Errorf("eventlog: encode event: %w", err)
	}
	name := FileName(ymd)
	if err := l.store.Append(name, line); err != nil {
		return "", models.Event{}, fmt.Errorf("eventlog: append %s: %w", ymd, err)
	}
	path, err := l.store.Abs(name)
	if err != nil {
		return "", models.Event{}, err
	}
	return path, ev, nil
}

// prepare stamps ev with the day and a timestamp and checks the event invariants.
func (l *Log) prepare(ymd string, ev models.Event) (models.Event, error) {
	if !ev.Section.Valid() {
		return ev, fmt.Errorf("eventlog: %w %q", apperr.ErrUnknownSection, ev.Section)
	}
	if ev.Section != models.SectionMeta && strings.TrimSpace(ev.Text) == "" {
		return ev, &apperr.EmptyNoteError{}
	}
	if ev.TS == "" {
		ev.TS = l.now()
	}
	ev.Date = ymd
	return ev, nil
}

// ReadAll returns the non-meta events of date in file order. An absent log
// is an empty result.
func (l *Log) ReadAll(ctx context.Context, date string) (ReadResult, error) {
	events, _, skipped, err := l.scan(ctx, date)
	if err != nil {
		return ReadResult{}, err
	}
	return ReadResult{Events: events, Skipped: skipped}, nil
}

// ReadMeta returns the payload of the last well-formed meta event, or nil.
func (l *Log) ReadMeta(ctx context.Context, date string) (*models.Metadata, error) {
	_, metas, _, err := l.scan(ctx, date)
	if err != nil {
		return nil, err
	}
	for i := len(metas) - 1; i >= 0; i-- {
		if meta, ok := decodeMeta(metas[i].Text); ok {
			return meta, nil
		}
	}
	return nil, nil
}

// ReplaceAll overwrites the whole log for date with events, in the given
// order. Missing timestamps are filled in and every date is forced to the
// target day. The file is swapped atomically.
func (l *Log) ReplaceAll(ctx context.Context, date string, events []models.Event) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ymd, err := dates.Normalize(date)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, e := range events {
		ev, err := l.prepare(ymd, e)
		if err != nil {
			return "", err
		}
		line, err := json.Marshal(ev)
		if err != nil {
			return "", fmt.Errorf("eventlog: encode event: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	name := FileName(ymd)
	if err := l.store.Write(name, buf.Bytes()); err != nil {
		return "", fmt.Errorf("eventlog: replace %s: %w", ymd, err)
	}
	return l.store.Abs(name)
}

// Dates lists the days that have a log, oldest first.
func (l *Log) Dates(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := l.store.List(Ext)
	if err != nil {
		return nil, fmt.Errorf("eventlog: %w", err)
	}
	var out []string
	for _, f := range files {
		if day, ok := DateFromName(f.Path); ok {
			out = append(out, day)
		}
	}
	sort.Strings(out)
	return out, nil
}

// DateFromName extracts the day from a log file name such as 2024-05-01.jsonl.
func DateFromName(name string) (string, bool) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, Ext) {
		return "", false
	}
	day := strings.TrimSuffix(base, Ext)
	ymd, err := dates.Normalize(day)
	if err != nil || ymd != day {
		return "", false
	}
	return day, true
}

func (l *Log) scan(ctx context.Context, date string) (events, metas []models.Event, skipped int, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, 0, err
	}
	ymd, err := dates.Normalize(date)
	if err != nil {
		return nil, nil, 0, err
	}
	data, err := l.store.Read(FileName(ymd))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Event{}, nil, 0, nil
		}
		return nil, nil, 0, fmt.Errorf("eventlog: read %s: %w", ymd, err)
	}
	events, metas, skipped = Parse(data)
	return events, metas, skipped, nil
}

// Parse splits raw log content into note events and meta events. Blank lines
// are ignored; malformed lines are counted in skipped.
func Parse(data []byte) (events, metas []models.Event, skipped int) {
	events = []models.Event{}
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		ev, ok := parseLine(line)
		if !ok {
			skipped++
			continue
		}
		if ev.Section == models.SectionMeta {
			metas = append(metas, ev)
			continue
		}
		events = append(events, ev)
	}
	return events, metas, skipped
}

func parseLine(line string) (models.Event, bool) {
	var ev models.Event
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return models.Event{}, false
	}
	if ev.TS == "" || ev.Section == "" || ev.Text == "" || !ev.Section.Valid() {
		return models.Event{}, false
	}
	return ev, true
}

func decodeMeta(payload string) (*models.Metadata, bool) {
	if !strings.HasPrefix(strings.TrimSpace(payload), "{") {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.DisallowUnknownFields()
	var meta models.Metadata
	if err := dec.Decode(&meta); err != nil {
		return nil, false
	}
	return &meta, true
}
