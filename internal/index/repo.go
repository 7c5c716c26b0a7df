package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/devdiary/internal/models"
)

// EntryRow is one compiled entry.
type EntryRow struct {
	Path       string    `json:"path"`
	Date       string    `json:"date"`
	Title      string    `json:"title"`
	Topics     []string  `json:"topics"`
	Collection string    `json:"collection"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SearchResult is one matching event.
type SearchResult struct {
	Date    string         `json:"date"`
	TS      string         `json:"ts"`
	Section models.Section `json:"section"`
	Text    string         `json:"text"`
}

// UpsertDay replaces everything stored for date with events in one transaction.
func (db *DB) UpsertDay(date, checksum string, events []models.Event) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO days (date, checksum) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET checksum = excluded.checksum
	`, date, checksum)
	if err != nil {
		return fmt.Errorf("index: upsert day: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM events WHERE date = ?`, date); err != nil {
		return fmt.Errorf("index: clear events: %w", err)
	}
	if len(events) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO events (date, seq, ts, section, text) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare event insert: %w", err)
		}
		defer stmt.Close()
		for i, ev := range events {
			if _, err := stmt.Exec(date, i, ev.TS, string(ev.Section), ev.Text); err != nil {
				return fmt.Errorf("index: insert event: %w", err)
			}
		}
	}

	if err := ftsUpsert(tx, date, events); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDay removes a day and its events.
func (db *DB) DeleteDay(date string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, date)
	if _, err := tx.Exec(`DELETE FROM events WHERE date = ?`, date); err != nil {
		return fmt.Errorf("index: delete events: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM days WHERE date = ?`, date); err != nil {
		return fmt.Errorf("index: delete day: %w", err)
	}
	return tx.Commit()
}

// DayChecksum returns the stored checksum for date, or "" if it is not indexed.
func (db *DB) DayChecksum(date string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM days WHERE date = ?`, date).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: day checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums maps every indexed date to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT date, checksum FROM days`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var d, cs string
		if err := rows.Scan(&d, &cs); err != nil {
			return nil, err
		}
		out[d] = cs
	}
	return out, rows.Err()
}

// UpsertEntry records a compiled entry, keyed by its path.
func (db *DB) UpsertEntry(e EntryRow) error {
	topics := e.Topics
	if topics == nil {
		topics = []string{}
	}
	topicsJSON, _ := json.Marshal(topics)
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO entries (path, date, title, topics, collection, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			date       = excluded.date,
			title      = excluded.title,
			topics     = excluded.topics,
			collection = excluded.collection,
			updated_at = excluded.updated_at
	`, e.Path, e.Date, e.Title, string(topicsJSON), e.Collection, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert entry: %w", err)
	}
	return nil
}

// ListEntries returns compiled entries, newest date first.
func (db *DB) ListEntries(limit int) ([]EntryRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT path, date, title, topics, collection, updated_at
		FROM entries
		ORDER BY date DESC, path ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: list entries: %w", err)
	}
	defer rows.Close()

	out := []EntryRow{}
	for rows.Next() {
		var (
			e      EntryRow
			topics string
		)
		if err := rows.Scan(&e.Path, &e.Date, &e.Title, &topics, &e.Collection, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(topics), &e.Topics); err != nil || e.Topics == nil {
			e.Topics = []string{}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
