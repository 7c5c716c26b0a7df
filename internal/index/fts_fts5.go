//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/devdiary/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS events_fts USING fts5(
			date UNINDEXED,
			seq UNINDEXED,
			text,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, date string, events []models.Event) error {
	_, _ = tx.Exec(`DELETE FROM events_fts WHERE date = ?`, date)
	for i, ev := range events {
		if _, err := tx.Exec(`INSERT INTO events_fts (date, seq, text) VALUES (?, ?, ?)`, date, i, ev.Text); err != nil {
			return fmt.Errorf("index: upsert fts: %w", err)
		}
	}
	return nil
}

func ftsDelete(tx *sql.Tx, date string) {
	_, _ = tx.Exec(`DELETE FROM events_fts WHERE date = ?`, date)
}

// Search runs an FTS5 match over event text, best rank first.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT e.date, e.ts, e.section, e.text
		FROM events_fts
		JOIN events e ON e.date = events_fts.date AND e.seq = events_fts.seq
		WHERE events_fts MATCH ?
		ORDER BY events_fts.rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
