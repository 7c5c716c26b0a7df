//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/devdiary/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on events.text.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ string, _ []models.Event) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a case-insensitive substring match over event text,
// newest day first.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + escapeLike(query) + "%"
	rows, err := db.conn.Query(`
		SELECT date, ts, section, text
		FROM events
		WHERE text LIKE ? ESCAPE '\'
		ORDER BY date DESC, seq ASC
		LIMIT ?
	`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
