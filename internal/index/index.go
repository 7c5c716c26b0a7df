package index

import "github.com/starford/devdiary/internal/models"

// DiaryIndex is the part of the index the diary service and API depend on.
type DiaryIndex interface {
	UpsertDay(date, checksum string, events []models.Event) error
	DeleteDay(date string) error
	DayChecksum(date string) (string, error)
	AllChecksums() (map[string]string, error)
	UpsertEntry(e EntryRow) error
	ListEntries(limit int) ([]EntryRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

var _ DiaryIndex = (*DB)(nil)
