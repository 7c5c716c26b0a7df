package index

import (
	"context"
	"log/slog"

	"github.com/starford/devdiary/internal/eventlog"
	"github.com/starford/devdiary/internal/storage"
)

// Sync walks the inbox and brings the index up to date:
//   - new or changed day logs are parsed and upserted
//   - days whose log was removed are deleted from the index
func Sync(ctx context.Context, db DiaryIndex, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List(eventlog.Ext)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return err
		}
		date, ok := eventlog.DateFromName(m.Path)
		if !ok {
			continue
		}
		disk[date] = struct{}{}

		if checksums[date] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDay(db, date, data); err != nil {
			logger.Warn("sync: index failed", slog.String("date", date), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("date", date))
		}
	}

	for d := range checksums {
		if _, ok := disk[d]; !ok {
			if err := db.DeleteDay(d); err != nil {
				logger.Warn("sync: delete failed", slog.String("date", d), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("date", d))
			}
		}
	}

	return nil
}

// IndexDay parses the raw log for date and upserts its events. Meta events
// and malformed lines are not indexed.
func IndexDay(db DiaryIndex, date string, data []byte) error {
	events, _, _ := eventlog.Parse(data)
	return db.UpsertDay(date, storage.Checksum(data), events)
}
