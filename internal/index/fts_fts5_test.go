//go:build sqlite_fts5

package index

import (
	"testing"

	"github.com/starford/devdiary/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM events_fts`).Scan(&count); err != nil {
		t.Fatalf("events_fts table missing: %v", err)
	}
}

func TestFTS5_SearchJoinsEvents(t *testing.T) {
	db := testDB(t)
	events := []models.Event{
		{TS: "2024-05-01T09:00:00.000Z", Date: "2024-05-01", Section: models.SectionActions, Text: "profiled the powerful scheduler"},
	}
	if err := db.UpsertDay("2024-05-01", "c1", events); err != nil {
		t.Fatalf("UpsertDay: %v", err)
	}
	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Section != models.SectionActions {
		t.Fatalf("results = %+v", results)
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDay("2024-05-02", "g", []models.Event{{Section: models.SectionContext, Text: "vanishing content"}})
	_ = db.DeleteDay("2024-05-02")

	results, _ := db.Search("vanishing", 10)
	if len(results) != 0 {
		t.Errorf("deleted day still in FTS index: %+v", results)
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDay("2024-05-03", "1", []models.Event{{Section: models.SectionActions, Text: "original text"}})
	_ = db.UpsertDay("2024-05-03", "2", []models.Event{{Section: models.SectionActions, Text: "replacement text"}})

	if results, _ := db.Search("original", 10); len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	if results, _ := db.Search("replacement", 10); len(results) != 1 {
		t.Errorf("FTS not updated: %+v", results)
	}
}
