package api

import (
	"github.com/starford/devdiary/internal/compiler"
	"github.com/starford/devdiary/internal/diary"
	"github.com/starford/devdiary/internal/index"
	"github.com/starford/devdiary/internal/models"
)

// ConfigResponse describes the dashboard settings.
type ConfigResponse struct {
	Title             string   `json:"title" example:"Dev Diary Dashboard" validate:"required"`
	Collections       []string `json:"collections" validate:"required"`
	DefaultCollection string   `json:"defaultCollection" example:"devDiary" validate:"required"`
	TopicsAllowed     []string `json:"topicsAllowed" validate:"required"`
}

// InboxResponse is one day's inbox (aliased from the domain layer).
type InboxResponse = diary.InboxView

// AddNoteRequest is the request body for appending a note.
type AddNoteRequest struct {
	Text string `json:"text" example:"act: fixed the flaky test" validate:"required"`
	Date string `json:"date,omitempty" example:"2024-05-01"`
}

// AddNoteResponse is returned after a note is appended.
type AddNoteResponse struct {
	Success bool         `json:"success"`
	Path    string       `json:"path"`
	Event   models.Event `json:"event"`
}

// ReplaceInboxRequest is the request body for rewriting a day's inbox.
type ReplaceInboxRequest struct {
	Date   string         `json:"date,omitempty" example:"2024-05-01"`
	Events []models.Event `json:"events" validate:"required"`
}

// ReplaceInboxResponse is returned after an inbox rewrite.
type ReplaceInboxResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
}

// CompileRequest is the request body for compiling an entry. Title may be
// a bare suffix or a full "Dev-Diary Entry YYYY-MM-DD - suffix".
type CompileRequest struct {
	Date       string `json:"date,omitempty" example:"2024-05-01"`
	Title      string `json:"title,omitempty" example:"Bugfix"`
	Topics     string `json:"topics,omitempty" example:"bugfix, infra"`
	Collection string `json:"collection,omitempty" example:"devDiary"`
}

// CompileResponse is returned after a successful compile.
type CompileResponse struct {
	Success bool `json:"success"`
	*compiler.Result
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// EntriesResponse wraps compiled entries.
type EntriesResponse struct {
	Entries []index.EntryRow `json:"entries" validate:"required"`
}
