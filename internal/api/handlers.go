package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/starford/devdiary/internal/compiler"
	"github.com/starford/devdiary/internal/dates"
	"github.com/starford/devdiary/internal/diary"
)

// DefaultTitleSuffix is used when a compile request carries no title.
const DefaultTitleSuffix = "Daily Log"

// DefaultTopics is used when a compile request carries no topics.
const DefaultTopics = "general"

const maxBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc      *diary.Service
	settings Settings
	logger   *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc *diary.Service, s Settings) *Handler {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, settings: s, logger: logger}
}

func (h *Handler) defaultCollection() string {
	return h.svc.DefaultCollection(h.settings.DefaultCollection)
}

// Config handles GET /api/config.
//
//	@Summary		Dashboard settings
//	@Tags			config
//	@Produce		json
//	@Success		200	{object}	ConfigResponse
//	@Router			/config [get]
func (h *Handler) Config(w http.ResponseWriter, _ *http.Request) {
	def := h.defaultCollection()
	allowed := []string{}
	if col, ok := h.svc.CompilerConfig().Collections[def]; ok && col.Rules != nil && col.Rules.Topics != nil {
		allowed = append(allowed, col.Rules.Topics.Allowed...)
	}
	title := h.settings.Title
	if title == "" {
		title = "Dev Diary Dashboard"
	}
	writeJSON(w, http.StatusOK, ConfigResponse{
		Title:             title,
		Collections:       h.svc.Collections(),
		DefaultCollection: def,
		TopicsAllowed:     allowed,
	})
}

// GetInbox handles GET /api/inbox.
//
//	@Summary		Events and compile metadata for a day
//	@Tags			inbox
//	@Produce		json
//	@Param			date	query		string	false	"Day (YYYY-MM-DD), default today"
//	@Success		200		{object}	InboxResponse
//	@Failure		400		{object}	errResponse
//	@Router			/inbox [get]
func (h *Handler) GetInbox(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Inbox(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, h.logger, "read inbox", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// AddNote handles POST /api/inbox.
//
//	@Summary		Append a note
//	@Tags			inbox
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddNoteRequest	true	"Note to append"
//	@Success		201		{object}	AddNoteResponse
//	@Failure		400		{object}	errResponse
//	@Router			/inbox [post]
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req AddNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("text is required"))
		return
	}
	added, err := h.svc.AddNote(r.Context(), req.Date, req.Text)
	if err != nil {
		writeError(w, h.logger, "add note", err)
		return
	}
	writeJSON(w, http.StatusCreated, AddNoteResponse{Success: true, Path: added.Path, Event: added.Event})
}

// ReplaceInbox handles PUT /api/inbox.
//
//	@Summary		Rewrite a day's inbox
//	@Tags			inbox
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ReplaceInboxRequest	true	"Replacement events"
//	@Success		200		{object}	ReplaceInboxResponse
//	@Failure		400		{object}	errResponse
//	@Router			/inbox [put]
func (h *Handler) ReplaceInbox(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req ReplaceInboxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Events == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("events array required"))
		return
	}
	date, err := dates.OrToday(req.Date, h.svc.Location())
	if err != nil {
		writeError(w, h.logger, "replace inbox", err)
		return
	}
	path, err := h.svc.ReplaceInbox(r.Context(), date, req.Events)
	if err != nil {
		writeError(w, h.logger, "replace inbox", err)
		return
	}
	writeJSON(w, http.StatusOK, ReplaceInboxResponse{Success: true, Path: path})
}

// Compile handles POST /api/compile.
//
//	@Summary		Compile a day into an entry
//	@Tags			compile
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CompileRequest	true	"Compile options"
//	@Success		200		{object}	CompileResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Router			/compile [post]
func (h *Handler) Compile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	date, err := dates.OrToday(req.Date, h.svc.Location())
	if err != nil {
		writeError(w, h.logger, "compile", err)
		return
	}
	collection := strings.TrimSpace(req.Collection)
	if collection == "" {
		collection = h.defaultCollection()
	}
	topics := strings.TrimSpace(req.Topics)
	if topics == "" {
		topics = DefaultTopics
	}

	res, err := h.svc.Compile(r.Context(), compiler.Request{
		Date:        date,
		Collection:  collection,
		TitleSuffix: TitleSuffix(req.Title, date),
		TopicsCSV:   topics,
	})
	if err != nil {
		writeError(w, h.logger, "compile", err)
		return
	}

	if h.settings.Opener != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
		if err := h.settings.Opener.Open(ctx, res.OutputPath); err != nil {
			h.logger.Warn("open compiled entry failed",
				slog.String("path", res.OutputPath),
				slog.String("error", err.Error()))
		}
		cancel()
	}
	writeJSON(w, http.StatusOK, CompileResponse{Success: true, Result: res})
}

// TitleSuffix reduces a dashboard title to the suffix the compiler expects.
// A leading "Dev-Diary Entry {date}" and the dash after it are dropped; an
// empty result becomes DefaultTitleSuffix.
func TitleSuffix(title, date string) string {
	suffix := strings.TrimSpace(title)
	if rest, ok := strings.CutPrefix(suffix, "Dev-Diary Entry "+date); ok {
		suffix = strings.TrimSpace(rest)
		suffix = strings.TrimSpace(strings.TrimPrefix(suffix, "-"))
	}
	if suffix == "" {
		return DefaultTitleSuffix
	}
	return suffix
}

// Search handles GET /api/search.
//
//	@Summary		Search note text across all days
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, h.logger, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Entries handles GET /api/entries.
//
//	@Summary		List compiled entries, newest first
//	@Tags			entries
//	@Produce		json
//	@Param			limit	query		int		false	"Max entries"
//	@Success		200		{object}	EntriesResponse
//	@Router			/entries [get]
func (h *Handler) Entries(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.svc.Entries(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, "list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, EntriesResponse{Entries: entries})
}
