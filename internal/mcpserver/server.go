// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes diary tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/devdiary/internal/apperr"
	"github.com/starford/devdiary/internal/compiler"
	"github.com/starford/devdiary/internal/diary"
)

const syntaxURI = "devdiary://note-syntax"

// Server wraps the MCP server with diary tools.
type Server struct {
	mcp               *server.MCPServer
	svc               *diary.Service
	defaultCollection string
	logger            *slog.Logger
}

// New creates a new MCP server with all diary tools registered.
// defaultCollection is used when compile_entry names no collection.
func New(svc *diary.Service, defaultCollection, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, defaultCollection: defaultCollection, logger: logger}

	s.mcp = server.NewMCPServer(
		"Dev Diary",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("add_note",
		mcp.WithDescription("Append a note to a day's inbox. A leading ctx:, act:, obs: or open: "+
			"prefix picks the section; unprefixed notes are actions. Read the syntax via "+
			"get_note_syntax or the "+syntaxURI+" resource."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Note text, optionally prefixed")),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default today)")),
	), s.addNote)

	s.mcp.AddTool(mcp.NewTool("read_inbox",
		mcp.WithDescription("List the notes recorded for a day."),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default today)")),
	), s.readInbox)

	s.mcp.AddTool(mcp.NewTool("compile_entry",
		mcp.WithDescription("Compile a day's notes into a Markdown entry for a collection."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title suffix; the entry title is \"{date} - {title}\"")),
		mcp.WithString("topics", mcp.Required(), mcp.Description("Comma separated topics")),
		mcp.WithString("collection", mcp.Description("Collection key (default from config)")),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default today)")),
	), s.compileEntry)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through notes of all days, newest first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List compiled entries, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum entries (default 50)")),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("get_note_syntax",
		mcp.WithDescription("Returns the note prefix vocabulary and compile rules. "+
			"Call this before adding notes to ensure they land in the right section."),
	), s.getNoteSyntax)

	s.mcp.AddResource(
		mcp.NewResource(syntaxURI, "Note Syntax",
			mcp.WithResourceDescription("Prefix vocabulary and compile rules for diary notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError reports err to the client. Input mistakes are returned as-is;
// anything else is logged first.
func (s *Server) toolError(op string, err error) (*mcp.CallToolResult, error) {
	if !apperr.IsUserError(err) {
		s.logger.Error("mcp tool failed", slog.String("tool", op), slog.String("error", err.Error()))
	}
	return mcp.NewToolResultError(err.Error()), nil
}

func (s *Server) addNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	added, err := s.svc.AddNote(ctx, req.GetString("date", ""), text)
	if err != nil {
		return s.toolError("add_note", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("added to %s (%s): %s",
		added.Event.Date, added.Event.Section.Label(), added.Event.Text)), nil
}

func (s *Server) readInbox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := s.svc.Inbox(ctx, req.GetString("date", ""))
	if err != nil {
		return s.toolError("read_inbox", err)
	}
	return mcp.NewToolResultText(diary.FormatInbox(view, s.svc.Location())), nil
}

func (s *Server) compileEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topics, err := req.RequireString("topics")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	collection := strings.TrimSpace(req.GetString("collection", ""))
	if collection == "" {
		collection = s.svc.DefaultCollection(s.defaultCollection)
	}

	res, err := s.svc.Compile(ctx, compiler.Request{
		Date:        req.GetString("date", ""),
		Collection:  collection,
		TitleSuffix: strings.TrimSpace(title),
		TopicsCSV:   topics,
	})
	if err != nil {
		return s.toolError("compile_entry", err)
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return s.toolError("search_notes", err)
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no matches found"), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.svc.Entries(ctx, req.GetInt("limit", 50))
	if err != nil {
		return s.toolError("list_entries", err)
	}
	var lines []string
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s  %s  (%s)", e.Date, e.Title, e.Path))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no entries compiled yet"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getNoteSyntax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteSyntax), nil
}

func (s *Server) readNoteSyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      syntaxURI,
			MIMEType: "text/markdown",
			Text:     NoteSyntax,
		},
	}, nil
}
