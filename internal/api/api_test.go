package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/starford/devdiary/internal/compiler"
	"github.com/starford/devdiary/internal/rules"
	"github.com/starford/devdiary/internal/testutil"
)

type fakeOpener struct {
	mu     sync.Mutex
	opened []string
}

func (f *fakeOpener) Open(_ context.Context, target string) error {
	f.mu.Lock()
	f.opened = append(f.opened, target)
	f.mu.Unlock()
	return nil
}

// testEnv sets up a temp repo, service and router. Topics for the default
// collection are restricted to bugfix and general.
func testEnv(t *testing.T) (*testutil.Env, http.Handler, *fakeOpener) {
	t.Helper()
	repo, cfg := testutil.TestRepo(t)
	col := cfg.Collections[testutil.Collection]
	col.Rules = &rules.Rules{Topics: &rules.TopicsRule{Allowed: []string{"bugfix", "general"}, MinCount: 1}}
	cfg.Collections[testutil.Collection] = col
	cfg.Collections["notes"] = compiler.Collection{OutputDir: "notes", TemplatePath: "templates/missing.md"}

	env := testutil.NewEnvWithConfig(t, repo, cfg, true)
	op := &fakeOpener{}
	router := NewRouter(env.Service, Settings{
		Title:  "Test Diary",
		Opener: op,
		Logger: testutil.Logger(),
	})
	return env, router, op
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		req = httptest.NewRequest(method, target, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestConfig(t *testing.T) {
	_, router, _ := testEnv(t)
	w := do(t, router, http.MethodGet, "/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode[ConfigResponse](t, w)
	want := ConfigResponse{
		Title:             "Test Diary",
		Collections:       []string{"devDiary", "notes"},
		DefaultCollection: "devDiary",
		TopicsAllowed:     []string{"bugfix", "general"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestAddAndGetInbox(t *testing.T) {
	_, router, _ := testEnv(t)

	w := do(t, router, http.MethodPost, "/inbox", AddNoteRequest{Text: "ctx: started work", Date: "2024-05-01"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body = %s", w.Code, w.Body.String())
	}
	added := decode[AddNoteResponse](t, w)
	if !added.Success || added.Event.Text != "started work" {
		t.Errorf("added = %+v", added)
	}

	w = do(t, router, http.MethodGet, "/inbox?date=2024-05-01", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	view := decode[InboxResponse](t, w)
	if view.Date != "2024-05-01" || len(view.Events) != 1 || view.Events[0].Section != "context" {
		t.Errorf("view = %+v", view)
	}
}

func TestAddNote_BadRequests(t *testing.T) {
	_, router, _ := testEnv(t)
	cases := []struct {
		name string
		body any
		want string
	}{
		{"missing text", AddNoteRequest{Date: "2024-05-01"}, "text is required"},
		{"empty after prefix", AddNoteRequest{Text: "obs:", Date: "2024-05-01"}, "empty note after prefix removal"},
		{"bad date", AddNoteRequest{Text: "x", Date: "someday"}, "someday"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/inbox", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tc.want) {
				t.Errorf("body = %s, want %q", w.Body.String(), tc.want)
			}
		})
	}
}

func TestRequireJSON(t *testing.T) {
	_, router, _ := testEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/inbox", strings.NewReader("text=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d", w.Code)
	}
}

func TestReplaceInbox(t *testing.T) {
	_, router, _ := testEnv(t)
	_ = do(t, router, http.MethodPost, "/inbox", AddNoteRequest{Text: "old", Date: "2024-05-01"})

	body := map[string]any{
		"date": "2024-05-01",
		"events": []map[string]string{
			{"section": "actions", "text": "rewritten"},
			{"section": "openThreads", "text": "follow up", "ts": "2024-05-01T12:00:00.000Z"},
		},
	}
	w := do(t, router, http.MethodPut, "/inbox", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	view := decode[InboxResponse](t, do(t, router, http.MethodGet, "/inbox?date=2024-05-01", nil))
	if len(view.Events) != 2 || view.Events[0].Text != "rewritten" || view.Events[1].TS != "2024-05-01T12:00:00.000Z" {
		t.Errorf("view = %+v", view)
	}

	w = do(t, router, http.MethodPut, "/inbox", map[string]any{"date": "2024-05-01"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing events status = %d", w.Code)
	}
	w = do(t, router, http.MethodPut, "/inbox", map[string]any{"date": "2024-05-01", "events": []map[string]string{{"section": "misc", "text": "x"}}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown section status = %d", w.Code)
	}
}

func TestCompile_Success(t *testing.T) {
	env, router, op := testEnv(t)
	_ = do(t, router, http.MethodPost, "/inbox", AddNoteRequest{Text: "ctx: started work", Date: "2024-05-01"})
	_ = do(t, router, http.MethodPost, "/inbox", AddNoteRequest{Text: "act: fixed bug", Date: "2024-05-01"})

	w := do(t, router, http.MethodPost, "/compile", CompileRequest{
		Date:   "2024-05-01",
		Title:  "Dev-Diary Entry 2024-05-01 - Bugfix",
		Topics: "bugfix",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[map[string]any](t, w)
	want := filepath.Join(env.Repo, "entries", "2024-05-01-bugfix.md")
	if res["path"] != want || res["success"] != true || res["title"] != "2024-05-01 - Bugfix" {
		t.Errorf("response = %v", res)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "- fixed bug") {
		t.Errorf("entry:\n%s", data)
	}
	if diff := cmp.Diff([]string{want}, op.opened); diff != "" {
		t.Errorf("opened (-want +got):\n%s", diff)
	}

	entries := decode[EntriesResponse](t, do(t, router, http.MethodGet, "/entries", nil))
	if len(entries.Entries) != 1 || entries.Entries[0].Path != want {
		t.Errorf("entries = %+v", entries)
	}
}

func TestCompile_Defaults(t *testing.T) {
	env, router, _ := testEnv(t)
	_ = do(t, router, http.MethodPost, "/inbox", AddNoteRequest{Text: "did things", Date: "2024-05-02"})

	w := do(t, router, http.MethodPost, "/compile", CompileRequest{Date: "2024-05-02"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[map[string]any](t, w)
	if res["title"] != "2024-05-02 - Daily Log" {
		t.Errorf("title = %v", res["title"])
	}
	if _, err := os.Stat(filepath.Join(env.Repo, "entries", "2024-05-02-daily-log.md")); err != nil {
		t.Errorf("entry not written: %v", err)
	}
}

func TestCompile_ErrorMapping(t *testing.T) {
	_, router, op := testEnv(t)
	_ = do(t, router, http.MethodPost, "/inbox", AddNoteRequest{Text: "x", Date: "2024-05-01"})

	cases := []struct {
		name   string
		req    CompileRequest
		status int
		want   string
	}{
		{"disallowed topic", CompileRequest{Date: "2024-05-01", Topics: "misc"}, http.StatusUnprocessableEntity, "invalid topic(s) for devDiary: misc"},
		{"unknown collection", CompileRequest{Date: "2024-05-01", Collection: "blog"}, http.StatusNotFound, "unknown collection \"blog\""},
		{"missing template", CompileRequest{Date: "2024-05-01", Collection: "notes"}, http.StatusInternalServerError, "template not found"},
		{"bad date", CompileRequest{Date: "31/12/2024"}, http.StatusBadRequest, "31/12/2024"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/compile", tc.req)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tc.status, w.Body.String())
			}
			body := decode[errResponse](t, w)
			if !strings.Contains(body.Error, tc.want) || body.Success {
				t.Errorf("body = %+v, want %q", body, tc.want)
			}
		})
	}
	if len(op.opened) != 0 {
		t.Errorf("failed compiles opened files: %v", op.opened)
	}
}

func TestTitleSuffix(t *testing.T) {
	cases := map[string]string{
		"":                                   "Daily Log",
		"  ":                                 "Daily Log",
		"Bugfix":                             "Bugfix",
		"Dev-Diary Entry 2024-05-01 - Fixes": "Fixes",
		"Dev-Diary Entry 2024-05-01":         "Daily Log",
		"Dev-Diary Entry 2024-05-02 - Other": "Dev-Diary Entry 2024-05-02 - Other",
	}
	for in, want := range cases {
		if got := TitleSuffix(in, "2024-05-01"); got != want {
			t.Errorf("TitleSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSearch(t *testing.T) {
	_, router, _ := testEnv(t)
	_ = do(t, router, http.MethodPost, "/inbox", AddNoteRequest{Text: "obs: sqlite WAL mode helps", Date: "2024-05-01"})

	w := do(t, router, http.MethodGet, "/search?q=wal", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	res := decode[SearchResponse](t, w)
	if len(res.Results) != 1 || res.Results[0].Date != "2024-05-01" {
		t.Errorf("results = %+v", res.Results)
	}

	if w := do(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q status = %d", w.Code)
	}
}

func TestEventsMountedOnlyWhenConfigured(t *testing.T) {
	env, _, _ := testEnv(t)
	r := chi.NewRouter()
	r.Mount("/api", NewRouter(env.Service, Settings{Logger: testutil.Logger()}))
	if w := do(t, r, http.MethodGet, "/api/events", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	called := false
	events := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	r = chi.NewRouter()
	r.Mount("/api", NewRouter(env.Service, Settings{Events: events}))
	_ = do(t, r, http.MethodGet, "/api/events", nil)
	if !called {
		t.Error("events handler not mounted")
	}
}
