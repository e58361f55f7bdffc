package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"videoads/internal/adapter/repo"
	"videoads/internal/catalog"
	"videoads/internal/domain"
	"videoads/internal/feedback"
	"videoads/internal/infra"
	"videoads/internal/providers/genai"
	"videoads/internal/providers/prompt"
	"videoads/internal/providers/video"
	"videoads/internal/storage"
	"videoads/internal/workflow"
)

type fakeVerifier struct {
	valid bool
	err   error
	keys  []string
}

func (f *fakeVerifier) VerifyKey(_ context.Context, key string) (bool, error) {
	f.keys = append(f.keys, key)
	return f.valid, f.err
}

type fakeMedia struct {
	stream *genai.FileStream
	err    error
	key    string
	name   string
}

func (f *fakeMedia) OpenFile(_ context.Context, key, name string) (*genai.FileStream, error) {
	f.key, f.name = key, name
	return f.stream, f.err
}

func newTestApp(t *testing.T, provider *video.Scripted) (*App, *video.ScriptedFactory) {
	t.Helper()
	ctx := context.Background()

	db, err := infra.OpenSQLite(ctx, filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sqliteStore, err := repo.NewJobRepositorySQLite(ctx, db)
	if err != nil {
		t.Fatalf("NewJobRepositorySQLite returned error: %v", err)
	}
	store := repo.Serialize(sqliteStore)

	docs, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default returned error: %v", err)
	}

	factory := &video.ScriptedFactory{Provider: provider}
	policy := workflow.PollPolicy{Interval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1}
	return &App{
		Engine:    workflow.NewEngine(store, policy, zerolog.Nop()),
		Store:     store,
		Providers: factory,
		Keys:      &fakeVerifier{},
		Media:     &fakeMedia{},
		Catalog:   cat,
		Feedback:  feedback.NewBoard(docs, feedback.NewLimiter(time.Minute, nil), zerolog.Nop()),
		Defaults:  Defaults{Model: "veo-3.0-generate-preview", Resolution: "720p"},
		Logger:    zerolog.Nop(),
	}, factory
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.RemoteAddr = "198.51.100.20:4000"
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestGenerateValidatesInput(t *testing.T) {
	app, factory := newTestApp(t, video.NewScripted(prompt.VideoDetails{Title: "T", Prompt: "P"}, 0, "u"))

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{"},
		{name: "missing key", body: `{"ad_idea":"sneakers"}`},
		{name: "blank key", body: `{"ad_idea":"sneakers","key":"  "}`},
		{name: "missing idea", body: `{"key":"k"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(t, app.Generate, tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			var payload struct {
				Error struct {
					Status string `json:"status"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if payload.Error.Status != "INVALID_ARGUMENT" {
				t.Fatalf("error status = %q", payload.Error.Status)
			}
		})
	}
	if len(factory.Keys()) != 0 {
		t.Fatalf("no provider should be built for invalid input, got %v", factory.Keys())
	}
}

func TestGenerateSuccess(t *testing.T) {
	provider := video.NewScripted(prompt.VideoDetails{Title: "Sneaker Drop", Prompt: "neon court"}, 1, "https://x/video.mp4")
	app, factory := newTestApp(t, provider)

	rr := postJSON(t, app.Generate, `{"ad_idea":"sneakers","prompt":"neon","key":"user-key"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	var res workflow.Result
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Title != "Sneaker Drop" || res.VideoURL != "https://x/video.mp4" || res.JobID == 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if keys := factory.Keys(); len(keys) != 1 || keys[0] != "user-key" {
		t.Fatalf("provider keys = %v", keys)
	}
	sub := provider.Submissions()[0]
	if sub.Model != "veo-3.0-generate-preview" || sub.Resolution != "720p" {
		t.Fatalf("defaults not applied: %+v", sub)
	}
}

func TestGenerateReportsClassifiedFailure(t *testing.T) {
	provider := video.NewScripted(prompt.VideoDetails{Title: "T", Prompt: "P"}, 0, "u")
	provider.SubmitErr = errors.New("429 RESOURCE_EXHAUSTED")
	app, _ := newTestApp(t, provider)

	rr := postJSON(t, app.Generate, `{"ad_idea":"sneakers","key":"k"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	var payload struct {
		Error struct {
			HTTPCode int    `json:"http_code"`
			Status   string `json:"status"`
			Solution string `json:"solution"`
		} `json:"error"`
		Message string `json:"message"`
		JobID   int64  `json:"job_id"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Status != "RESOURCE_EXHAUSTED" || payload.Error.Solution == "" {
		t.Fatalf("error = %+v", payload.Error)
	}
	if payload.Message != "video job submission failed: 429 RESOURCE_EXHAUSTED" {
		t.Fatalf("message = %q", payload.Message)
	}

	job, err := app.Store.Get(context.Background(), payload.JobID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if job.Status != domain.JobStatusFailed || job.Error != payload.Message {
		t.Fatalf("stored job = %+v", job)
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestVideoProxy(t *testing.T) {
	app, _ := newTestApp(t, video.NewScripted(prompt.VideoDetails{}, 0, "u"))

	t.Run("missing key", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/video/f1", nil), "file_name", "f1")
		rr := httptest.NewRecorder()
		app.VideoProxy(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("upstream status relayed", func(t *testing.T) {
		app.Media = &fakeMedia{stream: &genai.FileStream{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader("gone"))}}
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/video/f1", nil), "file_name", "f1")
		req.Header.Set("X-Goog-Api-Key", "k")
		rr := httptest.NewRecorder()
		app.VideoProxy(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rr.Code)
		}
	})

	t.Run("streams body", func(t *testing.T) {
		media := &fakeMedia{stream: &genai.FileStream{
			StatusCode:  http.StatusOK,
			ContentType: "video/mp4",
			Body:        io.NopCloser(bytes.NewReader(bytes.Repeat([]byte("v"), 3<<20))),
		}}
		app.Media = media
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/video/f1", nil), "file_name", "f1")
		req.Header.Set("X-Goog-Api-Key", "k")
		rr := httptest.NewRecorder()
		app.VideoProxy(rr, req)
		if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "video/mp4" {
			t.Fatalf("status = %d content-type = %q", rr.Code, rr.Header().Get("Content-Type"))
		}
		if rr.Body.Len() != 3<<20 {
			t.Fatalf("body length = %d", rr.Body.Len())
		}
		if media.key != "k" || media.name != "f1" {
			t.Fatalf("opened %q with key %q", media.name, media.key)
		}
	})

	t.Run("upstream unreachable", func(t *testing.T) {
		app.Media = &fakeMedia{err: errors.New("dial tcp: refused")}
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/video/f1", nil), "file_name", "f1")
		req.Header.Set("X-Goog-Api-Key", "k")
		rr := httptest.NewRecorder()
		app.VideoProxy(rr, req)
		if rr.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", rr.Code)
		}
	})
}

func TestVerifyKey(t *testing.T) {
	app, _ := newTestApp(t, video.NewScripted(prompt.VideoDetails{}, 0, "u"))

	tests := []struct {
		name     string
		verifier *fakeVerifier
		body     string
		want     bool
		calls    int
	}{
		{name: "valid", verifier: &fakeVerifier{valid: true}, body: `{"key":"k"}`, want: true, calls: 1},
		{name: "rejected", verifier: &fakeVerifier{}, body: `{"key":"k"}`, want: false, calls: 1},
		{name: "transport error", verifier: &fakeVerifier{valid: true, err: errors.New("boom")}, body: `{"key":"k"}`, want: false, calls: 1},
		{name: "empty key", verifier: &fakeVerifier{valid: true}, body: `{"key":""}`, want: false, calls: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app.Keys = tc.verifier
			rr := postJSON(t, app.VerifyKey, tc.body)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			var payload struct {
				Valid bool `json:"valid"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if payload.Valid != tc.want || len(tc.verifier.keys) != tc.calls {
				t.Fatalf("valid = %v calls = %d", payload.Valid, len(tc.verifier.keys))
			}
		})
	}
}

func TestFeedbackHandlers(t *testing.T) {
	app, _ := newTestApp(t, video.NewScripted(prompt.VideoDetails{}, 0, "u"))

	if rr := postJSON(t, app.FeedbackCreate, `{"message":""}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty message status = %d", rr.Code)
	}
	rr := postJSON(t, app.FeedbackCreate, `{"nickname":"ann","message":"love it"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := postJSON(t, app.FeedbackCreate, `{"message":"again"}`); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second post status = %d, want 429", rr.Code)
	}

	list := httptest.NewRecorder()
	app.FeedbackList(list, httptest.NewRequest(http.MethodGet, "/api/feedback", nil))
	var items []feedback.Entry
	if err := json.NewDecoder(list.Body).Decode(&items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 1 || items[0].Nickname != "ann" {
		t.Fatalf("items = %+v", items)
	}
}

func TestJobsHandlers(t *testing.T) {
	app, _ := newTestApp(t, video.NewScripted(prompt.VideoDetails{}, 0, "u"))
	ctx := context.Background()
	id, err := app.Store.Insert(ctx, domain.Fields{domain.ColTitle: "T", domain.ColPrompt: "P"})
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	get := func(target, id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if id != "" {
			req = withURLParam(req, "id", id)
		}
		rr := httptest.NewRecorder()
		if id != "" {
			app.JobGet(rr, req)
		} else {
			app.JobsList(rr, req)
		}
		return rr
	}

	if rr := get("/api/jobs/1", "1"); rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	if rr := get("/api/jobs/99", "99"); rr.Code != http.StatusNotFound {
		t.Fatalf("missing job status = %d", rr.Code)
	}
	if rr := get("/api/jobs/x", "x"); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", rr.Code)
	}
	if rr := get("/api/jobs?status=paused", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad status filter = %d", rr.Code)
	}

	rr := get("/api/jobs?status=in_progress&limit=5", "")
	var payload struct {
		Items []domain.Job `json:"items"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].ID != id {
		t.Fatalf("items = %+v", payload.Items)
	}

	rr = get("/api/jobs?status=completed", "")
	if !strings.Contains(rr.Body.String(), `"items":[]`) {
		t.Fatalf("empty list should encode as [], got %s", rr.Body.String())
	}
}
