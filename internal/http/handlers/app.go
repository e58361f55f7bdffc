package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"videoads/internal/apierror"
	"videoads/internal/catalog"
	"videoads/internal/domain"
	"videoads/internal/feedback"
	"videoads/internal/providers/genai"
	"videoads/internal/providers/video"
	"videoads/internal/workflow"
)

// KeyVerifier checks whether a caller supplied API key works.
type KeyVerifier interface {
	VerifyKey(ctx context.Context, apiKey string) (bool, error)
}

// MediaSource opens downloads of generated files.
type MediaSource interface {
	OpenFile(ctx context.Context, apiKey, name string) (*genai.FileStream, error)
}

// Defaults fill optional generate request fields.
type Defaults struct {
	Model      string
	Resolution string
}

// App holds the dependencies shared by every handler.
type App struct {
	Engine    *workflow.Engine
	Store     domain.JobLogStore
	Providers video.Factory
	Keys      KeyVerifier
	Media     MediaSource
	Catalog   *catalog.Catalog
	Feedback  *feedback.Board
	Defaults  Defaults
	Logger    zerolog.Logger

	// GenerateTimeout bounds one synchronous generate call; zero leaves it
	// to the engine's poll policy.
	GenerateTimeout time.Duration
	// DefaultLocale is used when the request carries no locale hint.
	DefaultLocale string
}

type errorResponse struct {
	Error   any    `json:"error"`
	Message string `json:"message,omitempty"`
	JobID   int64  `json:"job_id,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes a plain {error, message} body.
func (a *App) error(w http.ResponseWriter, code int, status, msg string) {
	a.json(w, code, errorResponse{Error: status, Message: msg})
}

// entry writes a classified failure using the table's HTTP code.
func (a *App) entry(w http.ResponseWriter, e apierror.Entry, msg string, jobID int64) {
	a.json(w, e.HTTPCode, errorResponse{Error: e, Message: msg, JobID: jobID})
}

// invalid writes a 400 INVALID_ARGUMENT table entry.
func (a *App) invalid(w http.ResponseWriter, msg string) {
	e, ok := apierror.Lookup("INVALID_ARGUMENT")
	if !ok {
		a.error(w, http.StatusBadRequest, "INVALID_ARGUMENT", msg)
		return
	}
	a.entry(w, e, msg, 0)
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}

// storeError maps store sentinels onto HTTP answers.
func (a *App) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "job not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.error(w, http.StatusServiceUnavailable, "unavailable", "request cancelled")
	default:
		a.Logger.Error().Err(err).Msg("job store failure")
		a.error(w, http.StatusInternalServerError, "internal", "failed to read job log")
	}
}
