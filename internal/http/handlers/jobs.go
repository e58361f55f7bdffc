package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"videoads/internal/domain"
)

// JobsList returns job records, newest first. Query: status, limit, before
// (RFC 3339).
func (a *App) JobsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.ListFilter

	if s := strings.TrimSpace(q.Get("status")); s != "" {
		filter.Status = domain.JobStatus(s)
		if !filter.Status.Valid() {
			a.error(w, http.StatusBadRequest, "bad_request", "unknown status")
			return
		}
	}
	if s := strings.TrimSpace(q.Get("limit")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}
	if s := strings.TrimSpace(q.Get("before")); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "before must be an RFC 3339 timestamp")
			return
		}
		filter.CreatedBefore = t
	}

	jobs, err := a.Store.List(r.Context(), filter)
	if err != nil {
		a.storeError(w, err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": jobs})
}

func (a *App) JobGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid job id")
		return
	}
	job, err := a.Store.Get(r.Context(), id)
	if err != nil {
		a.storeError(w, err)
		return
	}
	a.json(w, http.StatusOK, job)
}
