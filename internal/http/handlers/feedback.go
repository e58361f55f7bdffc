package handlers

import (
	"errors"
	"net/http"

	"videoads/internal/domain"
	"videoads/internal/middleware"
)

type feedbackRequest struct {
	Nickname string `json:"nickname"`
	Message  string `json:"message"`
}

func (a *App) FeedbackList(w http.ResponseWriter, r *http.Request) {
	items, err := a.Feedback.List(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("feedback list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load feedback")
		return
	}
	a.json(w, http.StatusOK, items)
}

func (a *App) FeedbackCreate(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := a.decode(w, r, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	entry, err := a.Feedback.Post(r.Context(), middleware.ClientIP(r), req.Nickname, req.Message)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		a.error(w, http.StatusTooManyRequests, "rate_limited", "please wait before posting again")
	case err != nil:
		a.Logger.Error().Err(err).Msg("feedback post failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to save feedback")
	default:
		a.json(w, http.StatusCreated, entry)
	}
}
