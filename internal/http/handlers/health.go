package handlers

import (
	"context"
	"net/http"
	"time"

	"videoads/internal/domain"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if a.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if _, err := a.Store.List(ctx, domain.ListFilter{Limit: 1}); err != nil {
			a.Logger.Warn().Err(err).Msg("health: job store unreachable")
			a.json(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store": "unreachable"})
			return
		}
		status["store"] = "ok"
	}
	a.json(w, http.StatusOK, status)
}
