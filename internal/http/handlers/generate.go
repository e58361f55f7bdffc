package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"videoads/internal/apierror"
	"videoads/internal/middleware"
	"videoads/internal/workflow"
)

type generateRequest struct {
	AdIdea      string `json:"ad_idea"`
	Prompt      string `json:"prompt"`
	Key         string `json:"key"`
	Model       string `json:"model"`
	Resolution  string `json:"resolution"`
	AspectRatio string `json:"aspect_ratio"`
}

// Generate runs one workflow synchronously and answers with the finished
// video or the classified failure.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := a.decode(w, r, &req); err != nil {
		a.invalid(w, "invalid JSON body")
		return
	}
	req.Key = strings.TrimSpace(req.Key)
	req.AdIdea = strings.TrimSpace(req.AdIdea)
	if req.Key == "" {
		a.invalid(w, "key is required")
		return
	}
	if req.AdIdea == "" {
		a.invalid(w, "ad_idea is required")
		return
	}

	provider, err := a.Providers.ForKey(req.Key)
	if err != nil {
		a.invalid(w, err.Error())
		return
	}

	ctx := r.Context()
	if a.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.GenerateTimeout)
		defer cancel()
	}

	a.Logger.Info().
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("model", coalesce(req.Model, a.Defaults.Model)).
		Msg("generate requested")

	out := <-a.Engine.Start(ctx, provider, workflow.Request{
		AdIdea:      req.AdIdea,
		Prompt:      strings.TrimSpace(req.Prompt),
		Model:       coalesce(req.Model, a.Defaults.Model),
		Resolution:  coalesce(req.Resolution, a.Defaults.Resolution),
		AspectRatio: req.AspectRatio,
	})
	if out.Err != nil {
		var wfErr *workflow.Error
		if errors.As(out.Err, &wfErr) {
			a.entry(w, wfErr.Entry, wfErr.Message, wfErr.JobID)
			return
		}
		a.entry(w, apierror.FromError(out.Err), out.Err.Error(), 0)
		return
	}
	a.json(w, http.StatusOK, out.Result)
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
