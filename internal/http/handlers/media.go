package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

const proxyChunk = 1 << 20

// VideoProxy streams a generated file from the provider using the caller's
// key. Upstream failures are relayed with the upstream status.
func (a *App) VideoProxy(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.Header.Get("X-Goog-Api-Key"))
	if key == "" {
		a.error(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing X-Goog-Api-Key header")
		return
	}
	name := strings.TrimSpace(chi.URLParam(r, "file_name"))
	if name == "" {
		a.invalid(w, "file name is required")
		return
	}

	stream, err := a.Media.OpenFile(r.Context(), key, name)
	if err != nil {
		a.Logger.Error().Err(err).Str("file", name).Msg("media proxy: upstream request failed")
		a.error(w, http.StatusBadGateway, "bad_gateway", "failed to reach media upstream")
		return
	}
	defer stream.Body.Close()

	if stream.StatusCode < 200 || stream.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(stream.Body, 64<<10))
		a.json(w, stream.StatusCode, map[string]any{
			"error":  "upstream download failed",
			"status": stream.StatusCode,
		})
		return
	}

	w.Header().Set("Content-Type", stream.ContentType)
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	buf := make([]byte, proxyChunk)
	for {
		n, readErr := stream.Body.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return
			}
		}
		if readErr == io.EOF {
			return
		}
		if readErr != nil {
			a.Logger.Warn().Err(readErr).Str("file", name).Msg("media proxy: stream interrupted")
			return
		}
	}
}

type verifyKeyRequest struct {
	Key string `json:"key"`
}

// VerifyKey reports whether the supplied key can run a minimal completion.
func (a *App) VerifyKey(w http.ResponseWriter, r *http.Request) {
	var req verifyKeyRequest
	if err := a.decode(w, r, &req); err != nil {
		a.invalid(w, "invalid JSON body")
		return
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		a.json(w, http.StatusOK, map[string]bool{"valid": false})
		return
	}
	valid, err := a.Keys.VerifyKey(r.Context(), key)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("verify key failed")
		valid = false
	}
	a.json(w, http.StatusOK, map[string]bool{"valid": valid})
}
