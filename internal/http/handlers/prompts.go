package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"videoads/internal/catalog"
	"videoads/internal/middleware"
)

// Prompts lists the library rendered for the request locale.
func (a *App) Prompts(w http.ResponseWriter, r *http.Request) {
	tag := catalog.Match(middleware.LocaleFromContext(r.Context()), a.DefaultLocale)
	a.json(w, http.StatusOK, a.Catalog.Localized(tag))
}

// PromptLibrary returns the raw library.
func (a *App) PromptLibrary(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Catalog.Entries())
}

func (a *App) PromptByID(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.Catalog.Get(chi.URLParam(r, "id"))
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "prompt not found")
		return
	}
	a.json(w, http.StatusOK, entry)
}
