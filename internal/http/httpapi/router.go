package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"videoads/internal/http/handlers"
	"videoads/internal/middleware"
)

// Options carries the cross-cutting settings of the router.
type Options struct {
	AllowedOrigins []string
	DefaultLocale  string
	CountryLookup  middleware.CountryLookup
	// GenerateLimiter bounds POST /api/generate per client address.
	GenerateLimiter *middleware.WindowLimiter
	Logger          zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get(handlers.OpenAPIPath, app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.I18N(opts.DefaultLocale, opts.CountryLookup))

		r.With(middleware.RateLimit(opts.GenerateLimiter)).Post("/generate", app.Generate)
		r.Get("/video/{file_name}", app.VideoProxy)
		r.Post("/verify-key", app.VerifyKey)

		r.Get("/prompts", app.Prompts)
		r.Get("/prompts/{id}", app.PromptByID)
		r.Get("/prompt-library", app.PromptLibrary)

		r.Get("/feedback", app.FeedbackList)
		r.Post("/feedback", app.FeedbackCreate)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", app.JobsList)
			r.Get("/{id}", app.JobGet)
		})
	})

	return r
}
