package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"metabarcoding-web/internal/config"
	"metabarcoding-web/internal/handler"
	"metabarcoding-web/internal/middleware"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Analysis *handler.AnalysisHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, handlers Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", handlers.Auth.Register)
			auth.Post("/login", handlers.Auth.Login)
			auth.Get("/logout", handlers.Auth.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/check", handlers.Auth.Me)
			auth.With(authMiddleware.RequireAuth).Get("/me", handlers.Auth.Me)
			auth.With(authMiddleware.RequireAuth).Get("/stats", handlers.Auth.Stats)
		})

		api.Route("/analysis", func(analysis chi.Router) {
			analysis.Use(authMiddleware.RequireAuth)
			analysis.Post("/illumina", handlers.Analysis.Illumina)
			analysis.Post("/nanopore", handlers.Analysis.Nanopore)
			analysis.Get("/jobs", handlers.Analysis.Jobs)
			analysis.Get("/jobs/{job_id}", handlers.Analysis.Job)
		})
	})

	return r
}
