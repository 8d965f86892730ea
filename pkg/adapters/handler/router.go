package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/config"
	"github.com/wadjakorntonsri/linkhub/pkg/observability"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

// Services groups what the router dispatches to. Identity is optional.
type Services struct {
	Links    ports.LinkService
	Layout   ports.LayoutService
	Profiles ports.ProfileService
	Identity ports.IdentityProvider
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, svc Services, collector *observability.Collector, logger *zap.Logger) http.Handler {
	lh := NewLinkHandler(svc.Links, svc.Profiles, logger)
	layh := NewLayoutHandler(svc.Layout, svc.Profiles, logger)
	ph := NewProfileHandler(svc.Profiles, cfg.MaxAvatarBytes, logger)
	authHandler := NewAuthHandler(cfg, logger)
	mw := NewMiddleware(cfg, svc.Identity, logger)

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(logger))
	router.Use(Metrics(collector))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, "ok", nil)
	})
	router.Method(http.MethodGet, "/metrics", collector.Handler())

	router.Get("/auth/google/login", authHandler.Login)
	router.Get("/auth/google/callback", authHandler.Callback)
	router.Get("/auth/logout", authHandler.Logout)

	router.Route("/api/v1", func(r chi.Router) {
		// Public page routes
		r.Get("/profile/check/{public_link}", ph.CheckPublicLink)
		r.Get("/profile/{public_link}", ph.GetPublicPage)
		r.Post("/links/{id}/click", lh.RecordClick)

		r.Group(func(r chi.Router) {
			r.Use(mw.AuthMiddleware)

			r.Get("/me", ph.Me)
			r.Post("/profile", ph.Create)
			r.Patch("/profile", ph.Update)
			r.Patch("/profile/theme", ph.UpdateTheme)
			r.Delete("/profile", ph.Delete)

			r.Route("/links", func(r chi.Router) {
				r.Get("/", lh.List)
				r.Post("/", lh.Create)
				r.Post("/reorder", lh.Reorder)
				r.Patch("/{id}", lh.Update)
				r.Delete("/{id}", lh.Delete)
			})

			r.Route("/layout", func(r chi.Router) {
				r.Get("/", layh.List)
				r.Post("/reorder", layh.Reorder)
				r.Patch("/{id}", layh.UpdateBlock)
			})
		})
	})

	return router
}
