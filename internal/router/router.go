package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"aiindex-backend/internal/handlers"
	"aiindex-backend/internal/middleware"
)

type Deps struct {
	Log            *zap.Logger
	JWTAuth        *middleware.JWTAuth
	RateLimiter    *middleware.RateLimiter // nil disables rate limiting
	HealthHandler  *handlers.HealthHandler
	ChatHandler    *handlers.ChatHandler
	CompareHandler *handlers.CompareHandler
	ModelsHandler  *handlers.ModelsHandler
	Metrics        http.Handler
	CORSOrigins    []string

	// TrustedProxy lets X-Forwarded-For / X-Real-IP replace the socket peer
	// address. Only set it when a reverse proxy overwrites those headers.
	TrustedProxy bool
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	if d.TrustedProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.CORSOrigins))

	r.Get("/", d.HealthHandler.Root)
	r.Get("/health", d.HealthHandler.Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", d.HealthHandler.Health)
		r.Get("/models/free", d.ModelsHandler.Free)

		// ──── Upstream-dependent routes ────
		r.Group(func(r chi.Router) {
			r.Use(d.JWTAuth.Middleware)
			if d.RateLimiter != nil {
				r.Use(d.RateLimiter.Middleware)
			}
			r.Get("/models", d.ModelsHandler.List)
			r.Post("/chat", d.ChatHandler.Chat)
			r.Post("/compare", d.CompareHandler.Compare)
			r.Get("/compare/stream", d.CompareHandler.Stream)
		})
	})

	return r
}
