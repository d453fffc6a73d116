// Package api provides the HTTP API server and handlers for the ReadingRoom application.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/readingroomapp/readingroom-server/internal/media/images"
	"github.com/readingroomapp/readingroom-server/internal/service"
	"github.com/readingroomapp/readingroom-server/internal/sse"
	"github.com/readingroomapp/readingroom-server/internal/store"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth     *service.AuthService
	Library  *service.LibraryService
	Social   *service.SocialService
	Stats    *service.StatsService
	Profile  *service.ProfileService
	Settings *service.SettingsService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *store.Store
	services        *Services
	router          *chi.Mux
	api             huma.API
	sseManager      *sse.Manager
	sseHandler      *sse.Handler
	covers          *images.Storage
	authRateLimiter *RateLimiter
	logger          *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// sseManager and coverStorage may be nil; the events endpoint and the
// local cover routes are then not registered.
func NewServer(st *store.Store, services *Services, sseManager *sse.Manager, coverStorage *images.Storage, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authLimiter := NewRateLimiter(20, time.Minute, 10)
	router.Use(authRateLimit(authLimiter, logger))
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("ReadingRoom API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	hapi := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           st,
		services:        services,
		router:          router,
		api:             hapi,
		sseManager:      sseManager,
		covers:          coverStorage,
		authRateLimiter: authLimiter,
		logger:          logger,
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBookRoutes()
	s.registerCoverRoutes()
	s.registerSearchRoutes()
	s.registerSocialRoutes()
	s.registerProfileRoutes()
	s.registerSettingsRoutes()
	s.registerStatsRoutes()

	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, logger, func(r *http.Request) string {
			userID, err := GetUserID(r.Context())
			if err != nil {
				return ""
			}
			return userID
		})
		// SSE does not fit huma's request/response model; register on chi directly.
		router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
