package rest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	core_port "listings-agent/internal/core/port"
)

// Handlers - все обработчики локального API
type Handlers struct {
	Session   *SessionHandler
	Favorites *FavoritesHandler
	Views     *ViewsHandler
	Events    *EventsHandler
}

// Server - локальный REST API агента для UI.
type Server struct {
	httpServer *http.Server
	logger     core_port.LoggerPort
}

// NewRouter собирает маршруты. Вынесен отдельно, чтобы тесты работали через httptest без сокета.
func NewRouter(handlers Handlers, allowedOrigins []string, baseLogger core_port.LoggerPort) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware(baseLogger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Trace-ID"},
		AllowCredentials: false,
		MaxAge:           300, // 5 минут
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Put("/session", handlers.Session.SetSession)

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/language", handlers.Session.GetLanguage)
			r.Put("/language", handlers.Session.SetLanguage)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", handlers.Favorites.GetFavorites)
			r.Post("/", handlers.Favorites.AddFavorite)
			r.Post("/load", handlers.Favorites.LoadFavorites)
			r.Get("/listings", handlers.Favorites.GetLikedListings)
			r.Delete("/{listingID}", handlers.Favorites.RemoveFavorite)
			r.Post("/{listingID}/toggle", handlers.Favorites.ToggleFavorite)
		})

		r.Route("/views/{view}", func(r chi.Router) {
			r.Get("/", handlers.Views.GetView)
			r.Post("/fetch", handlers.Views.Fetch)
			r.Post("/filters/change", handlers.Views.ChangeFilters)
			r.Post("/filters/apply", handlers.Views.ApplyFilters)
			r.Delete("/filters/{key}", handlers.Views.ClearFilter)
			r.Post("/more", handlers.Views.LoadMore)
			r.Post("/retry", handlers.Views.Retry)
			r.Get("/pills", handlers.Views.GetPills)
		})

		r.Get("/events", handlers.Events.Subscribe)
	})

	return r
}

// NewServer: baseCtx - контекст приложения. Его отмена закрывает открытые SSE-потоки,
// иначе Shutdown ждал бы их до таймаута.
func NewServer(baseCtx context.Context, port string, handlers Handlers, allowedOrigins []string, baseLogger core_port.LoggerPort) *Server {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           NewRouter(handlers, allowedOrigins, baseLogger),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	return &Server{
		httpServer: srv,
		logger:     baseLogger.WithFields(core_port.Fields{"component": "rest_server"}),
	}
}

// Start запускает HTTP-сервер.
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", core_port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
