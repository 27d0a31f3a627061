// Package server is the composition root: it opens the configured store,
// builds the services and mounts the HTTP routes.
//
// Routes:
//
//	POST   /user     register
//	POST   /session  login
//	DELETE /session  logout          (token)
//	GET    /game     list games      (token)
//	POST   /game     create game     (token)
//	PUT    /game     join game       (token)
//	DELETE /db       wipe all data
//	GET    /health   liveness
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/chess-lobby/internal/auth"
	"github.com/sakif/chess-lobby/internal/config"
	"github.com/sakif/chess-lobby/internal/handler"
	"github.com/sakif/chess-lobby/internal/middleware"
	"github.com/sakif/chess-lobby/internal/repository"
	"github.com/sakif/chess-lobby/internal/repository/postgres"
	sqliteRepo "github.com/sakif/chess-lobby/internal/repository/sqlite"
	"github.com/sakif/chess-lobby/internal/rules"
	"github.com/sakif/chess-lobby/internal/service"
)

// Server owns the store and the optional token cache and closes both on
// shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
	cache  *auth.RedisTokenCache
	lobby  *service.Lobby
}

// New opens the store (applying migrations), connects the token cache when
// REDIS_URL is set and wires every route.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	var cache service.TokenCache
	if cfg.RedisURL != "" {
		client, err := auth.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("connecting token cache: %w", err)
		}
		s.cache = auth.NewRedisTokenCache(client, cfg.TokenCacheTTL)
		cache = s.cache
	}

	s.lobby = service.NewLobby(store, service.LobbyOptions{
		Cache:  cache,
		Engine: rules.NewChessEngine(),
		Hasher: auth.NewPasswordService(cfg.BcryptCost),
	}, logger)

	s.setupRoutes()
	return s, nil
}

func openStore(ctx context.Context, cfg config.Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DatabaseURL)
	case config.DriverSQLite, "":
		return sqliteRepo.New(cfg.DBPath)
	}
	return nil, fmt.Errorf("unknown DB driver %q", cfg.DBDriver)
}

func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	users := handler.NewUserHandler(s.lobby, s.logger)
	games := handler.NewGameHandler(s.lobby, s.logger)
	admin := handler.NewAdminHandler(s.lobby, s.logger)

	s.router.Get("/health", admin.HandleHealth)
	s.router.Post("/user", users.HandleRegister)
	s.router.Post("/session", users.HandleLogin)
	s.router.Delete("/db", admin.HandleClear)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireToken)
		r.Delete("/session", users.HandleLogout)
		r.Get("/game", games.HandleList)
		r.Post("/game", games.HandleCreate)
		r.Put("/game", games.HandleJoin)
	})
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Lobby exposes the service facade, e.g. for row-count checks in tests.
func (s *Server) Lobby() *service.Lobby {
	return s.lobby
}

// Start serves on the configured port until ctx is cancelled, then drains
// in-flight requests for up to 30s and closes the store.
func (s *Server) Start(ctx context.Context) error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("driver", s.config.DBDriver),
			slog.Bool("tokenCache", s.cache != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}

// Close releases the store and the cache. Start calls it on return.
func (s *Server) Close() error {
	var errs []error
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
		s.cache = nil
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
		s.store = nil
	}
	return errors.Join(errs...)
}
