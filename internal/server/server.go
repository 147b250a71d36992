// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: every dependency — database, upload store,
// token and password services, domain services, handlers — is constructed
// and wired here, in one place. main.go only builds a Config and calls
// Start; nothing below this package touches HTTP routing.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/adboard/internal/auth"
	"github.com/sakif/adboard/internal/handler"
	"github.com/sakif/adboard/internal/middleware"
	sqliteRepo "github.com/sakif/adboard/internal/repository/sqlite"
	"github.com/sakif/adboard/internal/service"
	"github.com/sakif/adboard/internal/upload"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port       int
	DBPath     string
	UploadDir  string
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// Server owns the router and the long-lived resources behind it. The
// database connection is closed during graceful shutdown, after in-flight
// requests have drained.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing below the handler layer
// ever sees an http.Request.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
// Route structure:
//
//	GET    /healthz                 → liveness probe
//	GET    /uploads/*               → stored photos (public)
//	GET    /api/forms/registration  → registration field registry
//	POST   /api/users               → register (multipart)
//	POST   /api/auth/login          → login (JSON)
//	GET    /api/ads                 → list ads (public)
//	GET    /api/ads/{id}            → get ad (public)
//	GET    /api/users/me            → own profile        [bearer]
//	PUT    /api/users/{id}          → update own profile [bearer]
//	POST   /api/ads                 → create ad          [bearer]
//	PUT    /api/ads/{id}            → update own ad      [bearer]
//	DELETE /api/ads/{id}            → delete own ad      [bearer]
//
// Middleware order matters: RequestID first so the logger can include it,
// Recoverer before any handler so a panic becomes a 500 instead of a dead
// connection.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	store, err := upload.NewStore(s.config.UploadDir)
	if err != nil {
		return fmt.Errorf("creating upload store: %w", err)
	}

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, store, s.logger)
	adService := service.NewAdService(s.db.Ads(), store, s.logger)

	userHandler := handler.NewUserHandler(authService, s.logger)
	adHandler := handler.NewAdHandler(adService, s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Stored photos are public: paths come out of the API as
	// "uploads/<generated-name>", and generated names are the only thing on
	// disk, so there is nothing to traverse to.
	fileServer := http.FileServer(http.Dir(store.Dir()))
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	s.router.Route("/api", func(r chi.Router) {
		// Public routes.
		r.Get("/forms/registration", userHandler.HandleRegistrationForm)
		r.Post("/users", userHandler.HandleRegister)
		r.Post("/auth/login", userHandler.HandleLogin)

		// Ad reads are public; OptionalAuth attaches the identity when a
		// valid token is present so responses can be personalized later.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/ads", adHandler.HandleList)
			r.Get("/ads/{id}", adHandler.HandleGet)
		})

		// Routes behind the bearer-token guard.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/users/me", userHandler.HandleMe)
			r.Put("/users/{id}", userHandler.HandleUpdate)
			r.Post("/ads", adHandler.HandleCreate)
			r.Put("/ads/{id}", adHandler.HandleUpdate)
			r.Delete("/ads/{id}", adHandler.HandleDelete)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds to finish, close the database (flushes the WAL, releases the
// file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("uploads", s.config.UploadDir),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
