// Package server wires the application together: database, services,
// handlers, middleware and routes, plus the HTTP server lifecycle.
//
// This is the "composition root": every dependency is constructed here and
// handed down, so no other package builds its own collaborators.
//
//	config → sqlite.DB → UserService / MealService / MetricsService → handlers → chi routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dietlog/dietlog-api/internal/auth"
	"github.com/dietlog/dietlog-api/internal/config"
	"github.com/dietlog/dietlog-api/internal/handler"
	"github.com/dietlog/dietlog-api/internal/middleware"
	sqliteRepo "github.com/dietlog/dietlog-api/internal/repository/sqlite"
	"github.com/dietlog/dietlog-api/internal/service"
	"github.com/dietlog/dietlog-api/internal/streak"
)

// shutdownTimeout is how long in-flight requests get to finish on SIGINT/SIGTERM.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection pool. Start closes it on the way
// out; callers that never call Start (tests) call Close instead.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	metrics *middleware.Metrics
}

// New opens the database, runs migrations and builds the router.
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo so it can't be confused with
// the modernc.org/sqlite driver.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: middleware.NewMetrics(),
	}
	s.setupRoutes()

	return s, nil
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	POST   /users/register      → create account, set session cookie
//	POST   /users/authenticate  → log in, rotate session cookie
//	GET    /users/metrics       → meal statistics         [session]
//	GET    /meals               → list own meals          [session]
//	POST   /meals               → create meal             [session]
//	GET    /meals/{id}          → read own meal           [session]
//	PUT    /meals/{id}          → partial update          [session]
//	DELETE /meals/{id}          → delete own meal         [session]
//	GET    /healthz             → liveness + DB ping
//	GET    /debug/metrics       → Prometheus exposition
//
// MIDDLEWARE ORDER MATTERS:
// RequestID first so everything after it can log the ID. Recoverer sits
// inside the logger and metrics, so a panic is recorded as the 500 it
// turned into.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(s.metrics.Middleware)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true, // the session lives in a cookie
		MaxAge:           300,
	}))

	passwords := auth.NewPasswordService(s.config.BcryptCost)
	calc := &streak.Calculator{
		Location:      s.config.DayLocation,
		CountFinalDay: s.config.CountFinalDay,
	}

	userService := service.NewUserService(s.db, passwords, s.logger)
	mealService := service.NewMealService(s.db, s.logger)
	metricsService := service.NewMetricsService(s.db, calc, s.logger)

	userHandler := handler.NewUserHandler(userService, metricsService, s.config.CookieSecure, s.logger)
	mealHandler := handler.NewMealHandler(mealService, s.logger)

	requireSession := auth.RequireSession(userService, s.logger)

	s.router.Route("/users", func(r chi.Router) {
		r.Post("/register", userHandler.HandleRegister)
		r.Post("/authenticate", userHandler.HandleAuthenticate)
		r.With(requireSession).Get("/metrics", userHandler.HandleMetrics)
	})

	s.router.Route("/meals", func(r chi.Router) {
		r.Use(requireSession)
		r.Get("/", mealHandler.HandleList)
		r.Post("/", mealHandler.HandleCreate)
		r.Get("/{id}", mealHandler.HandleGet)
		r.Put("/{id}", mealHandler.HandleUpdate)
		r.Delete("/{id}", mealHandler.HandleDelete)
	})

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/debug/metrics", s.metrics.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Handler exposes the router, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait up to shutdownTimeout for in-flight requests
//  3. Close the database (flushes the WAL, releases the file lock)
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
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("day_timezone", s.config.DayLocation.String()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
