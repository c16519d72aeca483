// Package server wires the dependency graph and owns the HTTP lifecycle.
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

	"github.com/sakif/shared-calendar/internal/auth"
	"github.com/sakif/shared-calendar/internal/config"
	"github.com/sakif/shared-calendar/internal/handler"
	"github.com/sakif/shared-calendar/internal/middleware"
	sqliteRepo "github.com/sakif/shared-calendar/internal/repository/sqlite"
	"github.com/sakif/shared-calendar/internal/service"
)

// Server owns the router and the database. Close the database by calling
// Close, or let Start do it on shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and builds the router.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
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

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Close() error {
	return s.db.Close()
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()
	sessions := auth.NewSessionResolver(s.db.Tokens(), s.db.Users(), tokens)

	userHandler := handler.NewUserHandler(
		service.NewUserService(s.db, sessions, tokens, passwords, s.logger), s.logger)
	calendarHandler := handler.NewCalendarHandler(
		service.NewCalendarService(s.db, sessions, s.logger), s.logger)
	eventHandler := handler.NewEventHandler(
		service.NewEventService(s.db, sessions, s.logger), s.logger)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.ExtractToken)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.HandleRegister)
			r.Post("/login", userHandler.HandleLogin)
			r.Post("/logout", userHandler.HandleLogout)
			r.Put("/me", userHandler.HandleUpdateProfile)
			r.Delete("/me", userHandler.HandleDeleteAccount)
		})

		r.Route("/calendars", func(r chi.Router) {
			r.Post("/", calendarHandler.HandleCreate)
			r.Get("/", calendarHandler.HandleList)

			r.Route("/{tag}", func(r chi.Router) {
				r.Put("/", calendarHandler.HandleManage)
				r.Delete("/", calendarHandler.HandleDelete)
				r.Put("/members", calendarHandler.HandleAssignRole)

				r.Post("/events", eventHandler.HandleCreate)
				r.Put("/events/{id}", eventHandler.HandleManage)
				r.Put("/events/{id}/reaction", eventHandler.HandleReact)
			})
		})
	})

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests and
// closes the database.
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
