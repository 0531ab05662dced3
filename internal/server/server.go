// Package server sets up the HTTP server, router, and all route
// definitions.
//
// This is the composition root: the entire dependency chain —
// sqlite.DB → repositories → services → handlers — is assembled in one
// place (New/setupRoutes) rather than scattered across the codebase. Each
// layer only receives what it needs: services get repository interfaces,
// handlers get services, and nothing below the handler layer knows HTTP
// exists.
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

	"github.com/sakif/snippet-vault/internal/auth"
	"github.com/sakif/snippet-vault/internal/config"
	"github.com/sakif/snippet-vault/internal/handler"
	"github.com/sakif/snippet-vault/internal/middleware"
	sqliteRepo "github.com/sakif/snippet-vault/internal/repository/sqlite"
	"github.com/sakif/snippet-vault/internal/service"
)

// Server holds the router and the resources it owns. The database
// connection belongs to the server and is closed during graceful shutdown
// (flushes the WAL, releases the file lock).
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with all dependencies wired.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, builds the service graph, and maps
// every route.
//
// ROUTE STRUCTURE:
//
//	POST   /api/auth/register          — create account
//	POST   /api/auth/login             — issue session token
//	GET    /api/snippets/public        — public listing        (no auth)
//	GET    /api/snippets/public/search — public keyword search (no auth)
//	GET    /api/snippets/public/{id}   — one public snippet    (no auth)
//	POST   /api/snippets               — create            (auth)
//	GET    /api/snippets/my            — own snippets      (auth)
//	GET    /api/snippets/my/search     — own search        (auth)
//	GET    /api/snippets/favorites     — own favorites     (auth)
//	GET    /api/snippets/search        — raw search        (auth, unfiltered)
//	GET    /api/snippets/tag/{tag}     — by tag            (auth, unfiltered)
//	PUT    /api/snippets/{id}          — full update       (auth, owner)
//	DELETE /api/snippets/{id}          — delete            (auth, owner)
//	PATCH  /api/snippets/{id}/favorite — toggle favorite   (auth, owner)
//	GET    /api/tags                   — own tags + counts (auth)
//	GET    /api/tags/popular           — global top 20     (no auth)
//
// Middleware order matters: RequestID and RealIP first so the logger can
// use them, Recoverer before everything that might panic, then the slog
// request logger.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.cfg.BcryptCost)

	// The single *sqlite.DB implements all three repository interfaces;
	// each service receives only the interfaces it depends on.
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	snippetService := service.NewSnippetService(s.db, s.db, s.db, s.logger)
	tagService := service.NewTagService(s.db, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	tagHandler := handler.NewTagHandler(tagService, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
		})

		r.Route("/snippets", func(r chi.Router) {
			// Unauthenticated public surface. Chi matches static
			// segments before parameters, so /public/search wins over
			// /public/{id}.
			r.Get("/public", snippetHandler.HandleListPublic)
			r.Get("/public/search", snippetHandler.HandleSearchPublic)
			r.Get("/public/{id}", snippetHandler.HandleGetPublicByID)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", snippetHandler.HandleCreate)
				r.Get("/my", snippetHandler.HandleListMine)
				r.Get("/my/search", snippetHandler.HandleSearchMine)
				r.Get("/favorites", snippetHandler.HandleListFavorites)
				r.Get("/search", snippetHandler.HandleSearch)
				r.Get("/tag/{tag}", snippetHandler.HandleFindByTag)
				r.Put("/{id}", snippetHandler.HandleUpdate)
				r.Delete("/{id}", snippetHandler.HandleDelete)
				r.Patch("/{id}/favorite", snippetHandler.HandleToggleFavorite)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/popular", tagHandler.HandlePopular)
			r.With(requireAuth).Get("/", tagHandler.HandleListMine)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds to finish, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
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
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
			slog.Duration("tokenTTL", s.cfg.TokenTTL),
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
