package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/chepyr/kanban-board/internal/config"
	"github.com/chepyr/kanban-board/internal/db"
	"github.com/chepyr/kanban-board/internal/handlers"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		log.Errorf("Board server failed: %v", err)
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred cleanup always happens
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := initLogger(cfg); err != nil {
		return err
	}

	repo, err := initRepository(cfg)
	if err != nil {
		return err
	}
	handler := initHandlers(cfg, repo)
	defer handler.RateLimiter.Stop()

	server := initServer(cfg, handler)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	return startServer(cfg, server, handler.WSHub, quit)
}

func initLogger(cfg *config.Config) error {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	return nil
}

// the repository starts empty; seed it so reads succeed before the first PUT
func initRepository(cfg *config.Config) (*db.MockBoardRepository, error) {
	repo := db.NewMockBoardRepository()
	if cfg.InitialBoardTitle == "" {
		log.Warn("No initial board title configured, GET /api/board returns 404 until a board is upserted")
		return repo, nil
	}
	if err := repo.UpsertBoard(context.Background(), cfg.InitialBoardTitle); err != nil {
		return nil, fmt.Errorf("create initial board: %w", err)
	}
	return repo, nil
}

func initHandlers(cfg *config.Config, repo db.BoardRepositoryInterface) *handlers.Handler {
	if !cfg.AuthEnabled() {
		log.Warn("JWT_SECRET is not set, API is served without authentication")
	}
	return &handlers.Handler{
		BoardRepo:      repo,
		RateLimiter:    handlers.NewRateLimiter(cfg.WSRateLimit, cfg.WSRateWindow),
		WSHub:          handlers.NewWSHub(),
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
	}
}

func initServer(cfg *config.Config, handler *handlers.Handler) *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: handler.Routes(),
	}
}

// startServer serves until quit fires or the listener fails.
func startServer(cfg *config.Config, server *http.Server, hub *handlers.WSHub, quit <-chan os.Signal) error {
	log.Printf("Starting board server on %s", server.Addr)

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-quit:
	}
	log.Println("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	// hijacked websocket connections are not tracked by Shutdown
	hub.CloseAll()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("Server stopped")
	return nil
}
