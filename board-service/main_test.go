package main

import (
	"context"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/chepyr/kanban-board/internal/config"
	"github.com/chepyr/kanban-board/internal/db"
	"github.com/chepyr/kanban-board/internal/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a listener failure comes back as an error instead of exiting the process
func TestStartServer_ListenErrorReturned(t *testing.T) {
	cfg := config.Default()
	server := &http.Server{Addr: "256.0.0.1:-1", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- startServer(cfg, server, handlers.NewWSHub(), make(chan os.Signal)) }()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("startServer did not return on listen error")
	}
}

func TestStartServer_StopsOnSignal(t *testing.T) {
	cfg := config.Default()
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	quit := make(chan os.Signal, 1)
	quit <- syscall.SIGTERM

	assert.NoError(t, startServer(cfg, server, handlers.NewWSHub(), quit))
}

func TestInitRepository(t *testing.T) {
	cfg := config.Default()
	repo, err := initRepository(cfg)
	require.NoError(t, err)
	board, err := repo.GetBoard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Mock - Kanban Board", board.Title)

	cfg.InitialBoardTitle = ""
	repo, err = initRepository(cfg)
	require.NoError(t, err)
	_, err = repo.GetBoard(context.Background())
	assert.ErrorIs(t, err, db.ErrBoardNotInitialized)
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "chatty"
	assert.Error(t, initLogger(cfg))
}
