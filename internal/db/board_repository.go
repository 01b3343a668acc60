package db

import (
	"context"
	"errors"

	"github.com/chepyr/kanban-board/internal/models"
)

// ErrBoardNotInitialized is returned by GetBoard before any board was upserted.
var ErrBoardNotInitialized = errors.New("board not initialized")

// defines methods for board data access
type BoardRepositoryInterface interface {
	GetBoard(ctx context.Context) (models.Board, error)
	UpsertBoard(ctx context.Context, title string) error
}
