package db

import (
	"context"
	"sync"

	"github.com/chepyr/kanban-board/internal/metrics"
	"github.com/chepyr/kanban-board/internal/models"
)

const mockTitlePrefix = "Mock - "

// FakeColumn is the column MockBoardRepository appends on every read.
func FakeColumn() models.Column {
	return models.Column{
		ID:       7,
		Name:     "FakeColumn",
		Position: 0,
		Items:    []string{"todo", "tableFlip", "zelda"},
	}
}

// MockBoardRepository keeps a single board in memory and fabricates its columns.
// It stands in for a real storage-backed repository.
type MockBoardRepository struct {
	mutex sync.Mutex
	board *models.Board // nil until the first UpsertBoard
}

func NewMockBoardRepository() *MockBoardRepository {
	return &MockBoardRepository{}
}

// GetBoard appends FakeColumn to the current board and returns a snapshot of it.
// Columns accumulate: every call adds one more.
func (r *MockBoardRepository) GetBoard(ctx context.Context) (models.Board, error) {
	if err := ctx.Err(); err != nil {
		return models.Board{}, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.board == nil {
		metrics.ObserveRepositoryOp("get_board", ErrBoardNotInitialized)
		return models.Board{}, ErrBoardNotInitialized
	}

	r.board.AddColumn(FakeColumn())
	metrics.ObserveRepositoryOp("get_board", nil)
	metrics.SetBoardColumns(len(r.board.Columns))
	return r.board.Clone(), nil
}

// UpsertBoard replaces the current board, and its columns, with an empty one titled "Mock - " + title.
func (r *MockBoardRepository) UpsertBoard(ctx context.Context, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.board = models.NewBoard(mockTitlePrefix + title)
	metrics.ObserveRepositoryOp("upsert_board", nil)
	metrics.SetBoardColumns(0)
	return nil
}
