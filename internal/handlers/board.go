package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/chepyr/kanban-board/internal/db"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const repoTimeout = 5 * time.Second

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), repoTimeout)
	defer cancel()

	board, err := h.BoardRepo.GetBoard(ctx)
	if err != nil {
		h.sendRepoError(w, r, err)
		return
	}
	sendJSON(w, board, http.StatusOK)
}

func (h *Handler) UpsertBoard(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	var input struct {
		Title *string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.Title == nil {
		sendError(w, "title is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), repoTimeout)
	defer cancel()

	if err := h.BoardRepo.UpsertBoard(ctx, *input.Title); err != nil {
		h.sendRepoError(w, r, err)
		return
	}
	if h.WSHub != nil {
		h.WSHub.Broadcast(BoardEvent{Event: EventBoardUpserted, Title: *input.Title})
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListColumns reads through GetBoard, so it fabricates a column like any other board read.
func (h *Handler) ListColumns(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), repoTimeout)
	defer cancel()

	board, err := h.BoardRepo.GetBoard(ctx)
	if err != nil {
		h.sendRepoError(w, r, err)
		return
	}
	sendJSON(w, board.Columns, http.StatusOK)
}

func (h *Handler) GetColumn(w http.ResponseWriter, r *http.Request) {
	columnID, err := strconv.Atoi(mux.Vars(r)["columnID"])
	if err != nil {
		sendError(w, "column id must be an integer", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), repoTimeout)
	defer cancel()

	board, err := h.BoardRepo.GetBoard(ctx)
	if err != nil {
		h.sendRepoError(w, r, err)
		return
	}
	column, ok := board.ColumnByID(columnID)
	if !ok {
		sendError(w, "Column not found", http.StatusNotFound)
		return
	}
	sendJSON(w, column, http.StatusOK)
}

func (h *Handler) sendRepoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, db.ErrBoardNotInitialized):
		sendError(w, "board not initialized", http.StatusNotFound)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		sendError(w, "Request timed out", http.StatusServiceUnavailable)
	default:
		log.WithFields(log.Fields{
			"request_id": RequestIDFromContext(r.Context()),
			"subject":    SubjectFromContext(r.Context()),
		}).Errorf("board repository: %v", err)
		sendError(w, "Internal server error", http.StatusInternalServerError)
	}
}
