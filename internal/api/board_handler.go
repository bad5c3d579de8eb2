package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/api/shared"
	"github.com/kestrelhq/driftboard/internal/auth"
	"github.com/kestrelhq/driftboard/internal/domain"
)

// BoardService is the slice of the lifecycle engine the board handlers use.
type BoardService interface {
	CreateBoard(ctx context.Context, actor auth.Identity, name string) (*domain.Board, error)
	GetBoard(ctx context.Context, actor auth.Identity, boardID uuid.UUID) (*domain.Board, error)
	ListBoards(ctx context.Context, actor auth.Identity) ([]*domain.Board, error)
	CreateColumn(
		ctx context.Context,
		actor auth.Identity,
		boardID uuid.UUID,
		name string,
		position int,
	) (*domain.Column, error)
	AddMember(ctx context.Context, actor auth.Identity, boardID, userID uuid.UUID) error
}

// BoardHandler handles board-related HTTP requests.
type BoardHandler struct {
	boards    BoardService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewBoardHandler creates a new BoardHandler.
func NewBoardHandler(boards BoardService, logger *slog.Logger) *BoardHandler {
	if boards == nil {
		panic("boards cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil for BoardHandler")
	}

	return &BoardHandler{
		boards:    boards,
		validator: validator.New(),
		logger:    logger.With(slog.String("component", "board_handler")),
	}
}

// BoardResponse represents the response data for a board.
type BoardResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func boardToResponse(board *domain.Board) BoardResponse {
	return BoardResponse{
		ID:        board.ID.String(),
		Name:      board.Name,
		CreatedAt: board.CreatedAt,
		UpdatedAt: board.UpdatedAt,
	}
}

// ColumnResponse represents the response data for a column.
type ColumnResponse struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateBoardRequest represents the request body for creating a board.
type CreateBoardRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateBoard handles POST /boards requests.
func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	var req CreateBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	board, err := h.boards.CreateBoard(r.Context(), actor, req.Name)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, boardToResponse(board))
}

// GetBoard handles GET /boards/{boardID} requests.
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	boardID, ok := uuidParam(w, r, "boardID")
	if !ok {
		return
	}

	board, err := h.boards.GetBoard(r.Context(), actor, boardID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, boardToResponse(board))
}

// ListBoards handles GET /boards requests.
func (h *BoardHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	boards, err := h.boards.ListBoards(r.Context(), actor)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	responses := make([]BoardResponse, 0, len(boards))
	for _, board := range boards {
		responses = append(responses, boardToResponse(board))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// CreateColumnRequest represents the request body for creating a column.
type CreateColumnRequest struct {
	Name     string `json:"name" validate:"required"`
	Position int    `json:"position" validate:"gte=0"`
}

// CreateColumn handles POST /boards/{boardID}/columns requests.
func (h *BoardHandler) CreateColumn(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	boardID, ok := uuidParam(w, r, "boardID")
	if !ok {
		return
	}

	var req CreateColumnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	column, err := h.boards.CreateColumn(r.Context(), actor, boardID, req.Name, req.Position)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, ColumnResponse{
		ID:        column.ID.String(),
		BoardID:   column.BoardID.String(),
		Name:      column.Name,
		Position:  column.Position,
		CreatedAt: column.CreatedAt,
	})
}

// AddMemberRequest represents the request body for adding a board member.
type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// AddMember handles POST /boards/{boardID}/members requests.
func (h *BoardHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	boardID, ok := uuidParam(w, r, "boardID")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "user_id must be a UUID")
		return
	}

	if err := h.boards.AddMember(r.Context(), actor, boardID, userID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
