package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelhq/driftboard/internal/auth"
	"github.com/kestrelhq/driftboard/internal/domain"
)

// stubBoardService implements BoardService with function fields.
type stubBoardService struct {
	CreateBoardFn  func(ctx context.Context, actor auth.Identity, name string) (*domain.Board, error)
	GetBoardFn     func(ctx context.Context, actor auth.Identity, boardID uuid.UUID) (*domain.Board, error)
	ListBoardsFn   func(ctx context.Context, actor auth.Identity) ([]*domain.Board, error)
	CreateColumnFn func(ctx context.Context, actor auth.Identity, boardID uuid.UUID, name string, position int) (*domain.Column, error)
	AddMemberFn    func(ctx context.Context, actor auth.Identity, boardID, userID uuid.UUID) error
}

func (s *stubBoardService) CreateBoard(ctx context.Context, actor auth.Identity, name string) (*domain.Board, error) {
	return s.CreateBoardFn(ctx, actor, name)
}

func (s *stubBoardService) GetBoard(ctx context.Context, actor auth.Identity, boardID uuid.UUID) (*domain.Board, error) {
	return s.GetBoardFn(ctx, actor, boardID)
}

func (s *stubBoardService) ListBoards(ctx context.Context, actor auth.Identity) ([]*domain.Board, error) {
	return s.ListBoardsFn(ctx, actor)
}

func (s *stubBoardService) CreateColumn(ctx context.Context, actor auth.Identity, boardID uuid.UUID, name string, position int) (*domain.Column, error) {
	return s.CreateColumnFn(ctx, actor, boardID, name, position)
}

func (s *stubBoardService) AddMember(ctx context.Context, actor auth.Identity, boardID, userID uuid.UUID) error {
	return s.AddMemberFn(ctx, actor, boardID, userID)
}

func doBoardRequest(handler *BoardHandler, identity *auth.Identity, method, path string, body []byte) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Post("/boards", handler.CreateBoard)
	r.Get("/boards", handler.ListBoards)
	r.Get("/boards/{boardID}", handler.GetBoard)
	r.Post("/boards/{boardID}/columns", handler.CreateColumn)
	r.Post("/boards/{boardID}/members", handler.AddMember)

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if identity != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *identity))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateBoard(t *testing.T) {
	identity := testIdentity()

	svc := &stubBoardService{
		CreateBoardFn: func(ctx context.Context, actor auth.Identity, name string) (*domain.Board, error) {
			assert.Equal(t, identity, actor)
			return domain.NewBoard(actor.TenantID, name)
		},
	}
	handler := NewBoardHandler(svc, slog.Default())

	body, _ := json.Marshal(CreateBoardRequest{Name: "Platform"})
	rec := doBoardRequest(handler, &identity, http.MethodPost, "/boards", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp BoardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Platform", resp.Name)
}

func TestCreateBoardRejectsEmptyName(t *testing.T) {
	identity := testIdentity()
	handler := NewBoardHandler(&stubBoardService{}, slog.Default())

	body, _ := json.Marshal(CreateBoardRequest{Name: ""})
	rec := doBoardRequest(handler, &identity, http.MethodPost, "/boards", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateColumn(t *testing.T) {
	identity := testIdentity()
	boardID := uuid.New()

	svc := &stubBoardService{
		CreateColumnFn: func(ctx context.Context, actor auth.Identity, gotBoard uuid.UUID, name string, position int) (*domain.Column, error) {
			assert.Equal(t, boardID, gotBoard)
			assert.Equal(t, 2, position)
			return domain.NewColumn(actor.TenantID, gotBoard, name, position)
		},
	}
	handler := NewBoardHandler(svc, slog.Default())

	body, _ := json.Marshal(CreateColumnRequest{Name: "In Progress", Position: 2})
	rec := doBoardRequest(handler, &identity, http.MethodPost, "/boards/"+boardID.String()+"/columns", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp ColumnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Position)
}

func TestCreateColumnRejectsNegativePosition(t *testing.T) {
	identity := testIdentity()
	handler := NewBoardHandler(&stubBoardService{}, slog.Default())

	body, _ := json.Marshal(CreateColumnRequest{Name: "Backlog", Position: -5})
	rec := doBoardRequest(handler, &identity, http.MethodPost, "/boards/"+uuid.New().String()+"/columns", body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "Position")
}

func TestAddMemberRejectsBadUserID(t *testing.T) {
	identity := testIdentity()
	handler := NewBoardHandler(&stubBoardService{}, slog.Default())

	body, _ := json.Marshal(AddMemberRequest{UserID: "not-a-uuid"})
	rec := doBoardRequest(handler, &identity, http.MethodPost, "/boards/"+uuid.New().String()+"/members", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddMember(t *testing.T) {
	identity := testIdentity()
	boardID := uuid.New()
	userID := uuid.New()

	svc := &stubBoardService{
		AddMemberFn: func(ctx context.Context, actor auth.Identity, gotBoard, gotUser uuid.UUID) error {
			assert.Equal(t, boardID, gotBoard)
			assert.Equal(t, userID, gotUser)
			return nil
		},
	}
	handler := NewBoardHandler(svc, slog.Default())

	body, _ := json.Marshal(AddMemberRequest{UserID: userID.String()})
	rec := doBoardRequest(handler, &identity, http.MethodPost, "/boards/"+boardID.String()+"/members", body)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
