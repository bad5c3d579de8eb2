package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/store"
)

// MockBoardStore implements store.BoardStore for testing.
type MockBoardStore struct {
	// Function fields for customizable behavior
	CreateBoardFn   func(ctx context.Context, board *domain.Board) error
	GetBoardFn      func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Board, error)
	ListBoardsFn    func(ctx context.Context, tenantID uuid.UUID) ([]*domain.Board, error)
	CreateColumnFn  func(ctx context.Context, column *domain.Column) error
	GetColumnFn     func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Column, error)
	AddMemberFn     func(ctx context.Context, tenantID, boardID, userID uuid.UUID) error
	ListMemberIDsFn func(ctx context.Context, tenantID, boardID uuid.UUID) ([]uuid.UUID, error)

	// Data for default implementation
	mu      sync.Mutex
	Boards  map[uuid.UUID]*domain.Board
	Columns map[uuid.UUID]*domain.Column
	Members map[uuid.UUID][]uuid.UUID // board ID -> member user IDs
}

// NewMockBoardStore creates a new mock store with initialized defaults.
func NewMockBoardStore() *MockBoardStore {
	return &MockBoardStore{
		Boards:  make(map[uuid.UUID]*domain.Board),
		Columns: make(map[uuid.UUID]*domain.Column),
		Members: make(map[uuid.UUID][]uuid.UUID),
	}
}

var _ store.BoardStore = (*MockBoardStore)(nil)

// CreateBoard implements the BoardStore interface.
func (m *MockBoardStore) CreateBoard(ctx context.Context, board *domain.Board) error {
	if m.CreateBoardFn != nil {
		return m.CreateBoardFn(ctx, board)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *board
	m.Boards[board.ID] = &cp
	return nil
}

// GetBoard implements the BoardStore interface.
func (m *MockBoardStore) GetBoard(ctx context.Context, tenantID, id uuid.UUID) (*domain.Board, error) {
	if m.GetBoardFn != nil {
		return m.GetBoardFn(ctx, tenantID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	board, ok := m.Boards[id]
	if !ok || board.TenantID != tenantID {
		return nil, store.ErrBoardNotFound
	}
	cp := *board
	return &cp, nil
}

// ListBoards implements the BoardStore interface.
func (m *MockBoardStore) ListBoards(ctx context.Context, tenantID uuid.UUID) ([]*domain.Board, error) {
	if m.ListBoardsFn != nil {
		return m.ListBoardsFn(ctx, tenantID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var boards []*domain.Board
	for _, board := range m.Boards {
		if board.TenantID == tenantID {
			cp := *board
			boards = append(boards, &cp)
		}
	}
	return boards, nil
}

// CreateColumn implements the BoardStore interface.
func (m *MockBoardStore) CreateColumn(ctx context.Context, column *domain.Column) error {
	if m.CreateColumnFn != nil {
		return m.CreateColumnFn(ctx, column)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *column
	m.Columns[column.ID] = &cp
	return nil
}

// GetColumn implements the BoardStore interface.
func (m *MockBoardStore) GetColumn(ctx context.Context, tenantID, id uuid.UUID) (*domain.Column, error) {
	if m.GetColumnFn != nil {
		return m.GetColumnFn(ctx, tenantID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	column, ok := m.Columns[id]
	if !ok || column.TenantID != tenantID {
		return nil, store.ErrColumnNotFound
	}
	cp := *column
	return &cp, nil
}

// AddMember implements the BoardStore interface.
func (m *MockBoardStore) AddMember(ctx context.Context, tenantID, boardID, userID uuid.UUID) error {
	if m.AddMemberFn != nil {
		return m.AddMemberFn(ctx, tenantID, boardID, userID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	board, ok := m.Boards[boardID]
	if !ok || board.TenantID != tenantID {
		return store.ErrBoardNotFound
	}
	for _, existing := range m.Members[boardID] {
		if existing == userID {
			return nil
		}
	}
	m.Members[boardID] = append(m.Members[boardID], userID)
	return nil
}

// ListMemberIDs implements the BoardStore interface.
func (m *MockBoardStore) ListMemberIDs(ctx context.Context, tenantID, boardID uuid.UUID) ([]uuid.UUID, error) {
	if m.ListMemberIDsFn != nil {
		return m.ListMemberIDsFn(ctx, tenantID, boardID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	board, ok := m.Boards[boardID]
	if !ok || board.TenantID != tenantID {
		return nil, store.ErrBoardNotFound
	}
	return append([]uuid.UUID(nil), m.Members[boardID]...), nil
}

// WithTx implements the BoardStore interface.
func (m *MockBoardStore) WithTx(tx *sql.Tx) store.BoardStore {
	return m
}

// MockTenantStore implements store.TenantStore for testing.
type MockTenantStore struct {
	CreateFn  func(ctx context.Context, tenant *domain.Tenant) error
	ListIDsFn func(ctx context.Context) ([]uuid.UUID, error)

	mu      sync.Mutex
	Tenants map[uuid.UUID]*domain.Tenant
}

// NewMockTenantStore creates a new mock store with initialized defaults.
func NewMockTenantStore() *MockTenantStore {
	return &MockTenantStore{
		Tenants: make(map[uuid.UUID]*domain.Tenant),
	}
}

var _ store.TenantStore = (*MockTenantStore)(nil)

// Create implements the TenantStore interface.
func (m *MockTenantStore) Create(ctx context.Context, tenant *domain.Tenant) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, tenant)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tenant
	m.Tenants[tenant.ID] = &cp
	return nil
}

// ListIDs implements the TenantStore interface.
func (m *MockTenantStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.ListIDsFn != nil {
		return m.ListIDsFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(m.Tenants))
	for id := range m.Tenants {
		ids = append(ids, id)
	}
	return ids, nil
}
