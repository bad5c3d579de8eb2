package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/store"
)

// MockEntropyConfigStore implements store.EntropyConfigStore for testing.
// The default keeps one config per tenant and one per board, replacing on
// upsert like the partial unique indexes do.
type MockEntropyConfigStore struct {
	UpsertFn       func(ctx context.Context, cfg *domain.EntropyConfig) error
	GetForTenantFn func(ctx context.Context, tenantID uuid.UUID) (*domain.EntropyConfig, error)
	GetForBoardFn  func(ctx context.Context, tenantID, boardID uuid.UUID) (*domain.EntropyConfig, error)

	mu            sync.Mutex
	TenantConfigs map[uuid.UUID]*domain.EntropyConfig // tenant ID -> config
	BoardConfigs  map[uuid.UUID]*domain.EntropyConfig // board ID -> config
}

// NewMockEntropyConfigStore creates a new mock store with initialized
// defaults.
func NewMockEntropyConfigStore() *MockEntropyConfigStore {
	return &MockEntropyConfigStore{
		TenantConfigs: make(map[uuid.UUID]*domain.EntropyConfig),
		BoardConfigs:  make(map[uuid.UUID]*domain.EntropyConfig),
	}
}

var _ store.EntropyConfigStore = (*MockEntropyConfigStore)(nil)

// Upsert implements the EntropyConfigStore interface.
func (m *MockEntropyConfigStore) Upsert(ctx context.Context, cfg *domain.EntropyConfig) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, cfg)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cfg
	switch cfg.Scope {
	case domain.EntropyScopeTenant:
		m.TenantConfigs[cfg.TenantID] = &cp
	case domain.EntropyScopeBoard:
		m.BoardConfigs[*cfg.BoardID] = &cp
	}
	return nil
}

// GetForTenant implements the EntropyConfigStore interface.
func (m *MockEntropyConfigStore) GetForTenant(ctx context.Context, tenantID uuid.UUID) (*domain.EntropyConfig, error) {
	if m.GetForTenantFn != nil {
		return m.GetForTenantFn(ctx, tenantID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.TenantConfigs[tenantID]
	if !ok {
		return nil, store.ErrEntropyConfigNotFound
	}
	cp := *cfg
	return &cp, nil
}

// GetForBoard implements the EntropyConfigStore interface.
func (m *MockEntropyConfigStore) GetForBoard(ctx context.Context, tenantID, boardID uuid.UUID) (*domain.EntropyConfig, error) {
	if m.GetForBoardFn != nil {
		return m.GetForBoardFn(ctx, tenantID, boardID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.BoardConfigs[boardID]
	if !ok || cfg.TenantID != tenantID {
		return nil, store.ErrEntropyConfigNotFound
	}
	cp := *cfg
	return &cp, nil
}

// WithTx implements the EntropyConfigStore interface.
func (m *MockEntropyConfigStore) WithTx(tx *sql.Tx) store.EntropyConfigStore {
	return m
}
