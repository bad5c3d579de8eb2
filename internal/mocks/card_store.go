package mocks

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/domain"
	"github.com/kestrelhq/driftboard/internal/store"
)

// MockCardStore implements store.CardStore for testing. The default
// implementation keeps cards in a map and mirrors tenant scoping: a card
// belonging to another tenant reads as not found.
type MockCardStore struct {
	// Function fields for customizable behavior
	CreateFn           func(ctx context.Context, card *domain.Card) error
	GetForTenantFn     func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Card, error)
	GetForUpdateFn     func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Card, error)
	UpdateFn           func(ctx context.Context, card *domain.Card) error
	DeleteFn           func(ctx context.Context, tenantID, id uuid.UUID) error
	ListByBoardFn      func(ctx context.Context, tenantID, boardID uuid.UUID) ([]*domain.Card, error)
	ListStaleByBoardFn func(ctx context.Context, tenantID, boardID uuid.UUID, cutoff time.Time) ([]*domain.Card, error)

	// Data for default implementation
	mu    sync.Mutex
	Cards map[uuid.UUID]*domain.Card

	// Errors override the defaults when set
	CreateError error
	UpdateError error
}

// NewMockCardStore creates a new mock store with initialized defaults.
func NewMockCardStore() *MockCardStore {
	return &MockCardStore{
		Cards: make(map[uuid.UUID]*domain.Card),
	}
}

var _ store.CardStore = (*MockCardStore)(nil)

// Put seeds a card directly, bypassing validation. Test setup helper.
func (m *MockCardStore) Put(card *domain.Card) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *card
	m.Cards[card.ID] = &cp
}

// Create implements the CardStore interface.
func (m *MockCardStore) Create(ctx context.Context, card *domain.Card) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, card)
	}
	if m.CreateError != nil {
		return m.CreateError
	}
	if err := card.Validate(); err != nil {
		return err
	}

	m.Put(card)
	return nil
}

// GetForTenant implements the CardStore interface.
func (m *MockCardStore) GetForTenant(ctx context.Context, tenantID, id uuid.UUID) (*domain.Card, error) {
	if m.GetForTenantFn != nil {
		return m.GetForTenantFn(ctx, tenantID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.Cards[id]
	if !ok || card.TenantID != tenantID {
		return nil, store.ErrCardNotFound
	}
	cp := *card
	return &cp, nil
}

// GetForUpdate implements the CardStore interface. There is no row locking
// here; the copy-out matches what callers see from the real store.
func (m *MockCardStore) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*domain.Card, error) {
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn(ctx, tenantID, id)
	}
	return m.GetForTenant(ctx, tenantID, id)
}

// Update implements the CardStore interface.
func (m *MockCardStore) Update(ctx context.Context, card *domain.Card) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, card)
	}
	if m.UpdateError != nil {
		return m.UpdateError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Cards[card.ID]
	if !ok || existing.TenantID != card.TenantID {
		return store.ErrCardNotFound
	}
	cp := *card
	m.Cards[card.ID] = &cp
	return nil
}

// Delete implements the CardStore interface.
func (m *MockCardStore) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, tenantID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.Cards[id]
	if !ok || card.TenantID != tenantID {
		return store.ErrCardNotFound
	}
	delete(m.Cards, id)
	return nil
}

// ListByBoard implements the CardStore interface.
func (m *MockCardStore) ListByBoard(ctx context.Context, tenantID, boardID uuid.UUID) ([]*domain.Card, error) {
	if m.ListByBoardFn != nil {
		return m.ListByBoardFn(ctx, tenantID, boardID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var cards []*domain.Card
	for _, card := range m.Cards {
		if card.TenantID == tenantID && card.BoardID == boardID {
			cp := *card
			cards = append(cards, &cp)
		}
	}
	return cards, nil
}

// ListStaleByBoard implements the CardStore interface. It applies the same
// predicate as the SQL scan: published, not closed, not postponed, triaged
// into a column, last active strictly before the cutoff.
func (m *MockCardStore) ListStaleByBoard(
	ctx context.Context,
	tenantID, boardID uuid.UUID,
	cutoff time.Time,
) ([]*domain.Card, error) {
	if m.ListStaleByBoardFn != nil {
		return m.ListStaleByBoardFn(ctx, tenantID, boardID, cutoff)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var stale []*domain.Card
	for _, card := range m.Cards {
		if card.TenantID != tenantID || card.BoardID != boardID {
			continue
		}
		if card.EffectiveState() != domain.StateActive {
			continue
		}
		if !card.LastActiveAt.Before(cutoff) {
			continue
		}
		cp := *card
		stale = append(stale, &cp)
	}
	return stale, nil
}

// WithTx implements the CardStore interface. The mock has no transactions,
// so it returns itself.
func (m *MockCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return m
}
