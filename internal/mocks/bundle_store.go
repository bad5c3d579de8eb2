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

// MockBundleStore implements store.BundleStore for testing. The default
// enforces the one-pending-per-recipient rule and the pending -> processing
// compare-and-set the way the real store's indexes and guarded updates do.
type MockBundleStore struct {
	CreateFn               func(ctx context.Context, bundle *domain.NotificationBundle) error
	GetByIDFn              func(ctx context.Context, id uuid.UUID) (*domain.NotificationBundle, error)
	GetPendingFn           func(ctx context.Context, tenantID, recipientID uuid.UUID) (*domain.NotificationBundle, error)
	MarkProcessingFn       func(ctx context.Context, id uuid.UUID) (bool, error)
	MarkDeliveredFn        func(ctx context.Context, id uuid.UUID) error
	ListOverduePendingFn   func(ctx context.Context, now time.Time) ([]*domain.NotificationBundle, error)
	ResetStaleProcessingFn func(ctx context.Context, before time.Time) (int, error)

	mu      sync.Mutex
	Bundles map[uuid.UUID]*domain.NotificationBundle

	CreateError error
}

// NewMockBundleStore creates a new mock store with initialized defaults.
func NewMockBundleStore() *MockBundleStore {
	return &MockBundleStore{
		Bundles: make(map[uuid.UUID]*domain.NotificationBundle),
	}
}

var _ store.BundleStore = (*MockBundleStore)(nil)

// Create implements the BundleStore interface.
func (m *MockBundleStore) Create(ctx context.Context, bundle *domain.NotificationBundle) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, bundle)
	}
	if m.CreateError != nil {
		return m.CreateError
	}
	if err := bundle.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Bundles {
		if existing.TenantID == bundle.TenantID &&
			existing.RecipientID == bundle.RecipientID &&
			existing.Status == domain.BundleStatusPending {
			return store.ErrPendingBundleExists
		}
	}
	cp := *bundle
	m.Bundles[bundle.ID] = &cp
	return nil
}

// GetByID implements the BundleStore interface.
func (m *MockBundleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.NotificationBundle, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	bundle, ok := m.Bundles[id]
	if !ok {
		return nil, store.ErrBundleNotFound
	}
	cp := *bundle
	return &cp, nil
}

// GetPending implements the BundleStore interface.
func (m *MockBundleStore) GetPending(
	ctx context.Context,
	tenantID, recipientID uuid.UUID,
) (*domain.NotificationBundle, error) {
	if m.GetPendingFn != nil {
		return m.GetPendingFn(ctx, tenantID, recipientID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, bundle := range m.Bundles {
		if bundle.TenantID == tenantID &&
			bundle.RecipientID == recipientID &&
			bundle.Status == domain.BundleStatusPending {
			cp := *bundle
			return &cp, nil
		}
	}
	return nil, store.ErrBundleNotFound
}

// MarkProcessing implements the BundleStore interface.
func (m *MockBundleStore) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.MarkProcessingFn != nil {
		return m.MarkProcessingFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	bundle, ok := m.Bundles[id]
	if !ok || bundle.Status != domain.BundleStatusPending {
		return false, nil
	}
	bundle.Status = domain.BundleStatusProcessing
	bundle.UpdatedAt = time.Now().UTC()
	return true, nil
}

// MarkDelivered implements the BundleStore interface.
func (m *MockBundleStore) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	if m.MarkDeliveredFn != nil {
		return m.MarkDeliveredFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	bundle, ok := m.Bundles[id]
	if !ok {
		return store.ErrBundleNotFound
	}
	bundle.Status = domain.BundleStatusDelivered
	bundle.UpdatedAt = time.Now().UTC()
	return nil
}

// ListOverduePending implements the BundleStore interface.
func (m *MockBundleStore) ListOverduePending(
	ctx context.Context,
	now time.Time,
) ([]*domain.NotificationBundle, error) {
	if m.ListOverduePendingFn != nil {
		return m.ListOverduePendingFn(ctx, now)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var overdue []*domain.NotificationBundle
	for _, bundle := range m.Bundles {
		if bundle.Status == domain.BundleStatusPending && !bundle.WindowEnd.After(now) {
			cp := *bundle
			overdue = append(overdue, &cp)
		}
	}
	return overdue, nil
}

// ResetStaleProcessing implements the BundleStore interface.
func (m *MockBundleStore) ResetStaleProcessing(ctx context.Context, before time.Time) (int, error) {
	if m.ResetStaleProcessingFn != nil {
		return m.ResetStaleProcessingFn(ctx, before)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	reset := 0
	for _, bundle := range m.Bundles {
		if bundle.Status != domain.BundleStatusProcessing || !bundle.UpdatedAt.Before(before) {
			continue
		}
		if m.hasPendingLocked(bundle.TenantID, bundle.RecipientID) {
			continue
		}
		bundle.Status = domain.BundleStatusPending
		reset++
	}
	return reset, nil
}

func (m *MockBundleStore) hasPendingLocked(tenantID, recipientID uuid.UUID) bool {
	for _, bundle := range m.Bundles {
		if bundle.TenantID == tenantID &&
			bundle.RecipientID == recipientID &&
			bundle.Status == domain.BundleStatusPending {
			return true
		}
	}
	return false
}

// WithTx implements the BundleStore interface.
func (m *MockBundleStore) WithTx(tx *sql.Tx) store.BundleStore {
	return m
}
