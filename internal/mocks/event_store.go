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

// MockEventStore implements store.EventStore for testing. The default keeps
// events in append order. When Boards is set, ListForRecipientWindow resolves
// membership through it like the SQL join does; otherwise membership is not
// filtered.
type MockEventStore struct {
	AppendFn                 func(ctx context.Context, event *domain.Event) error
	ListByTargetFn           func(ctx context.Context, tenantID uuid.UUID, target domain.TargetRef) ([]*domain.Event, error)
	ListByTenantActionFn     func(ctx context.Context, tenantID uuid.UUID, action domain.EventAction, limit int) ([]*domain.Event, error)
	ListForRecipientWindowFn func(ctx context.Context, tenantID, recipientID uuid.UUID, start, end time.Time) ([]*domain.Event, error)

	mu     sync.Mutex
	Events []*domain.Event
	Boards *MockBoardStore

	AppendError error
}

// NewMockEventStore creates a new mock store with initialized defaults.
func NewMockEventStore() *MockEventStore {
	return &MockEventStore{}
}

var _ store.EventStore = (*MockEventStore)(nil)

// Append implements the EventStore interface.
func (m *MockEventStore) Append(ctx context.Context, event *domain.Event) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, event)
	}
	if m.AppendError != nil {
		return m.AppendError
	}
	if err := event.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	m.Events = append(m.Events, &cp)
	return nil
}

// ListByTarget implements the EventStore interface.
func (m *MockEventStore) ListByTarget(
	ctx context.Context,
	tenantID uuid.UUID,
	target domain.TargetRef,
) ([]*domain.Event, error) {
	if m.ListByTargetFn != nil {
		return m.ListByTargetFn(ctx, tenantID, target)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var events []*domain.Event
	for _, event := range m.Events {
		if event.TenantID == tenantID && event.Target == target {
			cp := *event
			events = append(events, &cp)
		}
	}
	return events, nil
}

// ListByTenantAction implements the EventStore interface.
func (m *MockEventStore) ListByTenantAction(
	ctx context.Context,
	tenantID uuid.UUID,
	action domain.EventAction,
	limit int,
) ([]*domain.Event, error) {
	if m.ListByTenantActionFn != nil {
		return m.ListByTenantActionFn(ctx, tenantID, action, limit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var events []*domain.Event
	for i := len(m.Events) - 1; i >= 0 && len(events) < limit; i-- {
		event := m.Events[i]
		if event.TenantID == tenantID && event.Action == action {
			cp := *event
			events = append(events, &cp)
		}
	}
	return events, nil
}

// ListForRecipientWindow implements the EventStore interface.
func (m *MockEventStore) ListForRecipientWindow(
	ctx context.Context,
	tenantID, recipientID uuid.UUID,
	start, end time.Time,
) ([]*domain.Event, error) {
	if m.ListForRecipientWindowFn != nil {
		return m.ListForRecipientWindowFn(ctx, tenantID, recipientID, start, end)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var events []*domain.Event
	for _, event := range m.Events {
		if event.TenantID != tenantID || event.ActorID == recipientID {
			continue
		}
		if event.CreatedAt.Before(start) || event.CreatedAt.After(end) {
			continue
		}
		if m.Boards != nil && !m.isMember(ctx, tenantID, event.BoardID, recipientID) {
			continue
		}
		cp := *event
		events = append(events, &cp)
	}
	return events, nil
}

func (m *MockEventStore) isMember(ctx context.Context, tenantID, boardID, userID uuid.UUID) bool {
	members, err := m.Boards.ListMemberIDs(ctx, tenantID, boardID)
	if err != nil {
		return false
	}
	for _, member := range members {
		if member == userID {
			return true
		}
	}
	return false
}

// WithTx implements the EventStore interface.
func (m *MockEventStore) WithTx(tx *sql.Tx) store.EventStore {
	return m
}
