package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/kestrelhq/driftboard/internal/notify"
)

// SentBatch records one Send call on the MockDelivery.
type SentBatch struct {
	RecipientID uuid.UUID
	Batch       []notify.Notification
}

// MockDelivery implements notify.Delivery for testing.
type MockDelivery struct {
	SendFn func(ctx context.Context, recipientID uuid.UUID, batch []notify.Notification) error

	mu    sync.Mutex
	Sent  []SentBatch
	Error error
}

// NewMockDelivery creates a new MockDelivery.
func NewMockDelivery() *MockDelivery {
	return &MockDelivery{}
}

var _ notify.Delivery = (*MockDelivery)(nil)

// Send implements the Delivery interface.
func (m *MockDelivery) Send(ctx context.Context, recipientID uuid.UUID, batch []notify.Notification) error {
	if m.SendFn != nil {
		return m.SendFn(ctx, recipientID, batch)
	}
	if m.Error != nil {
		return m.Error
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentBatch{RecipientID: recipientID, Batch: batch})
	return nil
}

// SentCount returns the number of recorded Send calls.
func (m *MockDelivery) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
