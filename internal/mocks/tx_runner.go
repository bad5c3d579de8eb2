package mocks

import (
	"context"
	"database/sql"

	"github.com/kestrelhq/driftboard/internal/store"
)

// MockTxRunner implements store.TxRunner without a database. The callback
// receives a nil *sql.Tx; the in-memory store mocks return themselves from
// WithTx, so transactional code paths run against the same state.
type MockTxRunner struct {
	RunInTransactionFn func(ctx context.Context, fn store.TxFn) error
}

// NewMockTxRunner creates a new MockTxRunner.
func NewMockTxRunner() *MockTxRunner {
	return &MockTxRunner{}
}

var _ store.TxRunner = (*MockTxRunner)(nil)

// RunInTransaction implements the TxRunner interface.
func (m *MockTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	if m.RunInTransactionFn != nil {
		return m.RunInTransactionFn(ctx, fn)
	}
	return fn(ctx, (*sql.Tx)(nil))
}
