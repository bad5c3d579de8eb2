package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/kestrelhq/driftboard/internal/sched"
)

// ScheduledCall records one handler registration on the MockScheduler.
type ScheduledCall struct {
	At      time.Time
	Delay   time.Duration
	Period  time.Duration
	Handler sched.Handler
}

// MockScheduler implements sched.Scheduler for testing. Nothing fires on its
// own; tests inspect the recorded calls and invoke handlers directly, which
// keeps timer behavior deterministic.
type MockScheduler struct {
	mu        sync.Mutex
	AtCalls   []ScheduledCall
	Intervals []ScheduledCall
	Crons     map[string]sched.Handler
}

// NewMockScheduler creates a new MockScheduler.
func NewMockScheduler() *MockScheduler {
	return &MockScheduler{
		Crons: make(map[string]sched.Handler),
	}
}

var _ sched.Scheduler = (*MockScheduler)(nil)

// RunAfter implements the Scheduler interface.
func (m *MockScheduler) RunAfter(delay time.Duration, handler sched.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AtCalls = append(m.AtCalls, ScheduledCall{Delay: delay, Handler: handler})
}

// RunAt implements the Scheduler interface.
func (m *MockScheduler) RunAt(at time.Time, handler sched.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AtCalls = append(m.AtCalls, ScheduledCall{At: at, Handler: handler})
}

// RegisterInterval implements the Scheduler interface.
func (m *MockScheduler) RegisterInterval(period time.Duration, handler sched.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Intervals = append(m.Intervals, ScheduledCall{Period: period, Handler: handler})
}

// RegisterCron implements the Scheduler interface.
func (m *MockScheduler) RegisterCron(expression string, handler sched.Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Crons[expression] = handler
	return nil
}

// FireAll invokes every recorded one-shot handler once and clears them.
func (m *MockScheduler) FireAll(ctx context.Context) {
	m.mu.Lock()
	calls := m.AtCalls
	m.AtCalls = nil
	m.mu.Unlock()

	for _, call := range calls {
		call.Handler(ctx)
	}
}
