// Package sched provides the in-process scheduling collaborator: one-off
// callbacks at a delay or a wall-clock instant, fixed intervals, and cron
// expressions. Callbacks carry at-least-once semantics; every handler
// registered here must therefore be idempotent.
package sched

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Handler is a scheduled callback. The context is cancelled when the
// scheduler stops.
type Handler func(ctx context.Context)

// Scheduler schedules background work. Implementations must never block the
// caller; handlers run on their own goroutines.
type Scheduler interface {
	// RunAfter invokes the handler once after the given delay.
	RunAfter(delay time.Duration, handler Handler)

	// RunAt invokes the handler once at the given instant. An instant in
	// the past fires immediately.
	RunAt(at time.Time, handler Handler)

	// RegisterInterval invokes the handler every period until the
	// scheduler stops. The first invocation happens one period from now.
	RegisterInterval(period time.Duration, handler Handler)

	// RegisterCron invokes the handler per the cron expression.
	RegisterCron(expression string, handler Handler) error
}

// TimerScheduler is the production Scheduler built on timers, tickers, and
// a cron runner. Stop waits for in-flight handlers.
type TimerScheduler struct {
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewTimerScheduler creates a new TimerScheduler. Call Start before
// registering cron handlers fire, and Stop on shutdown.
func NewTimerScheduler(logger *slog.Logger) *TimerScheduler {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TimerScheduler{
		ctx:        ctx,
		cancelFunc: cancel,
		cron:       cron.New(),
		logger:     logger.With(slog.String("component", "scheduler")),
	}
}

var _ Scheduler = (*TimerScheduler)(nil)

// Start begins cron dispatch. Timer and interval handlers run regardless.
func (s *TimerScheduler) Start() {
	s.cron.Start()
}

// Stop cancels all scheduled work and waits for running handlers to finish.
func (s *TimerScheduler) Stop() {
	s.cancelFunc()
	cronCtx := s.cron.Stop()
	<-cronCtx.Done()
	s.wg.Wait()
}

// RunAfter implements Scheduler.RunAfter.
func (s *TimerScheduler) RunAfter(delay time.Duration, handler Handler) {
	if delay < 0 {
		delay = 0
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
			s.invoke(handler)
		}
	}()
}

// RunAt implements Scheduler.RunAt.
func (s *TimerScheduler) RunAt(at time.Time, handler Handler) {
	s.RunAfter(time.Until(at), handler)
}

// RegisterInterval implements Scheduler.RegisterInterval.
func (s *TimerScheduler) RegisterInterval(period time.Duration, handler Handler) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.invoke(handler)
			}
		}
	}()
}

// RegisterCron implements Scheduler.RegisterCron.
func (s *TimerScheduler) RegisterCron(expression string, handler Handler) error {
	_, err := s.cron.AddFunc(expression, func() {
		s.invoke(handler)
	})
	return err
}

// invoke runs a handler, containing panics so one bad handler cannot take
// down the scheduler goroutines.
func (s *TimerScheduler) invoke(handler Handler) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("scheduled handler panicked", slog.Any("panic", p))
		}
	}()

	handler(s.ctx)
}
