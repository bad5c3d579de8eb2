package sched

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAfterFiresOnce(t *testing.T) {
	s := NewTimerScheduler(nil)
	defer s.Stop()

	fired := make(chan struct{})
	s.RunAfter(10*time.Millisecond, func(ctx context.Context) {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not fire")
	}
}

func TestRunAtInPastFiresImmediately(t *testing.T) {
	s := NewTimerScheduler(nil)
	defer s.Stop()

	fired := make(chan struct{})
	s.RunAt(time.Now().Add(-time.Hour), func(ctx context.Context) {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not fire")
	}
}

func TestRegisterIntervalRepeats(t *testing.T) {
	s := NewTimerScheduler(nil)
	defer s.Stop()

	var mu sync.Mutex
	count := 0
	s.RegisterInterval(5*time.Millisecond, func(ctx context.Context) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStopCancelsPendingWork(t *testing.T) {
	s := NewTimerScheduler(nil)

	fired := false
	s.RunAfter(time.Hour, func(ctx context.Context) {
		fired = true
	})

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.False(t, fired)
}

func TestPanickingHandlerIsContained(t *testing.T) {
	s := NewTimerScheduler(nil)
	defer s.Stop()

	panicked := make(chan struct{})
	s.RunAfter(time.Millisecond, func(ctx context.Context) {
		close(panicked)
		panic("boom")
	})

	<-panicked

	// The scheduler keeps working after the panic.
	fired := make(chan struct{})
	s.RunAfter(time.Millisecond, func(ctx context.Context) {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler stopped working after handler panic")
	}
}

func TestRegisterCronRejectsBadExpression(t *testing.T) {
	s := NewTimerScheduler(nil)
	defer s.Stop()

	err := s.RegisterCron("not a cron line", func(ctx context.Context) {})
	assert.Error(t, err)

	err = s.RegisterCron("*/5 * * * *", func(ctx context.Context) {})
	assert.NoError(t, err)
}
