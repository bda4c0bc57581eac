package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// These exercise the sweeper's lifecycle only; sweep() itself talks to the
// database package's package-level pool and is covered by the database
// package's own integration tests.

func TestStaleSweeperStopsOnStopSignal(t *testing.T) {
	logger := zerolog.Nop()
	s := NewStaleSweeper(&logger, time.Hour, 10*time.Minute)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	// Give the goroutine a moment to enter its select loop before signaling stop.
	time.Sleep(10 * time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop within timeout")
	}
}

func TestStaleSweeperStopsOnContextCancel(t *testing.T) {
	logger := zerolog.Nop()
	s := NewStaleSweeper(&logger, time.Hour, 10*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop within timeout")
	}
}
