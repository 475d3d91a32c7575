package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAddRejectsInvalidSchedule(t *testing.T) {
	s := New(testLogger())
	err := s.Add(context.Background(), "sweep", "every morning", 0, func(context.Context) error { return nil })
	if err == nil {
		t.Fatalf("expected invalid schedule error")
	}
}

func TestRunExecutesJobWithBoundedContext(t *testing.T) {
	s := New(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan bool, 1)
	err := s.Add(ctx, "sweep", "@every 1s", 500*time.Millisecond, func(jobCtx context.Context) error {
		_, hasDeadline := jobCtx.Deadline()
		select {
		case ran <- hasDeadline:
		default:
		}
		return errors.New("job errors are logged, not fatal")
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case hasDeadline := <-ran:
		if !hasDeadline {
			t.Fatalf("expected job context with deadline")
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("job did not run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("scheduler did not stop")
	}
}
