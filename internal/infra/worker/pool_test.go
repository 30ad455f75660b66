//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool(t *testing.T) {
	t.Run("should run submitted tasks", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p := NewPool(2, newTestLogger())
		p.Start(ctx)
		defer p.Stop()

		done := make(chan struct{})
		err := p.Submit(func(ctx context.Context) error {
			close(done)
			return nil
		})
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("task never ran")
		}
	})

	t.Run("should keep running after a task fails", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p := NewPool(1, newTestLogger())
		p.Start(ctx)
		defer p.Stop()

		done := make(chan struct{})
		_ = p.Submit(func(ctx context.Context) error { return errors.New("boom") })
		_ = p.Submit(func(ctx context.Context) error {
			close(done)
			return nil
		})

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("pool stopped processing after a failed task")
		}
	})

	t.Run("should reject nil tasks", func(t *testing.T) {
		p := NewPool(1, newTestLogger())
		if err := p.Submit(nil); err == nil {
			t.Fatal("expected an error for a nil task, but got nil")
		}
	})

	t.Run("should drop tasks once the queue is full", func(t *testing.T) {
		// Not started, so nothing drains the queue.
		p := NewPool(1, newTestLogger())
		noop := func(ctx context.Context) error { return nil }

		for i := 0; i < cap(p.jobs); i++ {
			if err := p.Submit(noop); err != nil {
				t.Fatalf("submit %d: expected room in the queue, got: %v", i, err)
			}
		}
		if err := p.Submit(noop); err == nil {
			t.Fatal("expected the saturated queue to reject the task")
		}
		if got := p.Queued(); got != cap(p.jobs) {
			t.Fatalf("expected Queued to report %d waiting tasks, got %d", cap(p.jobs), got)
		}
	})

	t.Run("should finish the in-flight task before stopping", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p := NewPool(1, newTestLogger())
		p.Start(ctx)

		started := make(chan struct{})
		var finished int32
		_ = p.Submit(func(ctx context.Context) error {
			close(started)
			time.Sleep(20 * time.Millisecond)
			atomic.StoreInt32(&finished, 1)
			return nil
		})

		<-started
		p.Stop()

		if atomic.LoadInt32(&finished) != 1 {
			t.Fatal("expected Stop to wait for the running task")
		}
	})
}
