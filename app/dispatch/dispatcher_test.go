package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRunDrainsTasksSerially(t *testing.T) {
	d := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	order := make([]int, 0, 3)
	done := make(chan struct{})

	for i := 1; i <= 3; i++ {
		n := i
		if err := d.Submit(func(context.Context) {
			mu.Lock()
			order = append(order, n)
			finished := len(order) == 3
			mu.Unlock()
			if finished {
				close(done)
			}
		}); err != nil {
			t.Fatalf("submit %d failed: %v", n, err)
		}
	}

	go d.Run(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks were not drained")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, n := range order {
		if n != i+1 {
			t.Fatalf("tasks ran out of order: %v", order)
		}
	}
}

func TestSubmitAfterCloseIsRejected(t *testing.T) {
	d := New(8)
	d.Close()
	d.Close() // idempotent

	err := d.Submit(func(context.Context) {})
	if err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSubmitRejectsWhenQueueFull(t *testing.T) {
	d := New(1)
	if err := d.Submit(func(context.Context) {}); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if err := d.Submit(func(context.Context) {}); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestPanickingTaskDoesNotStopDrainLoop(t *testing.T) {
	d := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	if err := d.Submit(func(context.Context) { panic("delivery exploded") }); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := d.Submit(func(context.Context) { close(done) }); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	go d.Run(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drain loop did not survive a panicking task")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	d := New(8)
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
