package store

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestWriteQueueOrdering(t *testing.T) {
	q := newWriteQueue(64)
	defer q.close()

	var mu sync.Mutex
	var order []int

	ctx := context.Background()

	// Submit from a single goroutine: execution must match submission order.
	for i := 0; i < 50; i++ {
		i := i
		if err := q.submit(ctx, func() error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("submit() error = %v", err)
		}
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestWriteQueuePropagatesErrors(t *testing.T) {
	q := newWriteQueue(4)
	defer q.close()

	sentinel := errors.New("boom")
	err := q.submit(context.Background(), func() error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("submit() = %v, want %v", err, sentinel)
	}
}

func TestWriteQueueClose(t *testing.T) {
	q := newWriteQueue(4)
	q.close()

	if err := q.submit(context.Background(), func() error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("submit() after close = %v, want ErrClosed", err)
	}

	// close is safe to call twice.
	q.close()
}

func TestWriteQueueCancelledContext(t *testing.T) {
	q := newWriteQueue(1)
	defer q.close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		q.submit(context.Background(), func() error { <-release; return nil })
		close(done)
	}()

	// Fill the buffer so the cancelled submit has to wait for space.
	go q.submit(context.Background(), func() error { return nil })

	err := q.submit(ctx, func() error { return nil })
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("submit() = %v, want nil or context.Canceled", err)
	}

	close(release)
	<-done
}
