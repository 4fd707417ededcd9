package providers

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterTryConsume(t *testing.T) {
	r := NewRateLimiter(2)

	if !r.TryConsume() {
		t.Error("first TryConsume() = false, want true")
	}
	if !r.TryConsume() {
		t.Error("second TryConsume() = false, want true")
	}
	if r.TryConsume() {
		t.Error("third TryConsume() = true, want false (bucket drained)")
	}

	status := r.Status()
	if status.TokensLimit != 2 {
		t.Errorf("TokensLimit = %d, want 2", status.TokensLimit)
	}
	if status.TotalConsumed != 2 {
		t.Errorf("TotalConsumed = %d, want 2", status.TotalConsumed)
	}
}

func TestRateLimiterWaitRespectsContext(t *testing.T) {
	r := NewRateLimiter(1)
	if !r.TryConsume() {
		t.Fatal("could not drain bucket")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Wait(ctx)
	if err == nil {
		t.Error("Wait() on drained bucket with short context should error")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	// 6000 RPM = 100 tokens/sec, so a drained bucket refills quickly.
	r := NewRateLimiter(6000)
	for r.TryConsume() {
	}

	time.Sleep(50 * time.Millisecond)
	if !r.TryConsume() {
		t.Error("TryConsume() = false after refill window")
	}
}

func TestRateLimiterDefault(t *testing.T) {
	r := NewRateLimiter(0)
	if r.Status().TokensLimit <= 0 {
		t.Error("default limit not applied")
	}
}
