package providers

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const MockGeneratorName = "mock"

// MockGenerator is a Generator for testing.
type MockGenerator struct {
	// Configurable behavior
	Latency    time.Duration
	ShouldFail bool
	FailAfter  int // Fail after N requests (0 = never)
	Image      []byte

	// Rate limiting
	RPM        int
	Retries    int
	RetryDelay time.Duration

	// State
	requestCount atomic.Int64
}

// NewMockGenerator creates a mock generator with sensible defaults. The
// default payload is a PNG-sniffable buffer large enough to pass the
// store's minimum payload check.
func NewMockGenerator() *MockGenerator {
	img := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, bytes.Repeat([]byte{0x42}, 504)...)
	return &MockGenerator{
		Latency:    5 * time.Millisecond,
		Image:      img,
		RPM:        600,
		Retries:    3,
		RetryDelay: time.Second,
	}
}

// Name returns the generator identifier.
func (g *MockGenerator) Name() string {
	return MockGeneratorName
}

// RequestsPerMinute returns the RPM limit for rate limiting.
func (g *MockGenerator) RequestsPerMinute() int {
	return g.RPM
}

// MaxRetries returns the maximum retry attempts.
func (g *MockGenerator) MaxRetries() int {
	return g.Retries
}

// RetryDelayBase returns the base delay between retries.
func (g *MockGenerator) RetryDelayBase() time.Duration {
	return g.RetryDelay
}

// Generate produces a mock image.
func (g *MockGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()
	count := g.requestCount.Add(1)

	if g.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.Latency):
		}
	}

	if g.ShouldFail || (g.FailAfter > 0 && count > int64(g.FailAfter)) {
		return nil, fmt.Errorf("mock generator failure (request %d)", count)
	}

	return &GenerateResult{
		Image:         g.Image,
		Provider:      MockGeneratorName,
		ModelUsed:     "mock-image-1",
		ExecutionTime: time.Since(start),
		Attempts:      1,
		RequestID:     req.RequestID,
	}, nil
}

// RequestCount returns how many requests the mock has served.
func (g *MockGenerator) RequestCount() int64 {
	return g.requestCount.Load()
}
