// Package providers contains image generation provider clients.
//
// The store and HTTP layers treat generation as an external collaborator: a
// Generator takes an assembled prompt plus optional reference images and
// returns one image payload. Everything else (prompt language, model
// behavior) is the provider's business.
package providers

import (
	"context"
	"time"
)

// Generator is the interface all image generation providers implement.
type Generator interface {
	// Name returns the provider identifier (e.g. "openai").
	Name() string

	// Generate produces one image for the given request.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// Rate limiting properties
	RequestsPerMinute() int
	MaxRetries() int
	RetryDelayBase() time.Duration
}

// GenerateRequest is a request to an image generation provider.
type GenerateRequest struct {
	// Prompt is the fully assembled prompt text.
	Prompt string `json:"prompt"`

	// Size is the requested image size (e.g. "1024x1024"). Provider
	// default if empty.
	Size string `json:"size,omitempty"`

	// ReferenceImages are optional guidance images. Providers that do not
	// support them return ErrReferenceImagesUnsupported.
	ReferenceImages [][]byte `json:"-"`

	// RequestID is used for log correlation.
	RequestID string `json:"-"`
}

// GenerateResult is the response from an image generation call.
type GenerateResult struct {
	// Image is the raw image payload.
	Image []byte `json:"-"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	// Timing and retries
	ExecutionTime time.Duration `json:"execution_time"`
	Attempts      int           `json:"attempts"`

	// RequestID echoes the request id.
	RequestID string `json:"request_id"`
}
