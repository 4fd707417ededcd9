package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIGeneratorName       = "openai"
	openAIDefaultImageModel   = openai.ImageModelGPTImage1
	openAIDefaultImageSize    = "1024x1024"
	openAIDefaultImageTimeout = 300 * time.Second
)

// ErrReferenceImagesUnsupported is returned by generators that cannot take
// guidance images.
var ErrReferenceImagesUnsupported = errors.New("reference images not supported by this provider")

// OpenAIConfig holds configuration for the OpenAI image generator.
type OpenAIConfig struct {
	Name       string
	APIKey     string
	Model      string        // "gpt-image-1" (default) or "dall-e-3"
	Size       string        // "1024x1024" (default)
	RateLimit  int           // Requests per minute
	MaxRetries int           // Retry attempts around the API call
	RetryDelay time.Duration // Base retry delay
	Timeout    time.Duration // HTTP timeout
	BaseURL    string        // Optional (tests)
	HTTPClient *http.Client  // Optional (tests)
}

// OpenAIGenerator implements Generator using the official OpenAI SDK.
type OpenAIGenerator struct {
	name       string
	model      string
	size       string
	rateLimit  int
	maxRetries int
	retryDelay time.Duration
	client     openai.Client
}

// NewOpenAIGenerator creates a new OpenAI image generator.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	if cfg.Name == "" {
		cfg.Name = OpenAIGeneratorName
	}
	if cfg.Model == "" {
		cfg.Model = openAIDefaultImageModel
	}
	if cfg.Size == "" {
		cfg.Size = openAIDefaultImageSize
	}
	if cfg.RateLimit <= 0 {
		// Image endpoints are slow; keep the default conservative.
		cfg.RateLimit = 30
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = openAIDefaultImageTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIGenerator{
		name:       cfg.Name,
		model:      cfg.Model,
		size:       cfg.Size,
		rateLimit:  cfg.RateLimit,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		client:     openai.NewClient(opts...),
	}
}

// Name returns the generator identifier.
func (g *OpenAIGenerator) Name() string {
	return g.name
}

// RequestsPerMinute returns the RPM limit for rate limiting.
func (g *OpenAIGenerator) RequestsPerMinute() int {
	return g.rateLimit
}

// MaxRetries returns the maximum retry attempts.
func (g *OpenAIGenerator) MaxRetries() int {
	return g.maxRetries
}

// RetryDelayBase returns the base delay between retries.
func (g *OpenAIGenerator) RetryDelayBase() time.Duration {
	return g.retryDelay
}

// Generate produces one image via the Images API. The response is always
// requested as base64 so the payload comes back inline rather than as a
// short-lived URL.
func (g *OpenAIGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	if len(req.ReferenceImages) > 0 {
		return nil, ErrReferenceImagesUnsupported
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("empty prompt")
	}

	size := req.Size
	if size == "" {
		size = g.size
	}

	params := openai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  openai.ImageModel(g.model),
		Size:   openai.ImageGenerateParamsSize(size),
		N:      openai.Int(1),
	}
	// gpt-image-1 always returns base64 and rejects response_format;
	// dall-e models default to URLs unless asked.
	if strings.HasPrefix(g.model, "dall-e") {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}

	start := time.Now()
	attempts := 0

	var image []byte
	err := retry.Do(
		func() error {
			attempts++
			resp, err := g.client.Images.Generate(ctx, params)
			if err != nil {
				return err
			}
			if len(resp.Data) == 0 {
				return fmt.Errorf("empty image response")
			}
			decoded, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
			if err != nil {
				return fmt.Errorf("decode image payload: %w", err)
			}
			image = decoded
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(g.maxRetries)),
		retry.Delay(g.retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("openai image generation: %w", err)
	}

	return &GenerateResult{
		Image:         image,
		Provider:      g.name,
		ModelUsed:     g.model,
		ExecutionTime: time.Since(start),
		Attempts:      attempts,
		RequestID:     req.RequestID,
	}, nil
}
