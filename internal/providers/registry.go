package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds references to image generation providers.
// It supports config-driven instantiation, hot-reload, and thread-safe access.
// Each generator gets a token-bucket limiter sized from its RPM setting.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
	limiters   map[string]*RateLimiter
	logger     *slog.Logger
}

// GeneratorConfig configures a single provider instance.
type GeneratorConfig struct {
	Type      string  // "openai" or "mock"
	Model     string  // provider-specific model name
	APIKey    string  // resolved API key (env refs already expanded)
	BaseURL   string  // optional override, used by tests
	Size      string  // default image size
	RateLimit int     // requests per minute
	Enabled   bool
}

// RegistryConfig is the full provider configuration.
type RegistryConfig struct {
	Generators map[string]GeneratorConfig
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
		limiters:   make(map[string]*RateLimiter),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register adds a generator by name.
func (r *Registry) Register(name string, g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[name] = g
	r.limiters[name] = NewRateLimiter(g.RequestsPerMinute())
	r.logger.Info("registered generator", "name", name)
}

// Unregister removes a generator by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.generators, name)
	delete(r.limiters, name)
	r.logger.Info("unregistered generator", "name", name)
}

// Acquire blocks until the named generator's rate limit admits a request
// or the context is cancelled.
func (r *Registry) Acquire(ctx context.Context, name string) error {
	r.mu.RLock()
	limiter, ok := r.limiters[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("generator not found: %s", name)
	}
	return limiter.Wait(ctx)
}

// Get returns a generator by name.
func (r *Registry) Get(name string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("generator not found: %s", name)
	}
	return g, nil
}

// Has checks if a generator is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.generators[name]
	return ok
}

// List returns all registered generator names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reload replaces the registered generators from config. Disabled or
// unknown-type entries are skipped with a log line; existing generators
// not present in the new config are dropped.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]Generator, len(cfg.Generators))
	for name, gc := range cfg.Generators {
		if !gc.Enabled {
			continue
		}
		switch gc.Type {
		case "openai":
			next[name] = NewOpenAIGenerator(OpenAIConfig{
				Name:      name,
				APIKey:    gc.APIKey,
				Model:     gc.Model,
				Size:      gc.Size,
				BaseURL:   gc.BaseURL,
				RateLimit: gc.RateLimit,
			})
		case "mock":
			next[name] = NewMockGenerator()
		default:
			r.logger.Warn("unknown generator type, skipping", "name", name, "type", gc.Type)
			continue
		}
		r.logger.Info("configured generator", "name", name, "type", gc.Type)
	}

	limiters := make(map[string]*RateLimiter, len(next))
	for name, g := range next {
		limiters[name] = NewRateLimiter(g.RequestsPerMinute())
	}
	r.generators = next
	r.limiters = limiters
}
