package providers

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistryReload(t *testing.T) {
	r := NewRegistry()
	r.SetLogger(quietLogger())

	r.Reload(RegistryConfig{Generators: map[string]GeneratorConfig{
		"studio": {Type: "mock", Enabled: true},
		"paused": {Type: "mock", Enabled: false},
		"weird":  {Type: "quantum", Enabled: true},
	}})

	if !r.Has("studio") {
		t.Error("enabled generator not registered")
	}
	if r.Has("paused") {
		t.Error("disabled generator registered")
	}
	if r.Has("weird") {
		t.Error("unknown-type generator registered")
	}

	names := r.List()
	if len(names) != 1 || names[0] != "studio" {
		t.Errorf("List() = %v, want [studio]", names)
	}

	t.Run("reload_drops_stale_entries", func(t *testing.T) {
		r.Reload(RegistryConfig{Generators: map[string]GeneratorConfig{
			"replacement": {Type: "mock", Enabled: true},
		}})
		if r.Has("studio") {
			t.Error("stale generator survived reload")
		}
		if !r.Has("replacement") {
			t.Error("new generator missing after reload")
		}
	})
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	r.SetLogger(quietLogger())

	if _, err := r.Get("nope"); err == nil {
		t.Error("Get() on missing generator should error")
	}

	mock := NewMockGenerator()
	r.Register("m", mock)
	g, err := r.Get("m")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if g.Name() != MockGeneratorName {
		t.Errorf("Name() = %q, want %q", g.Name(), MockGeneratorName)
	}

	r.Unregister("m")
	if r.Has("m") {
		t.Error("generator still present after Unregister")
	}
}

func TestRegistryAcquire(t *testing.T) {
	r := NewRegistry()
	r.SetLogger(quietLogger())
	r.Register("m", NewMockGenerator())

	// Mock allows 600 rpm, so a handful of acquires never block.
	for i := 0; i < 3; i++ {
		if err := r.Acquire(context.Background(), "m"); err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
	}

	if err := r.Acquire(context.Background(), "nope"); err == nil {
		t.Error("Acquire() on missing generator should error")
	}

	t.Run("unregister_drops_limiter", func(t *testing.T) {
		r.Unregister("m")
		if err := r.Acquire(context.Background(), "m"); err == nil {
			t.Error("Acquire() after Unregister should error")
		}
	})
}

func TestMockGenerator(t *testing.T) {
	g := NewMockGenerator()

	res, err := g.Generate(context.Background(), &GenerateRequest{Prompt: "a red chair", RequestID: "req-1"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(res.Image) < 100 {
		t.Errorf("image payload = %d bytes, want at least 100", len(res.Image))
	}
	if res.RequestID != "req-1" {
		t.Errorf("RequestID = %q, want req-1", res.RequestID)
	}
	if res.Provider != MockGeneratorName {
		t.Errorf("Provider = %q, want %q", res.Provider, MockGeneratorName)
	}

	t.Run("fail_after", func(t *testing.T) {
		g := NewMockGenerator()
		g.FailAfter = 1
		if _, err := g.Generate(context.Background(), &GenerateRequest{Prompt: "p"}); err != nil {
			t.Fatalf("first Generate() error = %v", err)
		}
		if _, err := g.Generate(context.Background(), &GenerateRequest{Prompt: "p"}); err == nil {
			t.Error("second Generate() should fail with FailAfter=1")
		}
	})
}
