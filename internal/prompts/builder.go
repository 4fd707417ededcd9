package prompts

import (
	"embed"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	// GenericStyle is used when a frame names no style or an unknown one.
	GenericStyle = "generic"

	// StyleParam is the frame parameter that selects the template.
	StyleParam = "style"
)

// Builder renders frame parameters into prompt text using registered
// style templates.
type Builder struct {
	mu     sync.RWMutex
	styles map[string]Style
	logger *slog.Logger
}

// NewBuilder creates a builder preloaded with the embedded styles.
func NewBuilder(logger *slog.Logger) (*Builder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Builder{
		styles: make(map[string]Style),
		logger: logger,
	}

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("reading embedded templates: %w", err)
	}
	for _, entry := range entries {
		data, err := templateFS.ReadFile(path.Join("templates", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading embedded template %s: %w", entry.Name(), err)
		}
		key := strings.TrimSuffix(entry.Name(), ".tmpl")
		b.Register(Style{
			Key:  key,
			Text: string(data),
		})
	}

	if _, ok := b.styles[GenericStyle]; !ok {
		return nil, fmt.Errorf("embedded templates missing %q style", GenericStyle)
	}
	return b, nil
}

// Register adds or replaces a style. Hash and variable extraction are
// filled in when the caller leaves them empty.
func (b *Builder) Register(s Style) {
	if s.Hash == "" {
		s.Hash = HashText(s.Text)
	}
	if s.Variables == nil {
		s.Variables = ExtractVariables(s.Text)
	}

	b.mu.Lock()
	b.styles[s.Key] = s
	b.mu.Unlock()
	b.logger.Debug("registered prompt style", "key", s.Key, "vars", s.Variables)
}

// Get returns a registered style by key.
func (b *Builder) Get(key string) (Style, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.styles[key]
	return s, ok
}

// List returns all registered styles sorted by key.
func (b *Builder) List() []Style {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]Style, 0, len(b.styles))
	for _, s := range b.styles {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// Build renders the style selected by params[StyleParam] against the
// full parameter bag. Unknown styles fall back to the generic template.
// Parameters the template does not reference are appended verbatim so
// user direction never disappears.
func (b *Builder) Build(params map[string]any) (*BuiltPrompt, error) {
	requested := stringValue(params[StyleParam])
	if requested == "" {
		requested = GenericStyle
	}

	style, ok := b.Get(requested)
	fallback := false
	if !ok {
		b.logger.Warn("unknown prompt style, using generic", "style", requested)
		style, ok = b.Get(GenericStyle)
		if !ok {
			return nil, fmt.Errorf("prompt style not found: %s", requested)
		}
		fallback = true
	}

	data := make(map[string]any, len(params))
	for k, v := range params {
		if k == StyleParam {
			continue
		}
		data[k] = stringValue(v)
	}
	// Referenced-but-absent variables render as empty strings instead
	// of "<no value>".
	for _, v := range style.Variables {
		if _, present := data[v]; !present {
			data[v] = ""
		}
	}

	tmpl, err := template.New(style.Key).Parse(style.Text)
	if err != nil {
		return nil, fmt.Errorf("parsing style %s: %w", style.Key, err)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering style %s: %w", style.Key, err)
	}

	text := strings.TrimSpace(buf.String())
	if extras := leftoverParams(params, style.Variables); extras != "" {
		text += "\nAdditional direction: " + extras + "."
	}

	return &BuiltPrompt{
		Style:     style.Key,
		Text:      text,
		Variables: style.Variables,
		Fallback:  fallback,
	}, nil
}

// leftoverParams formats params the template never references, sorted by
// key for stable output.
func leftoverParams(params map[string]any, consumed []string) string {
	used := make(map[string]bool, len(consumed)+1)
	used[StyleParam] = true
	for _, v := range consumed {
		used[v] = true
	}

	var keys []string
	for k := range params {
		if !used[k] && stringValue(params[k]) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, stringValue(params[k])))
	}
	return strings.Join(parts, ", ")
}

// stringValue renders a params value for prompt text. JSON numbers come
// through as float64; whole values print without the decimal point.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
