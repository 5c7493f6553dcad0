package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/mpre5ley/tts-eval-platform/internal/catalog"
	"github.com/mpre5ley/tts-eval-platform/internal/config"
	"github.com/mpre5ley/tts-eval-platform/internal/models"
	"github.com/mpre5ley/tts-eval-platform/internal/textstat"
)

// Manager resolves backend identifiers to adapter instances and fans requests
// out to them. One adapter instance is built lazily per backend and reused
// for the process lifetime.
type Manager struct {
	cfg      *config.Config
	builders map[string]Builder

	mu        sync.Mutex
	instances map[string]Adapter
}

// NewManager creates a manager with the default backend registry.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		cfg:       EnsureConfig(cfg),
		builders:  cloneDefaultBuilders(),
		instances: make(map[string]Adapter),
	}
}

// Register overrides or adds a backend builder. Used by tests to inject fakes
// and drops any cached instance for that backend.
func (m *Manager) Register(name string, builder Builder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.builders == nil {
		m.builders = make(map[string]Builder)
	}
	m.builders[name] = builder
	delete(m.instances, name)
}

// Known reports whether a backend identifier is registered.
func (m *Manager) Known(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.builders[name]
	return ok
}

// Resolve returns the cached adapter for the backend, building it on first
// use. Repeated resolution returns the same instance.
func (m *Manager) Resolve(ctx context.Context, name string) (Adapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if inst, ok := m.instances[name]; ok {
		return inst, nil
	}
	builder, ok := m.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q", name)
	}
	inst, err := builder(ctx, m.cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize backend %q: %w", name, err)
	}
	m.instances[name] = inst
	return inst, nil
}

// Dispatch routes one request to its backend. An unrecognized backend yields
// a manufactured failure result; nothing is invoked in that case.
func (m *Manager) Dispatch(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult {
	adapter, err := m.Resolve(ctx, req.Provider)
	if err != nil {
		chars, words := textstat.Analyze(req.Text)
		return models.SynthesisResult{
			Success:      false,
			Provider:     req.Provider,
			VoiceID:      req.VoiceID,
			ErrorMessage: err.Error(),
			Metrics: models.Metrics{
				CharCount:   chars,
				WordCount:   words,
				IsStreaming: req.Streaming,
			},
		}
	}

	if req.Streaming {
		return adapter.SynthesizeStream(ctx, req)
	}
	return adapter.Synthesize(ctx, req)
}

// DispatchMany issues one call per config entry, strictly sequentially, and
// returns one result per entry index-for-index. A failed entry never aborts
// the remainder.
func (m *Manager) DispatchMany(ctx context.Context, text string, configs []models.ProviderConfig, streaming bool) []models.SynthesisResult {
	results := make([]models.SynthesisResult, 0, len(configs))
	for _, pc := range configs {
		results = append(results, m.Dispatch(ctx, models.SynthesisRequest{
			Text:      text,
			Provider:  pc.Provider,
			VoiceID:   pc.VoiceID,
			Streaming: streaming,
			Options:   pc.Options,
		}))
	}
	return results
}

// Voices returns the backend's voice catalog. Live fetch failures fall back
// to the static catalog; the caller never sees an error, only a possibly
// empty list.
func (m *Manager) Voices(ctx context.Context, name string) []models.Voice {
	adapter, err := m.Resolve(ctx, name)
	if err != nil {
		return catalog.Defaults(name)
	}
	voices, err := adapter.Voices(ctx)
	if err != nil || len(voices) == 0 {
		return catalog.Defaults(name)
	}
	return voices
}
