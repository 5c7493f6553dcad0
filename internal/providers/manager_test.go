package providers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mpre5ley/tts-eval-platform/internal/config"
	"github.com/mpre5ley/tts-eval-platform/internal/models"
)

type fakeAdapter struct {
	name     string
	synth    int
	stream   int
	voices   []models.Voice
	voiceErr error
}

func (f *fakeAdapter) Synthesize(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult {
	f.synth++
	return models.SynthesisResult{Success: true, Provider: f.name, VoiceID: req.VoiceID}
}

func (f *fakeAdapter) SynthesizeStream(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult {
	f.stream++
	return models.SynthesisResult{Success: true, Provider: f.name, VoiceID: req.VoiceID, Metrics: models.Metrics{IsStreaming: true}}
}

func (f *fakeAdapter) Voices(ctx context.Context) ([]models.Voice, error) {
	return f.voices, f.voiceErr
}

func testConfig() *config.Config {
	return &config.Config{
		Synthesis: config.SynthesisConfig{
			MaxTextLength:    5000,
			RequestTimeout:   time.Minute,
			StreamChunkBytes: 1024,
		},
	}
}

func TestManagerCachesInstances(t *testing.T) {
	m := NewManager(testConfig())

	builds := 0
	m.Register("fake", func(ctx context.Context, cfg *config.Config) (Adapter, error) {
		builds++
		return &fakeAdapter{name: "fake"}, nil
	})

	ctx := context.Background()
	first, err := m.Resolve(ctx, "fake")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := m.Resolve(ctx, "fake")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if builds != 1 {
		t.Fatalf("builder ran %d times, want 1", builds)
	}
	if first != second {
		t.Fatal("repeated resolution must return the same cached instance")
	}
}

func TestDispatchUnknownBackend(t *testing.T) {
	m := NewManager(testConfig())

	res := m.Dispatch(context.Background(), models.SynthesisRequest{
		Text:     "hi",
		Provider: "not_a_real_backend",
		VoiceID:  "v1",
	})

	if res.Success {
		t.Fatal("unknown backend must yield a failure result")
	}
	if !strings.Contains(res.ErrorMessage, "not_a_real_backend") {
		t.Fatalf("error message should reference the unknown identifier, got %q", res.ErrorMessage)
	}
	if res.Metrics.CharCount != 2 {
		t.Errorf("char count = %d, want 2", res.Metrics.CharCount)
	}
}

func TestDispatchRoutesByStreamingFlag(t *testing.T) {
	m := NewManager(testConfig())
	fake := &fakeAdapter{name: "fake"}
	m.Register("fake", func(ctx context.Context, cfg *config.Config) (Adapter, error) {
		return fake, nil
	})

	ctx := context.Background()
	m.Dispatch(ctx, models.SynthesisRequest{Text: "a", Provider: "fake"})
	m.Dispatch(ctx, models.SynthesisRequest{Text: "a", Provider: "fake", Streaming: true})

	if fake.synth != 1 || fake.stream != 1 {
		t.Fatalf("calls = (%d batch, %d stream), want (1, 1)", fake.synth, fake.stream)
	}
}

func TestDispatchManyOrderAndIsolation(t *testing.T) {
	m := NewManager(testConfig())
	m.Register("first", func(ctx context.Context, cfg *config.Config) (Adapter, error) {
		return &fakeAdapter{name: "first"}, nil
	})
	m.Register("third", func(ctx context.Context, cfg *config.Config) (Adapter, error) {
		return &fakeAdapter{name: "third"}, nil
	})

	results := m.DispatchMany(context.Background(), "hello", []models.ProviderConfig{
		{Provider: "first", VoiceID: "a"},
		{Provider: "missing", VoiceID: "b"},
		{Provider: "third", VoiceID: "c"},
	}, false)

	if len(results) != 3 {
		t.Fatalf("result count = %d, want 3", len(results))
	}
	if !results[0].Success || results[0].Provider != "first" {
		t.Errorf("results[0] = %+v, want success from first", results[0])
	}
	if results[1].Success || !strings.Contains(results[1].ErrorMessage, "missing") {
		t.Errorf("results[1] must fail for the unknown backend: %+v", results[1])
	}
	if !results[2].Success || results[2].Provider != "third" {
		t.Errorf("results[2] = %+v, want success from third", results[2])
	}
}

func TestVoicesFallsBackToStaticCatalog(t *testing.T) {
	m := NewManager(testConfig())
	m.Register("elevenlabs", func(ctx context.Context, cfg *config.Config) (Adapter, error) {
		return &fakeAdapter{name: "elevenlabs", voiceErr: context.DeadlineExceeded}, nil
	})

	voices := m.Voices(context.Background(), "elevenlabs")
	if len(voices) == 0 {
		t.Fatal("live fetch failure must fall back to the static catalog")
	}

	if got := m.Voices(context.Background(), "unregistered"); len(got) != 0 {
		t.Fatalf("unregistered backend without fallback must yield empty, got %d", len(got))
	}
}

func TestDefaultDefinitionsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, def := range DefaultDefinitions() {
		names[def.Name] = true
	}
	for _, want := range []string{"elevenlabs", "google", "azure", "amazon", "openai"} {
		if !names[want] {
			t.Errorf("backend %q not registered", want)
		}
	}
}
