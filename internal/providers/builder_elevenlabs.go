package providers

import (
	"context"

	"github.com/mpre5ley/tts-eval-platform/internal/adapters/elevenlabs"
	"github.com/mpre5ley/tts-eval-platform/internal/config"
)

func init() {
	RegisterDefinition(Definition{
		Name:        "elevenlabs",
		Description: "ElevenLabs text-to-speech (native streaming endpoint)",
		Streaming:   true,
		Builder:     buildElevenLabs,
	})
}

func buildElevenLabs(ctx context.Context, cfg *config.Config) (Adapter, error) {
	cfg = EnsureConfig(cfg)
	return elevenlabs.New(elevenlabs.Options{
		APIKey:     cfg.Providers.ElevenLabsKey,
		Timeout:    cfg.Synthesis.RequestTimeout,
		ChunkBytes: cfg.Synthesis.StreamChunkBytes,
	}), nil
}
