package providers

import (
	"context"

	"github.com/mpre5ley/tts-eval-platform/internal/adapters/openaitts"
	"github.com/mpre5ley/tts-eval-platform/internal/config"
)

func init() {
	RegisterDefinition(Definition{
		Name:        "openai",
		Description: "OpenAI speech API (incremental body reads)",
		Streaming:   true,
		Builder:     buildOpenAI,
	})
}

func buildOpenAI(ctx context.Context, cfg *config.Config) (Adapter, error) {
	cfg = EnsureConfig(cfg)
	return openaitts.New(openaitts.Options{
		APIKey:     cfg.Providers.OpenAIKey,
		Timeout:    cfg.Synthesis.RequestTimeout,
		ChunkBytes: cfg.Synthesis.StreamChunkBytes,
	}), nil
}
