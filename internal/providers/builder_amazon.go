package providers

import (
	"context"

	"github.com/mpre5ley/tts-eval-platform/internal/adapters/polly"
	"github.com/mpre5ley/tts-eval-platform/internal/config"
)

func init() {
	RegisterDefinition(Definition{
		Name:        "amazon",
		Description: "Amazon Polly (generative engine, incremental audio stream)",
		Streaming:   true,
		Builder:     buildAmazon,
	})
}

func buildAmazon(ctx context.Context, cfg *config.Config) (Adapter, error) {
	cfg = EnsureConfig(cfg)
	return polly.New(ctx, polly.Options{
		AccessKeyID:     cfg.Providers.AWSAccessKeyID,
		SecretAccessKey: cfg.Providers.AWSSecretAccessKey,
		Region:          cfg.Providers.AWSRegion,
		ChunkBytes:      cfg.Synthesis.StreamChunkBytes,
	})
}
