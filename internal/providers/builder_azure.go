package providers

import (
	"context"

	"github.com/mpre5ley/tts-eval-platform/internal/adapters/azure"
	"github.com/mpre5ley/tts-eval-platform/internal/config"
)

func init() {
	RegisterDefinition(Definition{
		Name:        "azure",
		Description: "Azure Cognitive Services Speech (batch only, streaming approximated)",
		Builder:     buildAzure,
	})
}

func buildAzure(ctx context.Context, cfg *config.Config) (Adapter, error) {
	cfg = EnsureConfig(cfg)
	return azure.New(azure.Options{
		SubscriptionKey: cfg.Providers.AzureSpeechKey,
		Region:          cfg.Providers.AzureSpeechRegion,
		Timeout:         cfg.Synthesis.RequestTimeout,
	}), nil
}
