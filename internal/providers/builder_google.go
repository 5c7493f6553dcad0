package providers

import (
	"context"

	"github.com/mpre5ley/tts-eval-platform/internal/adapters/google"
	"github.com/mpre5ley/tts-eval-platform/internal/config"
)

func init() {
	RegisterDefinition(Definition{
		Name:        "google",
		Description: "Google Cloud Text-to-Speech (batch only, streaming approximated)",
		Builder:     buildGoogle,
	})
}

func buildGoogle(ctx context.Context, cfg *config.Config) (Adapter, error) {
	cfg = EnsureConfig(cfg)
	return google.New(google.Options{
		APIKey:  cfg.Providers.GoogleAPIKey,
		Timeout: cfg.Synthesis.RequestTimeout,
	}), nil
}
