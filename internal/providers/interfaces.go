package providers

import (
	"context"

	"github.com/mpre5ley/tts-eval-platform/internal/models"
)

// Synthesizer performs one blocking batch synthesis call. It always returns a
// result, never an error: transport and vendor failures are folded into the
// result with Success=false.
type Synthesizer interface {
	Synthesize(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult
}

// StreamSynthesizer performs an incremental-read synthesis call, capturing
// per-chunk arrival timings. Backends without native incremental transport
// delegate to their batch path and leave the chunk fields empty.
type StreamSynthesizer interface {
	SynthesizeStream(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult
}

// VoiceLister fetches the backend's live voice catalog.
type VoiceLister interface {
	Voices(ctx context.Context) ([]models.Voice, error)
}

// Adapter is the full capability set every backend implements.
type Adapter interface {
	Synthesizer
	StreamSynthesizer
	VoiceLister
}
