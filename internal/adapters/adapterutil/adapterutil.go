// Package adapterutil holds the result-assembly helpers shared by every
// backend adapter: base metrics, failure folding, and success finalization.
package adapterutil

import (
	"encoding/base64"
	"net/http"

	"github.com/mpre5ley/tts-eval-platform/internal/audioinfo"
	"github.com/mpre5ley/tts-eval-platform/internal/models"
	"github.com/mpre5ley/tts-eval-platform/internal/textstat"
)

// BaseMetrics seeds a metrics record with the text statistics and streaming
// flag before any network activity.
func BaseMetrics(req models.SynthesisRequest) models.Metrics {
	chars, words := textstat.Analyze(req.Text)
	return models.Metrics{
		CharCount:   chars,
		WordCount:   words,
		IsStreaming: req.Streaming,
	}
}

// Failure folds an error into a result. Whatever raw timing was captured
// before the failure stays on the record for diagnostics.
func Failure(req models.SynthesisRequest, m models.Metrics, msg string, status int) models.SynthesisResult {
	m.Derive()
	return models.SynthesisResult{
		Success:      false,
		Provider:     req.Provider,
		VoiceID:      req.VoiceID,
		ModelID:      req.Options.ModelID,
		ErrorMessage: msg,
		StatusCode:   status,
		Metrics:      m,
	}
}

// Success finalizes a successful attempt: audio size, duration estimate,
// derivation, and the base64 payload encoding.
func Success(req models.SynthesisRequest, m models.Metrics, audio []byte, format string, headers map[string]string) models.SynthesisResult {
	if m.AudioSizeBytes == nil && len(audio) > 0 {
		m.AudioSizeBytes = models.Int64Ptr(int64(len(audio)))
	}
	m.AudioFormat = format
	m.AudioDurationSec = audioinfo.Duration(audio, format)
	m.Derive()

	return models.SynthesisResult{
		Success:     true,
		Provider:    req.Provider,
		VoiceID:     req.VoiceID,
		ModelID:     req.Options.ModelID,
		Audio:       audio,
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
		Metrics:     m,
		Headers:     headers,
	}
}

// Headers flattens an http.Header into a single-value map.
func Headers(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for name := range h {
		out[name] = h.Get(name)
	}
	return out
}
