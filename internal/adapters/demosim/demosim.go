// Package demosim produces structurally valid synthesis results for adapters
// running without credentials. Every value range is calibrated per vendor so
// simulated latency profiles stay distinguishable in comparisons.
package demosim

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"time"

	"github.com/mpre5ley/tts-eval-platform/internal/audioinfo"
	"github.com/mpre5ley/tts-eval-platform/internal/models"
	"github.com/mpre5ley/tts-eval-platform/internal/textstat"
)

// Profile holds one vendor's simulation constants.
type Profile struct {
	Provider string
	Format   string
	// SampleRate and Bitrate are reported on the simulated metrics record.
	SampleRate int
	Bitrate    int
	// TTFB is drawn uniformly from [TTFBBaseMs, TTFBBaseMs+TTFBSpreadMs).
	TTFBBaseMs   float64
	TTFBSpreadMs float64
	// TTFA adds a further uniform delay on top of TTFB.
	TTFAExtraBaseMs   float64
	TTFAExtraSpreadMs float64
	// Total time is TTFA plus a per-character addend drawn uniformly from
	// [TotalPerCharBaseMs, TotalPerCharBaseMs+TotalPerCharSpreadMs).
	TotalPerCharBaseMs   float64
	TotalPerCharSpreadMs float64
	// Simulated audio properties scale linearly with text length.
	SecPerChar   float64
	BytesPerChar int
}

// Audio payload length per character of input, seconds of silence.
const payloadSecPerChar = 0.05

// Sleep injection point so tests can run without the artificial delay.
var sleep = time.Sleep

// Simulate returns a successful simulated result for req. Randomness comes
// from rng so tests can seed it; the structural invariants hold for any seed.
func Simulate(p Profile, req models.SynthesisRequest, rng *rand.Rand) models.SynthesisResult {
	chars, words := textstat.Analyze(req.Text)

	// Mimic network latency.
	sleep(time.Duration(100+rng.Float64()*200) * time.Millisecond)

	ttfb := p.TTFBBaseMs + rng.Float64()*p.TTFBSpreadMs
	ttfa := ttfb + p.TTFAExtraBaseMs + rng.Float64()*p.TTFAExtraSpreadMs
	total := ttfa + float64(chars)*(p.TotalPerCharBaseMs+rng.Float64()*p.TotalPerCharSpreadMs)

	duration := float64(chars) * p.SecPerChar
	size := int64(chars * p.BytesPerChar)

	audio := audioinfo.SilentWAV(payloadSecPerChar * float64(chars))

	m := models.Metrics{
		TTFBMs:           &ttfb,
		TTFAMs:           &ttfa,
		TotalTimeMs:      &total,
		AudioDurationSec: &duration,
		AudioSizeBytes:   &size,
		AudioFormat:      p.Format,
		CharCount:        chars,
		WordCount:        words,
		IsStreaming:      req.Streaming,
	}
	if p.SampleRate > 0 {
		m.SampleRate = models.IntPtr(p.SampleRate)
	}
	if p.Bitrate > 0 {
		m.Bitrate = models.IntPtr(p.Bitrate)
	}
	m.Derive()

	return models.SynthesisResult{
		Success:     true,
		Provider:    p.Provider,
		VoiceID:     req.VoiceID,
		ModelID:     req.Options.ModelID,
		Audio:       audio,
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
		Metrics:     m,
		Notice:      fmt.Sprintf("%s credentials not configured; returning simulated metrics", p.Provider),
	}
}
