package demosim

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/mpre5ley/tts-eval-platform/internal/models"
)

func testProfile() Profile {
	return Profile{
		Provider:             "elevenlabs",
		Format:               "wav",
		SampleRate:           44100,
		TTFBBaseMs:           50,
		TTFBSpreadMs:         100,
		TTFAExtraBaseMs:      20,
		TTFAExtraSpreadMs:    50,
		TotalPerCharBaseMs:   2,
		TotalPerCharSpreadMs: 1,
		SecPerChar:           0.06,
		BytesPerChar:         150,
	}
}

func TestSimulateStructure(t *testing.T) {
	restore := sleep
	sleep = func(time.Duration) {}
	defer func() { sleep = restore }()

	req := models.SynthesisRequest{Text: "hello world", Provider: "elevenlabs", VoiceID: "v1"}
	res := Simulate(testProfile(), req, rand.New(rand.NewSource(1)))

	if !res.Success {
		t.Fatal("simulated result must be successful")
	}
	if res.ErrorMessage != "" {
		t.Fatalf("error message must stay empty on success, got %q", res.ErrorMessage)
	}
	if res.Notice == "" {
		t.Fatal("simulated result must carry an informational notice")
	}
	if len(res.Audio) == 0 || res.AudioBase64 == "" {
		t.Fatal("simulated result must carry a non-empty audio payload")
	}
	if string(res.Audio[0:4]) != "RIFF" {
		t.Fatal("simulated payload must be a valid container")
	}

	m := res.Metrics
	if m.CharCount != 11 || m.WordCount != 2 {
		t.Fatalf("text stats = (%d, %d), want (11, 2)", m.CharCount, m.WordCount)
	}
	if m.TTFBMs == nil || m.TTFAMs == nil || m.TotalTimeMs == nil ||
		m.AudioDurationSec == nil || m.AudioSizeBytes == nil || m.AudioFormat == "" {
		t.Fatalf("required raw fields missing: %+v", m)
	}
	if *m.TTFBMs < 50 || *m.TTFBMs >= 150 {
		t.Errorf("ttfb %v outside declared range [50, 150)", *m.TTFBMs)
	}
	if *m.TTFAMs < *m.TTFBMs+20 {
		t.Errorf("ttfa %v must exceed ttfb %v by at least the extra base", *m.TTFAMs, *m.TTFBMs)
	}
	perChar := (*m.TotalTimeMs - *m.TTFAMs) / float64(m.CharCount)
	if perChar < 2 || perChar >= 3 {
		t.Errorf("per-char total addend %v outside declared range [2, 3)", perChar)
	}
	if m.CharsPerSecond == nil || m.RealtimeFactor == nil {
		t.Error("derivation must run on the simulated record")
	}
}

func TestSimulateTotalScalesWithTextLength(t *testing.T) {
	restore := sleep
	sleep = func(time.Duration) {}
	defer func() { sleep = restore }()

	short := Simulate(testProfile(), models.SynthesisRequest{Text: "hi", VoiceID: "v1"}, rand.New(rand.NewSource(3)))
	long := Simulate(testProfile(), models.SynthesisRequest{Text: strings.Repeat("a", 2000), VoiceID: "v1"}, rand.New(rand.NewSource(3)))

	shortTotal := *short.Metrics.TotalTimeMs
	longTotal := *long.Metrics.TotalTimeMs
	if longTotal <= shortTotal {
		t.Fatalf("total time must grow with text length: short=%v long=%v", shortTotal, longTotal)
	}
	// 2000 chars at >= 2 ms each dominate any latency draw.
	if longTotal-*long.Metrics.TTFAMs < 4000 {
		t.Errorf("long-text total %v lacks the per-character component", longTotal)
	}
}

func TestSimulateDeterministicWithSeed(t *testing.T) {
	restore := sleep
	sleep = func(time.Duration) {}
	defer func() { sleep = restore }()

	req := models.SynthesisRequest{Text: "deterministic", Provider: "elevenlabs", VoiceID: "v1"}

	a := Simulate(testProfile(), req, rand.New(rand.NewSource(7)))
	b := Simulate(testProfile(), req, rand.New(rand.NewSource(7)))

	if *a.Metrics.TTFBMs != *b.Metrics.TTFBMs || *a.Metrics.TotalTimeMs != *b.Metrics.TotalTimeMs {
		t.Fatal("same seed must yield identical simulated timings")
	}
}
