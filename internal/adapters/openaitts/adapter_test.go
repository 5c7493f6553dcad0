package openaitts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mpre5ley/tts-eval-platform/internal/models"
)

func TestSynthesizeBatch(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/speech") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("openai-mp3"))
	}))
	defer srv.Close()

	a := New(Options{APIKey: "sk-test", BaseURL: srv.URL})
	res := a.Synthesize(t.Context(), models.SynthesisRequest{Text: "hello", VoiceID: "nova", Provider: "openai"})

	if !res.Success {
		t.Fatalf("synthesis failed: %s", res.ErrorMessage)
	}
	if gotBody["model"] != defaultModel || gotBody["voice"] != "nova" {
		t.Errorf("request body = %v", gotBody)
	}
	if res.Metrics.TTFAMs == nil || *res.Metrics.TTFAMs != *res.Metrics.TTFBMs {
		t.Error("batch path must define time-to-first-audio equal to time-to-first-byte")
	}
	if string(res.Audio) != "openai-mp3" {
		t.Errorf("audio = %q", res.Audio)
	}
}

func TestSynthesizeStreamCaptures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < 4; i++ {
			w.Write(make([]byte, 500))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	a := New(Options{APIKey: "sk-test", BaseURL: srv.URL})
	res := a.SynthesizeStream(t.Context(), models.SynthesisRequest{Text: "hi", VoiceID: "alloy", Provider: "openai"})

	if !res.Success {
		t.Fatalf("stream synthesis failed: %s", res.ErrorMessage)
	}
	m := res.Metrics
	if !m.IsStreaming || m.ChunkCount == 0 || len(m.ChunkTimingsMs) != m.ChunkCount {
		t.Fatalf("chunk capture broken: %+v", m)
	}
	if len(res.Audio) != 2000 {
		t.Errorf("reassembled audio = %d bytes, want 2000", len(res.Audio))
	}
}

func TestVoicesStaticCatalog(t *testing.T) {
	a := New(Options{})
	voices, err := a.Voices(t.Context())
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	ids := make(map[string]bool)
	for _, v := range voices {
		ids[v.ID] = true
	}
	for _, want := range []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"} {
		if !ids[want] {
			t.Errorf("fixed catalog missing voice %q", want)
		}
	}
}

func TestDemoModeWithoutKey(t *testing.T) {
	a := New(Options{})
	if !a.demo {
		t.Fatal("missing key must enable demo mode")
	}
	res := a.Synthesize(t.Context(), models.SynthesisRequest{Text: "demo", VoiceID: "alloy", Provider: "openai"})
	if !res.Success || res.Notice == "" || len(res.Audio) == 0 {
		t.Fatalf("demo result must be successful with payload and notice: %+v", res)
	}
}
