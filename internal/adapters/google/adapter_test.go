package google

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mpre5ley/tts-eval-platform/internal/models"
)

func TestResolveVoice(t *testing.T) {
	tests := []struct {
		name     string
		voiceID  string
		language string
		wantName string
		wantLang string
	}{
		{
			name:     "short studio name expands",
			voiceID:  "Puck",
			language: "",
			wantName: "en-US-Chirp3-HD-Puck",
			wantLang: "en-US",
		},
		{
			name:     "short name honors language option",
			voiceID:  "Charon",
			language: "en-GB",
			wantName: "en-GB-Chirp3-HD-Charon",
			wantLang: "en-GB",
		},
		{
			name:     "full name passes through with derived locale",
			voiceID:  "en-GB-Neural2-A",
			language: "",
			wantName: "en-GB-Neural2-A",
			wantLang: "en-GB",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			name, lang := resolveVoice(tc.voiceID, tc.language)
			if name != tc.wantName || lang != tc.wantLang {
				t.Fatalf("resolveVoice(%q, %q) = (%q, %q), want (%q, %q)",
					tc.voiceID, tc.language, name, lang, tc.wantName, tc.wantLang)
			}
		})
	}
}

func TestSynthesizeDecodesBase64Audio(t *testing.T) {
	audio := []byte("pretend-mp3")
	var gotBody synthesizeBody

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "gkey" {
			t.Error("api key missing from query")
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(synthesizeResponse{
			AudioContent: base64.StdEncoding.EncodeToString(audio),
		})
	}))
	defer srv.Close()

	a := New(Options{APIKey: "gkey", BaseURL: srv.URL})
	res := a.Synthesize(t.Context(), models.SynthesisRequest{Text: "hello", VoiceID: "Puck", Provider: "google"})

	if !res.Success {
		t.Fatalf("synthesis failed: %s", res.ErrorMessage)
	}
	if gotBody.Voice.Name != "en-US-Chirp3-HD-Puck" {
		t.Errorf("voice name sent = %q", gotBody.Voice.Name)
	}
	if gotBody.AudioConfig.AudioEncoding != "MP3" {
		t.Errorf("encoding = %q", gotBody.AudioConfig.AudioEncoding)
	}
	if string(res.Audio) != string(audio) {
		t.Errorf("decoded audio = %q", res.Audio)
	}
	if res.Metrics.TTFAMs == nil || *res.Metrics.TTFAMs != *res.Metrics.TTFBMs {
		t.Error("batch path must define time-to-first-audio equal to time-to-first-byte")
	}
}

func TestSynthesizeStreamDelegates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(synthesizeResponse{
			AudioContent: base64.StdEncoding.EncodeToString([]byte("clip")),
		})
	}))
	defer srv.Close()

	a := New(Options{APIKey: "gkey", BaseURL: srv.URL})
	res := a.SynthesizeStream(t.Context(), models.SynthesisRequest{Text: "hi", VoiceID: "Puck", Provider: "google"})

	if !res.Success {
		t.Fatalf("stream synthesis failed: %s", res.ErrorMessage)
	}
	if !res.Metrics.IsStreaming {
		t.Error("delegated result must still be marked streaming")
	}
	if res.Metrics.ChunkCount != 0 || len(res.Metrics.ChunkTimingsMs) != 0 {
		t.Error("delegated streaming must leave chunk fields empty")
	}
	if res.Metrics.PlaybackJitterMs != nil {
		t.Error("jitter must stay nil without chunk timings")
	}
}

func TestSynthesizeVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"key invalid"}}`))
	}))
	defer srv.Close()

	a := New(Options{APIKey: "bad", BaseURL: srv.URL})
	res := a.Synthesize(t.Context(), models.SynthesisRequest{Text: "x", VoiceID: "Puck", Provider: "google"})

	if res.Success {
		t.Fatal("non-2xx status must yield failure")
	}
	if !strings.Contains(res.ErrorMessage, "403") || !strings.Contains(res.ErrorMessage, "key invalid") {
		t.Errorf("error must carry status and body: %q", res.ErrorMessage)
	}
}

func TestVoicesCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"voices":[{"languageCodes":["en-GB"],"name":"en-GB-Neural2-A","ssmlGender":"FEMALE"}]}`))
	}))
	defer srv.Close()

	a := New(Options{APIKey: "gkey", BaseURL: srv.URL})
	voices, err := a.Voices(t.Context())
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(voices) != 1 || voices[0].Language != "en-GB" || voices[0].Gender != "female" {
		t.Fatalf("voices = %+v", voices)
	}
}
