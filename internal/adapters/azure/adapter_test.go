package azure

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mpre5ley/tts-eval-platform/internal/models"
)

func TestSSMLDocument(t *testing.T) {
	doc := ssmlDocument("Tom & Jerry <3", "en-GB-SoniaNeural", "")

	if !strings.Contains(doc, "xml:lang='en-GB'") {
		t.Errorf("locale not derived from voice name: %s", doc)
	}
	if !strings.Contains(doc, "Tom &amp; Jerry &lt;3") {
		t.Errorf("text not escaped: %s", doc)
	}
	if !strings.Contains(doc, "<voice name='en-GB-SoniaNeural'>") {
		t.Errorf("voice element missing: %s", doc)
	}
}

func TestSynthesizeSendsSSML(t *testing.T) {
	var gotBody string
	var gotFormat string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "azkey" {
			t.Error("subscription key header missing")
		}
		gotFormat = r.Header.Get("X-Microsoft-OutputFormat")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte("mp3-audio"))
	}))
	defer srv.Close()

	a := New(Options{SubscriptionKey: "azkey", Endpoint: srv.URL})
	res := a.Synthesize(t.Context(), models.SynthesisRequest{Text: "hello", VoiceID: "en-US-JennyNeural", Provider: "azure"})

	if !res.Success {
		t.Fatalf("synthesis failed: %s", res.ErrorMessage)
	}
	if gotFormat != outputFormat {
		t.Errorf("output format = %q", gotFormat)
	}
	if !strings.Contains(gotBody, "<speak") || !strings.Contains(gotBody, "en-US-JennyNeural") {
		t.Errorf("request body is not the expected SSML: %s", gotBody)
	}

	m := res.Metrics
	if m.SampleRate == nil || *m.SampleRate != outputSampleRate {
		t.Errorf("sample rate = %v, want pinned %d", m.SampleRate, outputSampleRate)
	}
	if m.Bitrate == nil || *m.Bitrate != outputBitrate {
		t.Errorf("bitrate = %v, want pinned %d", m.Bitrate, outputBitrate)
	}
	if m.TTFAMs == nil || *m.TTFAMs != *m.TTFBMs {
		t.Error("batch path must define time-to-first-audio equal to time-to-first-byte")
	}
}

func TestSynthesizeStreamDelegates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mp3-audio"))
	}))
	defer srv.Close()

	a := New(Options{SubscriptionKey: "azkey", Endpoint: srv.URL})
	res := a.SynthesizeStream(t.Context(), models.SynthesisRequest{Text: "hi", VoiceID: "en-US-GuyNeural", Provider: "azure"})

	if !res.Success {
		t.Fatalf("stream synthesis failed: %s", res.ErrorMessage)
	}
	if !res.Metrics.IsStreaming || res.Metrics.ChunkCount != 0 {
		t.Error("delegated streaming must mark streaming but leave chunk fields empty")
	}
}

func TestSynthesizeVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	a := New(Options{SubscriptionKey: "azkey", Endpoint: srv.URL})
	res := a.Synthesize(t.Context(), models.SynthesisRequest{Text: "x", VoiceID: "en-US-AriaNeural", Provider: "azure"})

	if res.Success {
		t.Fatal("non-2xx status must yield failure")
	}
	if !strings.Contains(res.ErrorMessage, "429") || !strings.Contains(res.ErrorMessage, "rate limited") {
		t.Errorf("error must carry status and body: %q", res.ErrorMessage)
	}
}

func TestVoicesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/cognitiveservices/voices/list") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[{"ShortName":"en-US-JennyNeural","DisplayName":"Jenny","Locale":"en-US","Gender":"Female"}]`))
	}))
	defer srv.Close()

	a := New(Options{SubscriptionKey: "azkey", Endpoint: srv.URL})
	voices, err := a.Voices(t.Context())
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(voices) != 1 || voices[0].ID != "en-US-JennyNeural" || voices[0].Gender != "female" {
		t.Fatalf("voices = %+v", voices)
	}
}

func TestDemoModeWithoutRegion(t *testing.T) {
	a := New(Options{SubscriptionKey: "key-but-no-region"})
	if !a.demo {
		t.Fatal("missing region must enable demo mode")
	}
}
