// Package google implements the synthesis protocol against the Google Cloud
// Text-to-Speech REST API. The API has no incremental transport, so streaming
// calls delegate to the batch path and leave chunk fields empty.
package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mpre5ley/tts-eval-platform/internal/adapters/adapterutil"
	"github.com/mpre5ley/tts-eval-platform/internal/adapters/demosim"
	"github.com/mpre5ley/tts-eval-platform/internal/models"
	"github.com/mpre5ley/tts-eval-platform/internal/providers/streamutil"
)

const (
	defaultBaseURL  = "https://texttospeech.googleapis.com"
	defaultLanguage = "en-US"
)

var demoProfile = demosim.Profile{
	Provider:             "google",
	Format:               "wav",
	SampleRate:           24000,
	TTFBBaseMs:           60,
	TTFBSpreadMs:         80,
	TTFAExtraBaseMs:      30,
	TTFAExtraSpreadMs:    40,
	TotalPerCharBaseMs:   1.5,
	TotalPerCharSpreadMs: 1,
	SecPerChar:           0.055,
	BytesPerChar:         140,
}

// Options configure the Google Cloud TTS adapter.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Rand    *rand.Rand
	Logger  *slog.Logger
}

// Adapter talks to the Google Cloud TTS REST API using an API key.
type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
	demo    bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New constructs the adapter. A missing API key switches it permanently into
// demo mode with a one-time notice.
func New(opts Options) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	a := &Adapter{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		rng:     rng,
	}
	if a.apiKey == "" {
		a.demo = true
		logger.Warn("google cloud tts api key not configured, adapter running in demo mode")
	}
	return a
}

func (a *Adapter) simulate(req models.SynthesisRequest) models.SynthesisResult {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return demosim.Simulate(demoProfile, req, a.rng)
}

// resolveVoice expands short studio-voice names into their full resource
// name; a bare name without locale segments maps to the Chirp3 HD family.
func resolveVoice(voiceID, language string) (name, lang string) {
	if language == "" {
		language = defaultLanguage
	}
	if !strings.Contains(voiceID, "-") {
		return fmt.Sprintf("%s-Chirp3-HD-%s", language, voiceID), language
	}
	// Full voice names embed their locale as the first two segments.
	parts := strings.SplitN(voiceID, "-", 3)
	if len(parts) >= 2 {
		language = parts[0] + "-" + parts[1]
	}
	return voiceID, language
}

type synthesizeBody struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string   `json:"audioEncoding"`
		SpeakingRate  *float64 `json:"speakingRate,omitempty"`
		Pitch         *float64 `json:"pitch,omitempty"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize performs one blocking synthesis call. The response delivers the
// whole clip as base64 JSON, so total time includes the decode.
func (a *Adapter) Synthesize(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult {
	if a.demo {
		return a.simulate(req)
	}
	m := adapterutil.BaseMetrics(req)

	voiceName, language := resolveVoice(req.VoiceID, req.Options.LanguageCode)
	var body synthesizeBody
	body.Input.Text = req.Text
	body.Voice.LanguageCode = language
	body.Voice.Name = voiceName
	body.AudioConfig.AudioEncoding = "MP3"
	body.AudioConfig.SpeakingRate = req.Options.SpeakingRate
	body.AudioConfig.Pitch = req.Options.Pitch
	payload, _ := json.Marshal(body)

	url := fmt.Sprintf("%s/v1/text:synthesize?key=%s", a.baseURL, a.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("google tts request failed: %v", err), 0)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("google tts request failed: %v", err), 0)
	}
	defer resp.Body.Close()

	ttfb := streamutil.ElapsedMs(start)
	m.TTFBMs = &ttfb

	raw, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return adapterutil.Failure(req, m,
			fmt.Sprintf("google tts returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
			resp.StatusCode)
	}
	if readErr != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("google tts body read failed: %v", readErr), resp.StatusCode)
	}

	var parsed synthesizeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("google tts response decode failed: %v", err), resp.StatusCode)
	}
	audio, err := base64.StdEncoding.DecodeString(parsed.AudioContent)
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("google tts audio decode failed: %v", err), resp.StatusCode)
	}

	total := streamutil.ElapsedMs(start)
	m.TotalTimeMs = &total
	// Whole body read before return: first audio coincides with first byte.
	m.TTFAMs = m.TTFBMs

	return adapterutil.Success(req, m, audio, "mp3", adapterutil.Headers(resp.Header))
}

// SynthesizeStream delegates to the batch path; the REST API returns the
// whole clip at once, so chunk and jitter fields stay empty. This is a
// documented approximation of streaming semantics.
func (a *Adapter) SynthesizeStream(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult {
	req.Streaming = true
	if a.demo {
		return a.simulate(req)
	}
	res := a.Synthesize(ctx, req)
	res.Metrics.IsStreaming = true
	return res
}

type voicesResponse struct {
	Voices []struct {
		LanguageCodes []string `json:"languageCodes"`
		Name          string   `json:"name"`
		SSMLGender    string   `json:"ssmlGender"`
	} `json:"voices"`
}

// Voices fetches the live voice catalog.
func (a *Adapter) Voices(ctx context.Context) ([]models.Voice, error) {
	if a.demo {
		return nil, fmt.Errorf("google tts: no credentials for live voice fetch")
	}

	url := fmt.Sprintf("%s/v1/voices?key=%s", a.baseURL, a.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("google tts voices: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google tts voices: status %d", resp.StatusCode)
	}

	var parsed voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("google tts voices: %w", err)
	}

	voices := make([]models.Voice, 0, len(parsed.Voices))
	for _, v := range parsed.Voices {
		language := defaultLanguage
		if len(v.LanguageCodes) > 0 {
			language = v.LanguageCodes[0]
		}
		voices = append(voices, models.Voice{
			ID:       v.Name,
			Name:     v.Name,
			Language: language,
			Gender:   strings.ToLower(v.SSMLGender),
		})
	}
	return voices, nil
}
