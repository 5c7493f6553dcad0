// Package elevenlabs implements the synthesis protocol against the ElevenLabs
// text-to-speech API, including its native streaming endpoint.
package elevenlabs

import (
	"bytes"
	"context"
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
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultModelID = "eleven_monolingual_v1"

	defaultStability       = 0.5
	defaultSimilarityBoost = 0.75
)

var demoProfile = demosim.Profile{
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

// Options configure the ElevenLabs adapter.
type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	ChunkBytes int
	Rand       *rand.Rand
	Logger     *slog.Logger
}

// Adapter talks to the ElevenLabs API. Demo mode is decided once at
// construction and is permanent for the adapter's lifetime.
type Adapter struct {
	apiKey     string
	baseURL    string
	client     *http.Client
	chunkBytes int
	demo       bool

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
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		client:     &http.Client{Timeout: timeout},
		chunkBytes: opts.ChunkBytes,
		rng:        rng,
	}
	if a.apiKey == "" {
		a.demo = true
		logger.Warn("elevenlabs api key not configured, adapter running in demo mode")
	}
	return a
}

func (a *Adapter) simulate(req models.SynthesisRequest) models.SynthesisResult {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return demosim.Simulate(demoProfile, req, a.rng)
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type synthesizeBody struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

func (a *Adapter) requestBody(req models.SynthesisRequest) ([]byte, string) {
	modelID := req.Options.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}
	settings := voiceSettings{Stability: defaultStability, SimilarityBoost: defaultSimilarityBoost}
	if req.Options.Stability != nil {
		settings.Stability = *req.Options.Stability
	}
	if req.Options.SimilarityBoost != nil {
		settings.SimilarityBoost = *req.Options.SimilarityBoost
	}
	payload, _ := json.Marshal(synthesizeBody{Text: req.Text, ModelID: modelID, VoiceSettings: settings})
	return payload, modelID
}

func (a *Adapter) issue(ctx context.Context, req models.SynthesisRequest, stream bool) (*http.Response, string, error) {
	payload, modelID := a.requestBody(req)
	url := fmt.Sprintf("%s/v1/text-to-speech/%s", a.baseURL, req.VoiceID)
	if stream {
		url += "/stream"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, modelID, err
	}
	httpReq.Header.Set("xi-api-key", a.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := a.client.Do(httpReq)
	return resp, modelID, err
}

// Synthesize performs one blocking batch synthesis call.
func (a *Adapter) Synthesize(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult {
	if a.demo {
		return a.simulate(req)
	}
	m := adapterutil.BaseMetrics(req)

	start := time.Now()
	resp, modelID, err := a.issue(ctx, req, false)
	req.Options.ModelID = modelID
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("elevenlabs request failed: %v", err), 0)
	}
	defer resp.Body.Close()

	ttfb := streamutil.ElapsedMs(start)
	m.TTFBMs = &ttfb

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return adapterutil.Failure(req, m,
			fmt.Sprintf("elevenlabs returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("elevenlabs body read failed: %v", err), resp.StatusCode)
	}
	total := streamutil.ElapsedMs(start)
	m.TotalTimeMs = &total
	// Whole body read before return: first audio coincides with first byte.
	m.TTFAMs = m.TTFBMs

	return adapterutil.Success(req, m, audio, "mp3", adapterutil.Headers(resp.Header))
}

// SynthesizeStream performs an incremental-read call against the native
// streaming endpoint, capturing per-chunk arrival timing.
func (a *Adapter) SynthesizeStream(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult {
	req.Streaming = true
	if a.demo {
		return a.simulate(req)
	}
	m := adapterutil.BaseMetrics(req)

	start := time.Now()
	resp, modelID, err := a.issue(ctx, req, true)
	req.Options.ModelID = modelID
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("elevenlabs request failed: %v", err), 0)
	}
	defer resp.Body.Close()

	ttfb := streamutil.ElapsedMs(start)
	m.TTFBMs = &ttfb

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return adapterutil.Failure(req, m,
			fmt.Sprintf("elevenlabs returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			resp.StatusCode)
	}

	rec, err := streamutil.Consume(resp.Body, a.chunkBytes, start)
	rec.Apply(&m)
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("elevenlabs stream read failed: %v", err), resp.StatusCode)
	}

	return adapterutil.Success(req, m, rec.Audio, "mp3", adapterutil.Headers(resp.Header))
}

type voicesResponse struct {
	Voices []struct {
		VoiceID     string            `json:"voice_id"`
		Name        string            `json:"name"`
		Category    string            `json:"category"`
		Labels      map[string]string `json:"labels"`
		Description string            `json:"description"`
	} `json:"voices"`
}

// Voices fetches the live voice catalog.
func (a *Adapter) Voices(ctx context.Context) ([]models.Voice, error) {
	if a.demo {
		return nil, fmt.Errorf("elevenlabs: no credentials for live voice fetch")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("xi-api-key", a.apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs voices: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs voices: status %d", resp.StatusCode)
	}

	var parsed voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("elevenlabs voices: %w", err)
	}

	voices := make([]models.Voice, 0, len(parsed.Voices))
	for _, v := range parsed.Voices {
		language := v.Labels["language"]
		if language == "" {
			language = "en-US"
		}
		voices = append(voices, models.Voice{
			ID:          v.VoiceID,
			Name:        v.Name,
			Language:    language,
			Gender:      v.Labels["gender"],
			Description: v.Description,
		})
	}
	return voices, nil
}
