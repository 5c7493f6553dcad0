// Package openaitts implements the synthesis protocol against the OpenAI
// speech API through the official SDK. The SDK hands back the raw HTTP
// response, so first-byte timing lands at header receipt.
package openaitts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/mpre5ley/tts-eval-platform/internal/adapters/adapterutil"
	"github.com/mpre5ley/tts-eval-platform/internal/adapters/demosim"
	"github.com/mpre5ley/tts-eval-platform/internal/catalog"
	"github.com/mpre5ley/tts-eval-platform/internal/models"
	"github.com/mpre5ley/tts-eval-platform/internal/providers/streamutil"
)

const (
	defaultModel = "tts-1"
	defaultVoice = "alloy"
)

var demoProfile = demosim.Profile{
	Provider:             "openai",
	Format:               "wav",
	SampleRate:           24000,
	TTFBBaseMs:           80,
	TTFBSpreadMs:         120,
	TTFAExtraBaseMs:      30,
	TTFAExtraSpreadMs:    60,
	TotalPerCharBaseMs:   2.5,
	TotalPerCharSpreadMs: 1,
	SecPerChar:           0.065,
	BytesPerChar:         170,
}

// Options configure the OpenAI speech adapter.
type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	ChunkBytes int
	Rand       *rand.Rand
	Logger     *slog.Logger
}

// Adapter talks to the OpenAI speech API.
type Adapter struct {
	client     *openai.Client
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
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	a := &Adapter{chunkBytes: opts.ChunkBytes, rng: rng}
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		a.demo = true
		logger.Warn("openai api key not configured, adapter running in demo mode")
		return a
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	requestOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
	}
	if strings.TrimSpace(opts.BaseURL) != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(strings.TrimRight(opts.BaseURL, "/")))
	}
	client := openai.NewClient(requestOpts...)
	a.client = &client
	return a
}

func (a *Adapter) simulate(req models.SynthesisRequest) models.SynthesisResult {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return demosim.Simulate(demoProfile, req, a.rng)
}

func (a *Adapter) speechParams(req models.SynthesisRequest) openai.AudioSpeechNewParams {
	model := req.Options.ModelID
	if model == "" {
		model = defaultModel
	}
	voice := req.VoiceID
	if voice == "" {
		voice = defaultVoice
	}
	params := openai.AudioSpeechNewParams{
		Model: openai.SpeechModel(model),
		Input: req.Text,
		Voice: openai.AudioSpeechNewParamsVoice(voice),
	}
	params.ResponseFormat = openai.AudioSpeechNewParamsResponseFormatMP3
	if req.Options.SpeakingRate != nil {
		params.Speed = openai.Float(*req.Options.SpeakingRate)
	}
	return params
}

// Synthesize performs one blocking batch synthesis call.
func (a *Adapter) Synthesize(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult {
	if a.demo {
		return a.simulate(req)
	}
	m := adapterutil.BaseMetrics(req)

	start := time.Now()
	resp, err := a.client.Audio.Speech.New(ctx, a.speechParams(req))
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("openai speech failed: %v", err), 0)
	}
	defer resp.Body.Close()

	ttfb := streamutil.ElapsedMs(start)
	m.TTFBMs = &ttfb

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("openai speech body read failed: %v", err), resp.StatusCode)
	}
	total := streamutil.ElapsedMs(start)
	m.TotalTimeMs = &total
	// Whole body read before return: first audio coincides with first byte.
	m.TTFAMs = m.TTFBMs

	return adapterutil.Success(req, m, audio, "mp3", adapterutil.Headers(resp.Header))
}

// SynthesizeStream reads the response body incrementally, capturing per-chunk
// arrival timing.
func (a *Adapter) SynthesizeStream(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult {
	req.Streaming = true
	if a.demo {
		return a.simulate(req)
	}
	m := adapterutil.BaseMetrics(req)

	start := time.Now()
	resp, err := a.client.Audio.Speech.New(ctx, a.speechParams(req))
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("openai speech failed: %v", err), 0)
	}
	defer resp.Body.Close()

	ttfb := streamutil.ElapsedMs(start)
	m.TTFBMs = &ttfb

	rec, err := streamutil.Consume(resp.Body, a.chunkBytes, start)
	rec.Apply(&m)
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("openai speech stream read failed: %v", err), resp.StatusCode)
	}

	return adapterutil.Success(req, m, rec.Audio, "mp3", adapterutil.Headers(resp.Header))
}

// Voices returns the fixed OpenAI voice set; the API exposes no catalog
// endpoint.
func (a *Adapter) Voices(ctx context.Context) ([]models.Voice, error) {
	return catalog.Defaults("openai"), nil
}
