// Package azure implements the synthesis protocol against the Azure Cognitive
// Services Speech REST API. The REST endpoint returns whole clips, so
// streaming calls delegate to the batch path.
package azure

import (
	"context"
	"encoding/json"
	"encoding/xml"
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
	outputFormat = "audio-16khz-128kbitrate-mono-mp3"

	// Audio properties pinned by outputFormat.
	outputSampleRate = 16000
	outputBitrate    = 128000
)

var demoProfile = demosim.Profile{
	Provider:             "azure",
	Format:               "wav",
	SampleRate:           outputSampleRate,
	Bitrate:              outputBitrate,
	TTFBBaseMs:           70,
	TTFBSpreadMs:         90,
	TTFAExtraBaseMs:      25,
	TTFAExtraSpreadMs:    45,
	TotalPerCharBaseMs:   1.8,
	TotalPerCharSpreadMs: 1,
	SecPerChar:           0.058,
	BytesPerChar:         160,
}

// Options configure the Azure Speech adapter.
type Options struct {
	SubscriptionKey string
	Region          string
	Endpoint        string
	Timeout         time.Duration
	Rand            *rand.Rand
	Logger          *slog.Logger
}

// Adapter talks to the Azure Speech service of one region.
type Adapter struct {
	key      string
	endpoint string
	client   *http.Client
	demo     bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New constructs the adapter. A missing subscription key or region switches
// it permanently into demo mode with a one-time notice.
func New(opts Options) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	region := strings.TrimSpace(opts.Region)
	if endpoint == "" && region != "" {
		endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com", region)
	}

	a := &Adapter{
		key:      strings.TrimSpace(opts.SubscriptionKey),
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		rng:      rng,
	}
	if a.key == "" || a.endpoint == "" {
		a.demo = true
		logger.Warn("azure speech key or region not configured, adapter running in demo mode")
	}
	return a
}

func (a *Adapter) simulate(req models.SynthesisRequest) models.SynthesisResult {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return demosim.Simulate(demoProfile, req, a.rng)
}

func ssmlDocument(text, voice, language string) string {
	if language == "" {
		// Neural voice short names embed their locale as the first two segments.
		parts := strings.SplitN(voice, "-", 3)
		if len(parts) >= 2 {
			language = parts[0] + "-" + parts[1]
		} else {
			language = "en-US"
		}
	}

	var escaped strings.Builder
	_ = xml.EscapeText(&escaped, []byte(text))
	return fmt.Sprintf(
		"<speak version='1.0' xml:lang='%s'><voice name='%s'>%s</voice></speak>",
		language, voice, escaped.String())
}

// Synthesize performs one blocking SSML synthesis call.
func (a *Adapter) Synthesize(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult {
	if a.demo {
		return a.simulate(req)
	}
	m := adapterutil.BaseMetrics(req)

	ssml := ssmlDocument(req.Text, req.VoiceID, req.Options.LanguageCode)
	url := a.endpoint + "/cognitiveservices/v1"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(ssml))
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("azure speech request failed: %v", err), 0)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", a.key)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", outputFormat)

	start := time.Now()
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("azure speech request failed: %v", err), 0)
	}
	defer resp.Body.Close()

	ttfb := streamutil.ElapsedMs(start)
	m.TTFBMs = &ttfb

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return adapterutil.Failure(req, m,
			fmt.Sprintf("azure speech returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("azure speech body read failed: %v", err), resp.StatusCode)
	}
	total := streamutil.ElapsedMs(start)
	m.TotalTimeMs = &total
	// Whole body read before return: first audio coincides with first byte.
	m.TTFAMs = m.TTFBMs
	m.SampleRate = models.IntPtr(outputSampleRate)
	m.Bitrate = models.IntPtr(outputBitrate)

	return adapterutil.Success(req, m, audio, "mp3", adapterutil.Headers(resp.Header))
}

// SynthesizeStream delegates to the batch path; chunk and jitter fields stay
// empty. This is a documented approximation of streaming semantics.
func (a *Adapter) SynthesizeStream(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult {
	req.Streaming = true
	if a.demo {
		return a.simulate(req)
	}
	res := a.Synthesize(ctx, req)
	res.Metrics.IsStreaming = true
	return res
}

type catalogVoice struct {
	ShortName   string `json:"ShortName"`
	DisplayName string `json:"DisplayName"`
	Locale      string `json:"Locale"`
	Gender      string `json:"Gender"`
}

// Voices fetches the live voice catalog.
func (a *Adapter) Voices(ctx context.Context) ([]models.Voice, error) {
	if a.demo {
		return nil, fmt.Errorf("azure speech: no credentials for live voice fetch")
	}

	url := a.endpoint + "/cognitiveservices/voices/list"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", a.key)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("azure speech voices: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("azure speech voices: status %d", resp.StatusCode)
	}

	var parsed []catalogVoice
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("azure speech voices: %w", err)
	}

	voices := make([]models.Voice, 0, len(parsed))
	for _, v := range parsed {
		voices = append(voices, models.Voice{
			ID:       v.ShortName,
			Name:     v.DisplayName,
			Language: v.Locale,
			Gender:   strings.ToLower(v.Gender),
		})
	}
	return voices, nil
}
