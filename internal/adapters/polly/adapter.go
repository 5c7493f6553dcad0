// Package polly implements the synthesis protocol against Amazon Polly via
// the AWS SDK. The generative engine is pinned for every call: Polly's other
// engines pre-render the whole clip before returning bytes, which would make
// reported jitter artificially near-zero.
package polly

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"

	"github.com/mpre5ley/tts-eval-platform/internal/adapters/adapterutil"
	"github.com/mpre5ley/tts-eval-platform/internal/adapters/demosim"
	"github.com/mpre5ley/tts-eval-platform/internal/models"
	"github.com/mpre5ley/tts-eval-platform/internal/providers/streamutil"
)

const defaultRegion = "us-east-1"

var demoProfile = demosim.Profile{
	Provider:             "amazon",
	Format:               "wav",
	SampleRate:           22050,
	TTFBBaseMs:           55,
	TTFBSpreadMs:         75,
	TTFAExtraBaseMs:      20,
	TTFAExtraSpreadMs:    35,
	TotalPerCharBaseMs:   1.2,
	TotalPerCharSpreadMs: 1,
	SecPerChar:           0.052,
	BytesPerChar:         130,
}

// API is the subset of the Polly client the adapter uses.
type API interface {
	SynthesizeSpeech(ctx context.Context, in *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
	DescribeVoices(ctx context.Context, in *polly.DescribeVoicesInput, optFns ...func(*polly.Options)) (*polly.DescribeVoicesOutput, error)
}

// Options configure the Amazon Polly adapter.
type Options struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	ChunkBytes      int
	Rand            *rand.Rand
	Logger          *slog.Logger
	// Client overrides the SDK client, used by tests.
	Client API
}

// Adapter talks to Amazon Polly.
type Adapter struct {
	client     API
	chunkBytes int
	demo       bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New constructs the adapter. Missing AWS credentials switch it permanently
// into demo mode with a one-time notice.
func New(ctx context.Context, opts Options) (*Adapter, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	a := &Adapter{client: opts.Client, chunkBytes: opts.ChunkBytes, rng: rng}
	if a.client != nil {
		return a, nil
	}

	accessKey := strings.TrimSpace(opts.AccessKeyID)
	secretKey := strings.TrimSpace(opts.SecretAccessKey)
	if accessKey == "" || secretKey == "" {
		a.demo = true
		logger.Warn("aws credentials not configured, polly adapter running in demo mode")
		return a, nil
	}

	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = defaultRegion
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("polly: load aws config: %w", err)
	}
	a.client = polly.NewFromConfig(awsCfg)
	return a, nil
}

func (a *Adapter) simulate(req models.SynthesisRequest) models.SynthesisResult {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return demosim.Simulate(demoProfile, req, a.rng)
}

func (a *Adapter) synthesizeInput(req models.SynthesisRequest) *polly.SynthesizeSpeechInput {
	return &polly.SynthesizeSpeechInput{
		// Engine pinned regardless of caller preference; see package doc.
		Engine:       types.EngineGenerative,
		OutputFormat: types.OutputFormatMp3,
		Text:         aws.String(req.Text),
		VoiceId:      types.VoiceId(req.VoiceID),
	}
}

// Synthesize performs one blocking batch synthesis call.
func (a *Adapter) Synthesize(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult {
	if a.demo {
		return a.simulate(req)
	}
	m := adapterutil.BaseMetrics(req)

	start := time.Now()
	out, err := a.client.SynthesizeSpeech(ctx, a.synthesizeInput(req))
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("polly synthesis failed: %v", err), 0)
	}
	defer out.AudioStream.Close()

	ttfb := streamutil.ElapsedMs(start)
	m.TTFBMs = &ttfb

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("polly stream read failed: %v", err), 0)
	}
	total := streamutil.ElapsedMs(start)
	m.TotalTimeMs = &total
	// Whole stream read before return: first audio coincides with first byte.
	m.TTFAMs = m.TTFBMs

	return adapterutil.Success(req, m, audio, "mp3", nil)
}

// SynthesizeStream reads the Polly audio stream incrementally, capturing
// per-chunk arrival timing.
func (a *Adapter) SynthesizeStream(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult {
	req.Streaming = true
	if a.demo {
		return a.simulate(req)
	}
	m := adapterutil.BaseMetrics(req)

	start := time.Now()
	out, err := a.client.SynthesizeSpeech(ctx, a.synthesizeInput(req))
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("polly synthesis failed: %v", err), 0)
	}
	defer out.AudioStream.Close()

	ttfb := streamutil.ElapsedMs(start)
	m.TTFBMs = &ttfb

	rec, err := streamutil.Consume(out.AudioStream, a.chunkBytes, start)
	rec.Apply(&m)
	if err != nil {
		return adapterutil.Failure(req, m, fmt.Sprintf("polly stream read failed: %v", err), 0)
	}

	return adapterutil.Success(req, m, rec.Audio, "mp3", nil)
}

// Voices fetches the catalog filtered to generative-capable voices, matching
// the engine every synthesis call is pinned to.
func (a *Adapter) Voices(ctx context.Context) ([]models.Voice, error) {
	if a.demo {
		return nil, fmt.Errorf("polly: no credentials for live voice fetch")
	}

	out, err := a.client.DescribeVoices(ctx, &polly.DescribeVoicesInput{
		Engine: types.EngineGenerative,
	})
	if err != nil {
		return nil, fmt.Errorf("polly voices: %w", err)
	}

	voices := make([]models.Voice, 0, len(out.Voices))
	for _, v := range out.Voices {
		voice := models.Voice{
			ID:       string(v.Id),
			Language: string(v.LanguageCode),
			Gender:   strings.ToLower(string(v.Gender)),
		}
		if v.Name != nil {
			voice.Name = *v.Name
		} else {
			voice.Name = voice.ID
		}
		if v.LanguageName != nil {
			voice.Description = *v.LanguageName
		}
		voices = append(voices, voice)
	}
	return voices, nil
}
