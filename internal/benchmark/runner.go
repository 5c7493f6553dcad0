// Package benchmark runs repeated synthesis over a grid of texts, iterations,
// and provider configs and summarizes the outcome.
package benchmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mpre5ley/tts-eval-platform/internal/models"
	"github.com/mpre5ley/tts-eval-platform/internal/stats"
	"github.com/mpre5ley/tts-eval-platform/internal/store"
)

var (
	ErrNoTexts      = errors.New("at least one text must be supplied")
	ErrNoConfigs    = errors.New("at least one provider config must be supplied")
	ErrTooManyTexts = errors.New("too many texts for one benchmark")
	ErrIterations   = errors.New("iteration count out of range")
)

// Dispatcher routes synthesis requests to backend adapters.
type Dispatcher interface {
	Dispatch(ctx context.Context, req models.SynthesisRequest) models.SynthesisResult
}

// Records is the slice of the record store the runner needs.
type Records interface {
	CreateBenchmark(ctx context.Context, name string, iterations int, texts, configs []byte) (store.BenchmarkRun, error)
	FinishBenchmark(ctx context.Context, id uuid.UUID, status string, summary []byte) error
	GetBenchmark(ctx context.Context, id uuid.UUID) (store.BenchmarkRun, error)
	ListBenchmarks(ctx context.Context, limit, offset int) ([]store.BenchmarkRun, error)
}

type Runner struct {
	dispatcher    Dispatcher
	records       Records
	maxIterations int
	maxTexts      int
	logger        *slog.Logger
}

type Options struct {
	Dispatcher    Dispatcher
	Records       Records
	MaxIterations int
	MaxTexts      int
	Logger        *slog.Logger
}

func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = 20
	}
	maxTexts := opts.MaxTexts
	if maxTexts <= 0 {
		maxTexts = 50
	}
	return &Runner{
		dispatcher:    opts.Dispatcher,
		records:       opts.Records,
		maxIterations: maxIter,
		maxTexts:      maxTexts,
		logger:        logger,
	}
}

// Request describes one benchmark run.
type Request struct {
	Name       string                  `json:"name"`
	Texts      []string                `json:"texts"`
	Configs    []models.ProviderConfig `json:"configs"`
	Iterations int                     `json:"iterations"`
	Streaming  bool                    `json:"streaming"`
}

// ProviderSummary aggregates one backend's attempts across the whole grid.
type ProviderSummary struct {
	Provider    string   `json:"provider"`
	Attempts    int      `json:"attempts"`
	Successful  int      `json:"successful"`
	SuccessRate *float64 `json:"success_rate,omitempty"`
	AvgTotalMs  *float64 `json:"avg_total_ms,omitempty"`
	AvgTTFBMs   *float64 `json:"avg_ttfb_ms,omitempty"`
	P50TotalMs  *float64 `json:"p50_total_ms,omitempty"`
	P95TotalMs  *float64 `json:"p95_total_ms,omitempty"`
}

// Summary is the stored outcome document of a run.
type Summary struct {
	TotalAttempts int               `json:"total_attempts"`
	Providers     []ProviderSummary `json:"providers"`
}

// Result pairs the stored run with its computed summary.
type Result struct {
	Run     store.BenchmarkRun `json:"run"`
	Summary Summary            `json:"summary"`
}

// Run executes the full grid sequentially: every text, repeated per iteration,
// against every provider config. A failed attempt never aborts the run.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	if len(req.Texts) == 0 {
		return Result{}, ErrNoTexts
	}
	if len(req.Texts) > r.maxTexts {
		return Result{}, ErrTooManyTexts
	}
	if len(req.Configs) == 0 {
		return Result{}, ErrNoConfigs
	}
	if req.Iterations <= 0 || req.Iterations > r.maxIterations {
		return Result{}, ErrIterations
	}

	textsDoc, err := json.Marshal(req.Texts)
	if err != nil {
		return Result{}, fmt.Errorf("encode texts: %w", err)
	}
	configsDoc, err := json.Marshal(req.Configs)
	if err != nil {
		return Result{}, fmt.Errorf("encode configs: %w", err)
	}

	run, err := r.records.CreateBenchmark(ctx, req.Name, req.Iterations, textsDoc, configsDoc)
	if err != nil {
		return Result{}, fmt.Errorf("create benchmark: %w", err)
	}

	byProvider := make(map[string]*providerSample)
	var order []string
	total := 0

	for _, text := range req.Texts {
		for iter := 0; iter < req.Iterations; iter++ {
			for _, pc := range req.Configs {
				if ctx.Err() != nil {
					_ = r.records.FinishBenchmark(context.WithoutCancel(ctx), run.ID, store.BenchmarkFailed, nil)
					return Result{}, ctx.Err()
				}
				res := r.dispatcher.Dispatch(ctx, models.SynthesisRequest{
					Text:      text,
					Provider:  pc.Provider,
					VoiceID:   pc.VoiceID,
					Streaming: req.Streaming,
					Options:   pc.Options,
				})
				total++
				sample, ok := byProvider[pc.Provider]
				if !ok {
					sample = &providerSample{}
					byProvider[pc.Provider] = sample
					order = append(order, pc.Provider)
				}
				sample.observe(res)
			}
		}
	}

	summary := Summary{TotalAttempts: total}
	for _, p := range order {
		summary.Providers = append(summary.Providers, byProvider[p].summarize(p))
	}

	summaryDoc, err := json.Marshal(summary)
	if err != nil {
		return Result{}, fmt.Errorf("encode summary: %w", err)
	}
	if err := r.records.FinishBenchmark(ctx, run.ID, store.BenchmarkCompleted, summaryDoc); err != nil {
		return Result{}, fmt.Errorf("finish benchmark: %w", err)
	}
	run.Status = store.BenchmarkCompleted
	run.Summary = summaryDoc

	r.logger.Info("benchmark completed",
		"benchmark_id", run.ID.String(),
		"attempts", total,
		"providers", len(summary.Providers),
	)
	return Result{Run: run, Summary: summary}, nil
}

type providerSample struct {
	attempts   int
	successful int
	totals     []float64
	ttfbs      []float64
}

func (s *providerSample) observe(res models.SynthesisResult) {
	s.attempts++
	if !res.Success {
		return
	}
	s.successful++
	if res.Metrics.TotalTimeMs != nil {
		s.totals = append(s.totals, *res.Metrics.TotalTimeMs)
	}
	if res.Metrics.TTFBMs != nil {
		s.ttfbs = append(s.ttfbs, *res.Metrics.TTFBMs)
	}
}

func (s *providerSample) summarize(provider string) ProviderSummary {
	return ProviderSummary{
		Provider:    provider,
		Attempts:    s.attempts,
		Successful:  s.successful,
		SuccessRate: stats.SuccessRate(s.successful, s.attempts),
		AvgTotalMs:  stats.Mean(s.totals),
		AvgTTFBMs:   stats.Mean(s.ttfbs),
		P50TotalMs:  stats.Percentile(s.totals, 0.50),
		P95TotalMs:  stats.P95(s.totals),
	}
}
