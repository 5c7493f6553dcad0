// Package reporting aggregates stored evaluation metrics into per-backend
// summaries and cross-backend comparisons.
package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mpre5ley/tts-eval-platform/internal/stats"
	"github.com/mpre5ley/tts-eval-platform/internal/store"
)

// Records is the slice of the record store the service needs.
type Records interface {
	ProviderEvaluations(ctx context.Context, provider string, since *time.Time, limit int) ([]store.Evaluation, error)
	DistinctProviders(ctx context.Context) ([]string, error)
}

type Service struct {
	records Records
	loc     *time.Location
}

// NewService builds a reporting service. Report timestamps are expressed in
// loc; nil means UTC.
func NewService(records Records, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{records: records, loc: loc}
}

// MetricSummary describes the distribution of one captured metric across the
// successful attempts of a backend. Tail percentiles are absent when the
// sample is too small to estimate them.
type MetricSummary struct {
	Count int      `json:"count"`
	Avg   *float64 `json:"avg,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	P50   *float64 `json:"p50,omitempty"`
	P95   *float64 `json:"p95,omitempty"`
	P99   *float64 `json:"p99,omitempty"`
}

// ProviderReport aggregates every recorded attempt for one backend.
type ProviderReport struct {
	Provider       string        `json:"provider"`
	GeneratedAt    time.Time     `json:"generated_at"`
	TotalAttempts  int           `json:"total_attempts"`
	Successful     int           `json:"successful"`
	Failed         int           `json:"failed"`
	SuccessRate    *float64      `json:"success_rate,omitempty"`
	TTFB           MetricSummary `json:"ttfb_ms"`
	TTFA           MetricSummary `json:"ttfa_ms"`
	TotalTime      MetricSummary `json:"total_time_ms"`
	CharsPerSecond MetricSummary `json:"chars_per_second"`
	RealtimeFactor MetricSummary `json:"realtime_factor"`
	PlaybackJitter MetricSummary `json:"playback_jitter_ms"`
}

// Options narrows the evaluation sample used for a report.
type Options struct {
	Since *time.Time
	Limit int
}

// ProviderReport builds the aggregate view for one backend.
func (s *Service) ProviderReport(ctx context.Context, provider string, opts Options) (ProviderReport, error) {
	evals, err := s.records.ProviderEvaluations(ctx, provider, opts.Since, opts.Limit)
	if err != nil {
		return ProviderReport{}, fmt.Errorf("load evaluations for %s: %w", provider, err)
	}
	report := buildReport(provider, evals)
	report.GeneratedAt = time.Now().In(s.loc)
	return report, nil
}

// Comparison reports every backend with recorded attempts, sorted by average
// total synthesis time ascending. Backends without a computable average sort
// last.
func (s *Service) Comparison(ctx context.Context, opts Options) ([]ProviderReport, error) {
	providers, err := s.records.DistinctProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	reports := make([]ProviderReport, 0, len(providers))
	for _, p := range providers {
		report, err := s.ProviderReport(ctx, p, opts)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i].TotalTime.Avg, reports[j].TotalTime.Avg
		switch {
		case a == nil && b == nil:
			return reports[i].Provider < reports[j].Provider
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return reports, nil
}

func buildReport(provider string, evals []store.Evaluation) ProviderReport {
	report := ProviderReport{Provider: provider, TotalAttempts: len(evals)}

	var ttfb, ttfa, total, cps, rtf, jitter []float64
	for _, ev := range evals {
		if !ev.Success {
			report.Failed++
			continue
		}
		report.Successful++
		m := ev.Metrics
		ttfb = appendValue(ttfb, m.TTFBMs)
		ttfa = appendValue(ttfa, m.TTFAMs)
		total = appendValue(total, m.TotalTimeMs)
		cps = appendValue(cps, m.CharsPerSecond)
		rtf = appendValue(rtf, m.RealtimeFactor)
		jitter = appendValue(jitter, m.PlaybackJitterMs)
	}

	report.SuccessRate = stats.SuccessRate(report.Successful, report.TotalAttempts)
	report.TTFB = summarize(ttfb)
	report.TTFA = summarize(ttfa)
	report.TotalTime = summarize(total)
	report.CharsPerSecond = summarize(cps)
	report.RealtimeFactor = summarize(rtf)
	report.PlaybackJitter = summarize(jitter)
	return report
}

func appendValue(dst []float64, v *float64) []float64 {
	if v == nil {
		return dst
	}
	return append(dst, *v)
}

func summarize(values []float64) MetricSummary {
	return MetricSummary{
		Count: len(values),
		Avg:   stats.Mean(values),
		Min:   stats.Min(values),
		Max:   stats.Max(values),
		P50:   stats.Percentile(values, 0.50),
		P95:   stats.P95(values),
		P99:   stats.P99(values),
	}
}
