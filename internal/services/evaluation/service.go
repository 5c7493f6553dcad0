// Package evaluation orchestrates synthesis runs: it creates a session,
// dispatches the request to each configured backend in order, and persists
// the captured metrics.
package evaluation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mpre5ley/tts-eval-platform/internal/models"
	"github.com/mpre5ley/tts-eval-platform/internal/storage/blob"
	"github.com/mpre5ley/tts-eval-platform/internal/store"
	"github.com/mpre5ley/tts-eval-platform/internal/textstat"
)

var (
	ErrEmptyText   = errors.New("text must not be empty")
	ErrTextTooLong = errors.New("text exceeds the maximum length")
	ErrNoProviders = errors.New("at least one provider config must be supplied")
)

// Dispatcher routes synthesis requests to backend adapters.
type Dispatcher interface {
	DispatchMany(ctx context.Context, text string, configs []models.ProviderConfig, streaming bool) []models.SynthesisResult
	Voices(ctx context.Context, name string) []models.Voice
}

// Records is the slice of the record store the service needs.
type Records interface {
	CreateSession(ctx context.Context, text string, charCount, wordCount int) (store.Session, error)
	CompleteSession(ctx context.Context, id uuid.UUID) error
	InsertEvaluation(ctx context.Context, ev *store.Evaluation) error
	GetSession(ctx context.Context, id uuid.UUID) (store.Session, error)
	SessionEvaluations(ctx context.Context, sessionID uuid.UUID) ([]store.Evaluation, error)
	ListEvaluations(ctx context.Context, f store.EvaluationFilter) ([]store.Evaluation, error)
	GetEvaluation(ctx context.Context, id uuid.UUID) (store.Evaluation, error)
	ResetMetrics(ctx context.Context) (int64, error)
}

// SynthesisObserver receives one callback per completed attempt.
type SynthesisObserver interface {
	RecordSynthesis(provider string, streaming, success bool, totalMs, ttfbMs *float64)
}

type Service struct {
	dispatcher    Dispatcher
	records       Records
	artifacts     blob.Store
	observer      SynthesisObserver
	maxTextLength int
	logger        *slog.Logger
}

type Options struct {
	Dispatcher    Dispatcher
	Records       Records
	Artifacts     blob.Store
	Observer      SynthesisObserver
	MaxTextLength int
	Logger        *slog.Logger
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxLen := opts.MaxTextLength
	if maxLen <= 0 {
		maxLen = 5000
	}
	return &Service{
		dispatcher:    opts.Dispatcher,
		records:       opts.Records,
		artifacts:     opts.Artifacts,
		observer:      opts.Observer,
		maxTextLength: maxLen,
		logger:        logger,
	}
}

// RunResult pairs the stored session with the per-backend outcomes.
type RunResult struct {
	Session     store.Session            `json:"session"`
	Results     []models.SynthesisResult `json:"results"`
	Evaluations []store.Evaluation       `json:"evaluations"`
}

// Run executes one evaluation: sequential dispatch over the configs, one
// persisted evaluation row per config entry, audio artifacts stored when a
// blob store is configured.
func (s *Service) Run(ctx context.Context, text string, configs []models.ProviderConfig, streaming bool) (RunResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return RunResult{}, ErrEmptyText
	}
	if len([]rune(text)) > s.maxTextLength {
		return RunResult{}, ErrTextTooLong
	}
	if len(configs) == 0 {
		return RunResult{}, ErrNoProviders
	}

	chars, words := textstat.Analyze(text)
	session, err := s.records.CreateSession(ctx, text, chars, words)
	if err != nil {
		return RunResult{}, fmt.Errorf("create session: %w", err)
	}

	results := s.dispatcher.DispatchMany(ctx, text, configs, streaming)

	evals := make([]store.Evaluation, 0, len(results))
	for i, res := range results {
		ev := store.Evaluation{
			SessionID:    session.ID,
			Provider:     res.Provider,
			VoiceID:      res.VoiceID,
			VoiceName:    s.voiceName(ctx, res.Provider, res.VoiceID),
			ModelID:      res.ModelID,
			Streaming:    res.Metrics.IsStreaming,
			Success:      res.Success,
			ErrorMessage: res.ErrorMessage,
			Notice:       res.Notice,
			StatusCode:   res.StatusCode,
			Metrics:      res.Metrics,
		}
		if key, err := s.storeAudio(ctx, session.ID, i, res); err != nil {
			s.logger.Warn("store audio artifact", "provider", res.Provider, "error", err)
		} else {
			ev.AudioKey = key
		}
		if err := s.records.InsertEvaluation(ctx, &ev); err != nil {
			return RunResult{}, fmt.Errorf("persist evaluation: %w", err)
		}
		if s.observer != nil {
			s.observer.RecordSynthesis(res.Provider, res.Metrics.IsStreaming, res.Success, res.Metrics.TotalTimeMs, res.Metrics.TTFBMs)
		}
		evals = append(evals, ev)
	}

	if err := s.records.CompleteSession(ctx, session.ID); err != nil {
		return RunResult{}, fmt.Errorf("complete session: %w", err)
	}
	session.Status = store.SessionCompleted

	return RunResult{Session: session, Results: results, Evaluations: evals}, nil
}

// Session loads a stored session together with its evaluations.
func (s *Service) Session(ctx context.Context, id uuid.UUID) (store.Session, []store.Evaluation, error) {
	session, err := s.records.GetSession(ctx, id)
	if err != nil {
		return store.Session{}, nil, err
	}
	evals, err := s.records.SessionEvaluations(ctx, id)
	if err != nil {
		return store.Session{}, nil, err
	}
	return session, evals, nil
}

// Evaluations lists recorded attempts across all sessions.
func (s *Service) Evaluations(ctx context.Context, f store.EvaluationFilter) ([]store.Evaluation, error) {
	return s.records.ListEvaluations(ctx, f)
}

// Evaluation loads one recorded attempt.
func (s *Service) Evaluation(ctx context.Context, id uuid.UUID) (store.Evaluation, error) {
	return s.records.GetEvaluation(ctx, id)
}

// ResetMetrics wipes every recorded evaluation and session.
func (s *Service) ResetMetrics(ctx context.Context) (int64, error) {
	deleted, err := s.records.ResetMetrics(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("metrics reset", "evaluations_deleted", deleted)
	return deleted, nil
}

func (s *Service) voiceName(ctx context.Context, provider, voiceID string) string {
	for _, v := range s.dispatcher.Voices(ctx, provider) {
		if v.ID == voiceID {
			return v.Name
		}
	}
	return ""
}

func (s *Service) storeAudio(ctx context.Context, sessionID uuid.UUID, index int, res models.SynthesisResult) (string, error) {
	if s.artifacts == nil || !res.Success || len(res.Audio) == 0 {
		return "", nil
	}
	format := res.Metrics.AudioFormat
	if format == "" {
		format = "bin"
	}
	key := fmt.Sprintf("sessions/%s/%02d-%s.%s", sessionID, index, res.Provider, format)
	_, err := s.artifacts.Put(ctx, key, bytes.NewReader(res.Audio), blob.PutOptions{
		ContentType: contentTypeFor(format),
		Metadata:    map[string]string{"provider": res.Provider, "voice_id": res.VoiceID},
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func contentTypeFor(format string) string {
	switch strings.ToLower(format) {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
