package evaluation

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mpre5ley/tts-eval-platform/internal/models"
	"github.com/mpre5ley/tts-eval-platform/internal/store"
)

type fakeDispatcher struct {
	results []models.SynthesisResult
	voices  map[string][]models.Voice
	lastCfg []models.ProviderConfig
}

func (d *fakeDispatcher) DispatchMany(_ context.Context, _ string, configs []models.ProviderConfig, _ bool) []models.SynthesisResult {
	d.lastCfg = configs
	return d.results
}

func (d *fakeDispatcher) Voices(_ context.Context, name string) []models.Voice {
	return d.voices[name]
}

type fakeRecords struct {
	sessions  map[uuid.UUID]store.Session
	evals     []store.Evaluation
	completed []uuid.UUID
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{sessions: make(map[uuid.UUID]store.Session)}
}

func (r *fakeRecords) CreateSession(_ context.Context, text string, chars, words int) (store.Session, error) {
	s := store.Session{ID: uuid.New(), Text: text, CharCount: chars, WordCount: words, Status: store.SessionRunning}
	r.sessions[s.ID] = s
	return s, nil
}

func (r *fakeRecords) CompleteSession(_ context.Context, id uuid.UUID) error {
	r.completed = append(r.completed, id)
	return nil
}

func (r *fakeRecords) InsertEvaluation(_ context.Context, ev *store.Evaluation) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	r.evals = append(r.evals, *ev)
	return nil
}

func (r *fakeRecords) GetSession(_ context.Context, id uuid.UUID) (store.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return store.Session{}, store.ErrNotFound
	}
	return s, nil
}

func (r *fakeRecords) SessionEvaluations(_ context.Context, sessionID uuid.UUID) ([]store.Evaluation, error) {
	var out []store.Evaluation
	for _, ev := range r.evals {
		if ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *fakeRecords) ListEvaluations(_ context.Context, f store.EvaluationFilter) ([]store.Evaluation, error) {
	var out []store.Evaluation
	for _, ev := range r.evals {
		if f.Provider != "" && ev.Provider != f.Provider {
			continue
		}
		if f.SuccessOnly && !ev.Success {
			continue
		}
		out = append(out, ev)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (r *fakeRecords) GetEvaluation(_ context.Context, id uuid.UUID) (store.Evaluation, error) {
	for _, ev := range r.evals {
		if ev.ID == id {
			return ev, nil
		}
	}
	return store.Evaluation{}, store.ErrNotFound
}

func (r *fakeRecords) ResetMetrics(context.Context) (int64, error) {
	deleted := int64(len(r.evals))
	r.evals = nil
	r.sessions = make(map[uuid.UUID]store.Session)
	return deleted, nil
}

func TestRunPersistsEveryResult(t *testing.T) {
	dispatcher := &fakeDispatcher{
		results: []models.SynthesisResult{
			{Success: true, Provider: "elevenlabs", VoiceID: "v1", Metrics: models.Metrics{CharCount: 5, TotalTimeMs: models.Float64Ptr(120)}},
			{Success: false, Provider: "google", VoiceID: "v2", ErrorMessage: "backend error 500"},
		},
		voices: map[string][]models.Voice{
			"elevenlabs": {{ID: "v1", Name: "Rachel"}},
		},
	}
	records := newFakeRecords()
	svc := NewService(Options{Dispatcher: dispatcher, Records: records})

	out, err := svc.Run(t.Context(), "hello world", []models.ProviderConfig{
		{Provider: "elevenlabs", VoiceID: "v1"},
		{Provider: "google", VoiceID: "v2"},
	}, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(records.evals) != 2 {
		t.Fatalf("persisted %d evaluations, want 2", len(records.evals))
	}
	if records.evals[0].VoiceName != "Rachel" {
		t.Errorf("voice name = %q, want Rachel", records.evals[0].VoiceName)
	}
	if records.evals[1].Success || records.evals[1].ErrorMessage == "" {
		t.Errorf("failed attempt must persist with its error message: %+v", records.evals[1])
	}
	if out.Session.Status != store.SessionCompleted {
		t.Errorf("session status = %q", out.Session.Status)
	}
	if len(records.completed) != 1 || records.completed[0] != out.Session.ID {
		t.Error("session was not marked completed")
	}
	if out.Session.CharCount != 11 || out.Session.WordCount != 2 {
		t.Errorf("text analysis on session = %d chars %d words", out.Session.CharCount, out.Session.WordCount)
	}
}

func TestRunValidation(t *testing.T) {
	svc := NewService(Options{Dispatcher: &fakeDispatcher{}, Records: newFakeRecords(), MaxTextLength: 10})

	cases := []struct {
		name    string
		text    string
		configs []models.ProviderConfig
		wantErr error
	}{
		{"empty text", "   ", []models.ProviderConfig{{Provider: "google"}}, ErrEmptyText},
		{"too long", strings.Repeat("a", 11), []models.ProviderConfig{{Provider: "google"}}, ErrTextTooLong},
		{"no configs", "hello", nil, ErrNoProviders},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Run(t.Context(), tc.text, tc.configs, false); err != tc.wantErr {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSessionLookup(t *testing.T) {
	records := newFakeRecords()
	dispatcher := &fakeDispatcher{results: []models.SynthesisResult{{Success: true, Provider: "openai", VoiceID: "alloy"}}}
	svc := NewService(Options{Dispatcher: dispatcher, Records: records})

	out, err := svc.Run(t.Context(), "lookup me", []models.ProviderConfig{{Provider: "openai", VoiceID: "alloy"}}, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	_, evals, err := svc.Session(t.Context(), out.Session.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if len(evals) != 1 || evals[0].Provider != "openai" {
		t.Fatalf("evals = %+v", evals)
	}

	if _, _, err := svc.Session(t.Context(), uuid.New()); err != store.ErrNotFound {
		t.Fatalf("missing session err = %v", err)
	}
}

func TestEvaluationsListingAndReset(t *testing.T) {
	records := newFakeRecords()
	dispatcher := &fakeDispatcher{results: []models.SynthesisResult{
		{Success: true, Provider: "elevenlabs", VoiceID: "v1"},
		{Success: false, Provider: "google", VoiceID: "v2", ErrorMessage: "backend error 500"},
	}}
	svc := NewService(Options{Dispatcher: dispatcher, Records: records})

	if _, err := svc.Run(t.Context(), "list me", []models.ProviderConfig{
		{Provider: "elevenlabs", VoiceID: "v1"},
		{Provider: "google", VoiceID: "v2"},
	}, false); err != nil {
		t.Fatalf("Run: %v", err)
	}

	all, err := svc.Evaluations(t.Context(), store.EvaluationFilter{})
	if err != nil {
		t.Fatalf("Evaluations: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all evaluations = %d, want 2", len(all))
	}

	successful, err := svc.Evaluations(t.Context(), store.EvaluationFilter{SuccessOnly: true})
	if err != nil {
		t.Fatalf("Evaluations success_only: %v", err)
	}
	if len(successful) != 1 || successful[0].Provider != "elevenlabs" {
		t.Fatalf("success-only filter = %+v", successful)
	}

	byProvider, err := svc.Evaluations(t.Context(), store.EvaluationFilter{Provider: "google"})
	if err != nil {
		t.Fatalf("Evaluations provider filter: %v", err)
	}
	if len(byProvider) != 1 || byProvider[0].Success {
		t.Fatalf("provider filter = %+v", byProvider)
	}

	got, err := svc.Evaluation(t.Context(), all[0].ID)
	if err != nil {
		t.Fatalf("Evaluation: %v", err)
	}
	if got.ID != all[0].ID {
		t.Fatalf("detail lookup = %+v", got)
	}
	if _, err := svc.Evaluation(t.Context(), uuid.New()); err != store.ErrNotFound {
		t.Fatalf("missing evaluation err = %v", err)
	}

	deleted, err := svc.ResetMetrics(t.Context())
	if err != nil {
		t.Fatalf("ResetMetrics: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}
	if remaining, _ := svc.Evaluations(t.Context(), store.EvaluationFilter{}); len(remaining) != 0 {
		t.Fatalf("evaluations survive reset: %+v", remaining)
	}
}
