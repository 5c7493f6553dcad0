package batch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mpre5ley/tts-eval-platform/internal/models"
	"github.com/mpre5ley/tts-eval-platform/internal/services/evaluation"
	"github.com/mpre5ley/tts-eval-platform/internal/store"
)

type fakeEvaluator struct {
	calls   []string
	voices  []string
	failOn  string
	failErr error
}

func (e *fakeEvaluator) Run(_ context.Context, text string, configs []models.ProviderConfig, _ bool) (evaluation.RunResult, error) {
	e.calls = append(e.calls, text)
	if len(configs) > 0 {
		e.voices = append(e.voices, configs[0].VoiceID)
	}
	if text == e.failOn {
		return evaluation.RunResult{}, e.failErr
	}
	provider := ""
	if len(configs) > 0 {
		provider = configs[0].Provider
	}
	return evaluation.RunResult{
		Session:     store.Session{ID: uuid.New(), Text: text, Status: store.SessionCompleted},
		Results:     []models.SynthesisResult{{Success: true, Provider: provider}},
		Evaluations: []store.Evaluation{{Provider: provider, Success: true}},
	}, nil
}

func TestParse(t *testing.T) {
	svc := NewService(Options{MaxTextLength: 50})

	cases := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"plain rows", "hello\nworld\n", 2, false},
		{"with voices", "hello,voice-a\nworld,voice-b\n", 2, false},
		{"header skipped", "text,voice_id\nhello,v1\n", 1, false},
		{"empty text row", "hello\n,\n", 0, true},
		{"empty file", "", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tasks, err := svc.Parse(strings.NewReader(tc.input))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(tasks) != tc.want {
				t.Fatalf("tasks = %d, want %d", len(tasks), tc.want)
			}
		})
	}
}

func TestParseEnforcesLimits(t *testing.T) {
	svc := NewService(Options{MaxTasks: 2, MaxTextLength: 5})

	if _, err := svc.Parse(strings.NewReader("a\nb\nc\n")); !errors.Is(err, ErrTooManyTasks) {
		t.Errorf("task limit err = %v", err)
	}
	if _, err := svc.Parse(strings.NewReader("toolongtext\n")); err == nil {
		t.Error("expected length validation error")
	}
}

func TestExecuteOverridesVoiceAndContinues(t *testing.T) {
	ev := &fakeEvaluator{failOn: "bad", failErr: errors.New("backend unavailable")}
	svc := NewService(Options{Evaluator: ev})

	tasks := []Task{
		{Line: 1, Text: "good", VoiceID: "custom-voice"},
		{Line: 2, Text: "bad"},
		{Line: 3, Text: "also good"},
	}
	outcomes, err := svc.Execute(t.Context(), tasks, []models.ProviderConfig{{Provider: "elevenlabs", VoiceID: "default"}}, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("outcomes = %d", len(outcomes))
	}
	if ev.voices[0] != "custom-voice" {
		t.Errorf("task voice must override config voice, got %q", ev.voices[0])
	}
	if ev.voices[2] != "default" {
		t.Errorf("task without voice keeps config voice, got %q", ev.voices[2])
	}
	if !outcomes[1].Failed || outcomes[1].Error == "" {
		t.Errorf("failed task outcome = %+v", outcomes[1])
	}
	if outcomes[2].Failed {
		t.Error("failure must not abort later tasks")
	}
	if outcomes[0].Run == nil || len(outcomes[0].Run.Results) != 1 {
		t.Errorf("retained outcome must carry the full run: %+v", outcomes[0].Run)
	}
}

func TestExecuteWithoutRetainedResults(t *testing.T) {
	retain := false
	svc := NewService(Options{Evaluator: &fakeEvaluator{}, RetainResults: &retain})

	outcomes, err := svc.Execute(t.Context(), []Task{{Line: 1, Text: "trimmed"}}, []models.ProviderConfig{{Provider: "google"}}, false)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Run == nil {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	run := outcomes[0].Run
	if run.Session.ID == uuid.Nil {
		t.Error("session summary must survive the trim")
	}
	if run.Results != nil || run.Evaluations != nil {
		t.Errorf("per-backend payloads must be dropped: %+v", run)
	}
}
