// Package batch ingests uploaded CSV task lists and executes them through
// the evaluation service.
package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mpre5ley/tts-eval-platform/internal/models"
	"github.com/mpre5ley/tts-eval-platform/internal/services/evaluation"
)

var (
	ErrNoTasks      = errors.New("upload contains no tasks")
	ErrTooManyTasks = errors.New("upload exceeds the task limit")
)

// Task is one parsed CSV row. The voice id is optional; an empty value keeps
// the voice from the provider config.
type Task struct {
	Line    int    `json:"line"`
	Text    string `json:"text"`
	VoiceID string `json:"voice_id,omitempty"`
}

// Evaluator runs one synthesis evaluation. Satisfied by the evaluation
// service.
type Evaluator interface {
	Run(ctx context.Context, text string, configs []models.ProviderConfig, streaming bool) (evaluation.RunResult, error)
}

type Service struct {
	evaluator     Evaluator
	maxTasks      int
	maxTextLength int
	retainResults bool
	logger        *slog.Logger
}

type Options struct {
	Evaluator     Evaluator
	MaxTasks      int
	MaxTextLength int
	// RetainResults controls whether task outcomes carry the full per-backend
	// results. Nil means retain.
	RetainResults *bool
	Logger        *slog.Logger
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxTasks := opts.MaxTasks
	if maxTasks <= 0 {
		maxTasks = 100
	}
	maxLen := opts.MaxTextLength
	if maxLen <= 0 {
		maxLen = 5000
	}
	retain := true
	if opts.RetainResults != nil {
		retain = *opts.RetainResults
	}
	return &Service{evaluator: opts.Evaluator, maxTasks: maxTasks, maxTextLength: maxLen, retainResults: retain, logger: logger}
}

// Parse reads a `text[,voice_id]` CSV. A leading header row naming the text
// column is skipped. Rows failing validation abort the parse with the line
// number in the error.
func (s *Service) Parse(r io.Reader) ([]Task, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var tasks []Task
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++

		if line == 1 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "text") {
			continue
		}

		text := ""
		if len(record) > 0 {
			text = strings.TrimSpace(record[0])
		}
		if text == "" {
			return nil, fmt.Errorf("line %d: text must not be empty", line)
		}
		if len([]rune(text)) > s.maxTextLength {
			return nil, fmt.Errorf("line %d: text exceeds %d characters", line, s.maxTextLength)
		}

		task := Task{Line: line, Text: text}
		if len(record) > 1 {
			task.VoiceID = strings.TrimSpace(record[1])
		}
		tasks = append(tasks, task)
		if len(tasks) > s.maxTasks {
			return nil, ErrTooManyTasks
		}
	}
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	return tasks, nil
}

// TaskOutcome pairs one task with its evaluation run, or the error that
// prevented the run.
type TaskOutcome struct {
	Task   Task                  `json:"task"`
	Run    *evaluation.RunResult `json:"run,omitempty"`
	Error  string                `json:"error,omitempty"`
	Failed bool                  `json:"failed"`
}

// Execute runs every task sequentially against the provider configs. A task
// voice id overrides the config voice for that task. A failed task never
// aborts the remainder.
func (s *Service) Execute(ctx context.Context, tasks []Task, configs []models.ProviderConfig, streaming bool) ([]TaskOutcome, error) {
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	if len(configs) == 0 {
		return nil, evaluation.ErrNoProviders
	}

	outcomes := make([]TaskOutcome, 0, len(tasks))
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		taskConfigs := configs
		if task.VoiceID != "" {
			taskConfigs = make([]models.ProviderConfig, len(configs))
			copy(taskConfigs, configs)
			for i := range taskConfigs {
				taskConfigs[i].VoiceID = task.VoiceID
			}
		}
		run, err := s.evaluator.Run(ctx, task.Text, taskConfigs, streaming)
		if err != nil {
			s.logger.Warn("batch task failed", "line", task.Line, "error", err)
			outcomes = append(outcomes, TaskOutcome{Task: task, Error: err.Error(), Failed: true})
			continue
		}
		if !s.retainResults {
			// Everything is already persisted by the evaluation service; the
			// outcome keeps only the session so callers can look it up later.
			run.Results = nil
			run.Evaluations = nil
		}
		outcomes = append(outcomes, TaskOutcome{Task: task, Run: &run})
	}
	return outcomes, nil
}
