// Package store persists evaluation sessions, per-attempt evaluation rows,
// and benchmark runs in Postgres.
package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpre5ley/tts-eval-platform/internal/models"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps the pgx pool with typed queries for the evaluation schema.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Session groups the evaluation attempts issued for one input text.
type Session struct {
	ID          uuid.UUID  `json:"id"`
	Text        string     `json:"text"`
	CharCount   int        `json:"char_count"`
	WordCount   int        `json:"word_count"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

const (
	SessionRunning   = "running"
	SessionCompleted = "completed"
)

// Evaluation is one synthesis attempt with its captured metrics.
type Evaluation struct {
	ID           uuid.UUID      `json:"id"`
	SessionID    uuid.UUID      `json:"session_id"`
	Provider     string         `json:"provider"`
	VoiceID      string         `json:"voice_id"`
	VoiceName    string         `json:"voice_name,omitempty"`
	ModelID      string         `json:"model_id,omitempty"`
	Streaming    bool           `json:"streaming"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Notice       string         `json:"notice,omitempty"`
	StatusCode   int            `json:"status_code,omitempty"`
	AudioKey     string         `json:"audio_key,omitempty"`
	Metrics      models.Metrics `json:"metrics"`
	CreatedAt    time.Time      `json:"created_at"`
}

// BenchmarkRun records one benchmark execution and its summary.
type BenchmarkRun struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Iterations  int        `json:"iterations"`
	Texts       []byte     `json:"-"`
	Configs     []byte     `json:"-"`
	Summary     []byte     `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

const (
	BenchmarkRunning   = "running"
	BenchmarkCompleted = "completed"
	BenchmarkFailed    = "failed"
)
