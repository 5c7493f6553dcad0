package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const insertEvaluationSQL = `
INSERT INTO evaluations (
	id, session_id, provider, voice_id, voice_name, model_id,
	streaming, success, error_message, notice, status_code, audio_key,
	ttfb_ms, ttfa_ms, total_time_ms, network_latency_ms,
	audio_duration_sec, audio_size_bytes, audio_format, sample_rate, bitrate,
	chunk_count, avg_chunk_size_bytes, chunk_timings_ms,
	min_chunk_delay_ms, max_chunk_delay_ms, avg_chunk_delay_ms, playback_jitter_ms,
	char_count, word_count, chars_per_second, realtime_factor
) VALUES (
	$1, $2, $3, $4, $5, $6,
	$7, $8, $9, $10, $11, $12,
	$13, $14, $15, $16,
	$17, $18, $19, $20, $21,
	$22, $23, $24,
	$25, $26, $27, $28,
	$29, $30, $31, $32
)
RETURNING created_at`

// InsertEvaluation persists one synthesis attempt. The evaluation id is
// assigned here when the caller leaves it zero.
func (s *Store) InsertEvaluation(ctx context.Context, ev *Evaluation) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	m := ev.Metrics
	err := s.pool.QueryRow(ctx, insertEvaluationSQL,
		ev.ID, ev.SessionID, ev.Provider, ev.VoiceID, ev.VoiceName, ev.ModelID,
		ev.Streaming, ev.Success, ev.ErrorMessage, ev.Notice, ev.StatusCode, ev.AudioKey,
		m.TTFBMs, m.TTFAMs, m.TotalTimeMs, m.NetworkLatencyMs,
		m.AudioDurationSec, m.AudioSizeBytes, m.AudioFormat, m.SampleRate, m.Bitrate,
		m.ChunkCount, m.AvgChunkSizeBytes, m.ChunkTimingsMs,
		m.MinChunkDelayMs, m.MaxChunkDelayMs, m.AvgChunkDelayMs, m.PlaybackJitterMs,
		m.CharCount, m.WordCount, m.CharsPerSecond, m.RealtimeFactor,
	).Scan(&ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

const evaluationColumns = `
	id, session_id, provider, voice_id, voice_name, model_id,
	streaming, success, error_message, notice, status_code, audio_key,
	ttfb_ms, ttfa_ms, total_time_ms, network_latency_ms,
	audio_duration_sec, audio_size_bytes, audio_format, sample_rate, bitrate,
	chunk_count, avg_chunk_size_bytes, chunk_timings_ms,
	min_chunk_delay_ms, max_chunk_delay_ms, avg_chunk_delay_ms, playback_jitter_ms,
	char_count, word_count, chars_per_second, realtime_factor, created_at`

func scanEvaluation(row interface{ Scan(...any) error }) (Evaluation, error) {
	var ev Evaluation
	m := &ev.Metrics
	err := row.Scan(
		&ev.ID, &ev.SessionID, &ev.Provider, &ev.VoiceID, &ev.VoiceName, &ev.ModelID,
		&ev.Streaming, &ev.Success, &ev.ErrorMessage, &ev.Notice, &ev.StatusCode, &ev.AudioKey,
		&m.TTFBMs, &m.TTFAMs, &m.TotalTimeMs, &m.NetworkLatencyMs,
		&m.AudioDurationSec, &m.AudioSizeBytes, &m.AudioFormat, &m.SampleRate, &m.Bitrate,
		&m.ChunkCount, &m.AvgChunkSizeBytes, &m.ChunkTimingsMs,
		&m.MinChunkDelayMs, &m.MaxChunkDelayMs, &m.AvgChunkDelayMs, &m.PlaybackJitterMs,
		&m.CharCount, &m.WordCount, &m.CharsPerSecond, &m.RealtimeFactor, &ev.CreatedAt,
	)
	if err != nil {
		return Evaluation{}, err
	}
	m.IsStreaming = ev.Streaming
	return ev, nil
}

const sessionEvaluationsSQL = `
SELECT` + evaluationColumns + `
FROM evaluations
WHERE session_id = $1
ORDER BY created_at ASC`

// SessionEvaluations returns all attempts recorded for one session in
// dispatch order.
func (s *Store) SessionEvaluations(ctx context.Context, sessionID uuid.UUID) ([]Evaluation, error) {
	rows, err := s.pool.Query(ctx, sessionEvaluationsSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session evaluations: %w", err)
	}
	defer rows.Close()

	var evals []Evaluation
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evals = append(evals, ev)
	}
	return evals, rows.Err()
}

const providerEvaluationsSQL = `
SELECT` + evaluationColumns + `
FROM evaluations
WHERE provider = $1 AND ($2::timestamptz IS NULL OR created_at >= $2)
ORDER BY created_at DESC
LIMIT $3`

// ProviderEvaluations returns recent attempts for one backend, newest first.
// Pass a nil since to scan the full history.
func (s *Store) ProviderEvaluations(ctx context.Context, provider string, since *time.Time, limit int) ([]Evaluation, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.pool.Query(ctx, providerEvaluationsSQL, provider, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list provider evaluations: %w", err)
	}
	defer rows.Close()

	var evals []Evaluation
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evals = append(evals, ev)
	}
	return evals, rows.Err()
}

// EvaluationFilter narrows a flat evaluation listing. Zero values mean no
// filtering.
type EvaluationFilter struct {
	Provider    string
	SuccessOnly bool
	Limit       int
}

const listEvaluationsSQL = `
SELECT` + evaluationColumns + `
FROM evaluations
WHERE ($1 = '' OR provider = $1) AND (NOT $2::bool OR success)
ORDER BY created_at DESC
LIMIT $3`

// ListEvaluations returns recorded attempts across all sessions, newest
// first.
func (s *Store) ListEvaluations(ctx context.Context, f EvaluationFilter) ([]Evaluation, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, listEvaluationsSQL, f.Provider, f.SuccessOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	var evals []Evaluation
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evals = append(evals, ev)
	}
	return evals, rows.Err()
}

const getEvaluationSQL = `
SELECT` + evaluationColumns + `
FROM evaluations
WHERE id = $1`

func (s *Store) GetEvaluation(ctx context.Context, id uuid.UUID) (Evaluation, error) {
	ev, err := scanEvaluation(s.pool.QueryRow(ctx, getEvaluationSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, ErrNotFound
	}
	if err != nil {
		return Evaluation{}, fmt.Errorf("get evaluation: %w", err)
	}
	return ev, nil
}

// ResetMetrics deletes every recorded evaluation and session in one
// transaction and reports how many evaluations were removed.
func (s *Store) ResetMetrics(ctx context.Context) (int64, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("reset metrics: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM evaluations`)
	if err != nil {
		return 0, fmt.Errorf("delete evaluations: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM eval_sessions`); err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("reset metrics: %w", err)
	}
	return tag.RowsAffected(), nil
}

const distinctProvidersSQL = `
SELECT DISTINCT provider FROM evaluations ORDER BY provider`

// DistinctProviders lists every backend that has at least one recorded attempt.
func (s *Store) DistinctProviders(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, distinctProvidersSQL)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var providers []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}
