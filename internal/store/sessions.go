package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const insertSessionSQL = `
INSERT INTO eval_sessions (id, input_text, char_count, word_count, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`

// CreateSession inserts a new running session for the given text.
func (s *Store) CreateSession(ctx context.Context, text string, charCount, wordCount int) (Session, error) {
	session := Session{
		ID:        uuid.New(),
		Text:      text,
		CharCount: charCount,
		WordCount: wordCount,
		Status:    SessionRunning,
	}
	err := s.pool.QueryRow(ctx, insertSessionSQL,
		session.ID, session.Text, session.CharCount, session.WordCount, session.Status,
	).Scan(&session.CreatedAt)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

const completeSessionSQL = `
UPDATE eval_sessions
SET status = $2, completed_at = now()
WHERE id = $1`

// CompleteSession marks the session finished.
func (s *Store) CompleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, completeSessionSQL, id, SessionCompleted)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const getSessionSQL = `
SELECT id, input_text, char_count, word_count, status, created_at, completed_at
FROM eval_sessions
WHERE id = $1`

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (Session, error) {
	var session Session
	err := s.pool.QueryRow(ctx, getSessionSQL, id).Scan(
		&session.ID, &session.Text, &session.CharCount, &session.WordCount,
		&session.Status, &session.CreatedAt, &session.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

const listSessionsSQL = `
SELECT id, input_text, char_count, word_count, status, created_at, completed_at
FROM eval_sessions
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

func (s *Store) ListSessions(ctx context.Context, limit, offset int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, listSessionsSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]Session, 0, limit)
	for rows.Next() {
		var session Session
		if err := rows.Scan(
			&session.ID, &session.Text, &session.CharCount, &session.WordCount,
			&session.Status, &session.CreatedAt, &session.CompletedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}
