package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studybuddy/backend/internal/model"
)

type StudySessionRepository struct {
	db *sql.DB
}

func NewStudySessionRepository(db *sql.DB) *StudySessionRepository {
	return &StudySessionRepository{db: db}
}

func (r *StudySessionRepository) Insert(ctx context.Context, session *model.StudySession) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO study_sessions (
			id, user_id, planned_duration_seconds, actual_duration_seconds,
			started_at, ended_at, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.PlannedDurationSeconds,
		session.ActualDurationSeconds,
		formatTime(session.StartedAt),
		formatOptionalTime(session.EndedAt),
		session.Status,
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *StudySessionRepository) Get(ctx context.Context, sessionID string) (*model.StudySession, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, planned_duration_seconds, actual_duration_seconds,
		        started_at, ended_at, status, created_at, updated_at
		 FROM study_sessions
		 WHERE id = ?`,
		sessionID,
	)
	return scanStudySession(row)
}

// Finish closes a running session. Sessions that already ended are left as
// they are and ErrNotFound is returned.
func (r *StudySessionRepository) Finish(ctx context.Context, sessionID, status string, actualSeconds int, endedAt time.Time) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE study_sessions
		 SET actual_duration_seconds = ?,
		     ended_at = ?,
		     status = ?,
		     updated_at = ?
		 WHERE id = ? AND status = ?`,
		actualSeconds,
		formatTime(endedAt),
		status,
		formatTime(endedAt),
		sessionID,
		model.SessionStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish session rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StudySessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.StudySession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, planned_duration_seconds, actual_duration_seconds,
		        started_at, ended_at, status, created_at, updated_at
		 FROM study_sessions
		 WHERE user_id = ?
		 ORDER BY started_at DESC, created_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.StudySession, 0, limit)
	for rows.Next() {
		session, scanErr := scanStudySession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStudySession(s scanner) (*model.StudySession, error) {
	session := model.StudySession{}
	var startedAt string
	var endedAt sql.NullString
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&session.ID,
		&session.UserID,
		&session.PlannedDurationSeconds,
		&session.ActualDurationSeconds,
		&startedAt,
		&endedAt,
		&session.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if session.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse session started_at: %w", err)
	}
	if endedAt.Valid {
		parsedEndedAt, parseErr := parseTime(endedAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse session ended_at: %w", parseErr)
		}
		session.EndedAt = &parsedEndedAt
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse session updated_at: %w", err)
	}

	return &session, nil
}
