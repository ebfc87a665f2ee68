package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy/backend/internal/db"
	"studybuddy/backend/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenSQLite(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(database, slog.New(slog.DiscardHandler)))
	return database
}

func createUser(t *testing.T, repo *UserRepository, id, email string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(context.Background(), &model.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))
	createUser(t, repo, "user-1", "one@example.com")

	byEmail, err := repo.GetByEmail(ctx, "one@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	byID, err := repo.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "one@example.com", byID.Email)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.Create(ctx, &model.User{ID: "user-2", Email: "one@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestStudySessionLifecycle(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	createUser(t, NewUserRepository(database), "user-1", "one@example.com")
	repo := NewStudySessionRepository(database)

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, id := range []string{"s-1", "s-2", "s-3"} {
		startedAt := start.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Insert(ctx, &model.StudySession{
			ID:                     id,
			UserID:                 "user-1",
			PlannedDurationSeconds: 60,
			StartedAt:              startedAt,
			Status:                 model.SessionStatusRunning,
			CreatedAt:              startedAt,
			UpdatedAt:              startedAt,
		}))
	}

	ended := start.Add(10 * time.Minute)
	require.NoError(t, repo.Finish(ctx, "s-1", model.SessionStatusCompleted, 60, ended))
	assert.ErrorIs(t, repo.Finish(ctx, "s-1", model.SessionStatusCancelled, 5, ended), ErrNotFound)

	session, err := repo.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, session.Status)
	assert.Equal(t, 60, session.ActualDurationSeconds)
	require.NotNil(t, session.EndedAt)
	assert.True(t, ended.Equal(*session.EndedAt))

	sessions, err := repo.ListByUser(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s-3", sessions[0].ID)
	assert.Equal(t, "s-2", sessions[1].ID)

	_, err = repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoredTimesSortChronologically(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 100_000_000, time.UTC)
	later := base.Add(20 * time.Millisecond)

	assert.Less(t, formatTime(base), formatTime(later))

	parsed, err := parseTime(formatTime(later))
	require.NoError(t, err)
	assert.True(t, later.Equal(parsed))
}
