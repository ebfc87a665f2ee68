package service

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy/backend/internal/db"
	apperrors "studybuddy/backend/internal/errors"
	"studybuddy/backend/internal/repository"
)

type recordingOpener struct {
	opened []string
	err    *apperrors.APIError
}

func (r *recordingOpener) OpenWorkspace(userID string) *apperrors.APIError {
	r.opened = append(r.opened, userID)
	return r.err
}

func newAuthService(t *testing.T, opener WorkspaceOpener) *AuthService {
	t.Helper()
	database, err := db.OpenSQLite(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(database, slog.New(slog.DiscardHandler)))
	return NewAuthService(repository.NewUserRepository(database), opener, "test-secret-with-enough-length", time.Hour)
}

func TestRegisterOpensWorkspace(t *testing.T) {
	opener := &recordingOpener{}
	auth := newAuthService(t, opener)

	result, apiErr := auth.Register(context.Background(), " New@Example.com ", "123456")
	require.Nil(t, apiErr)
	assert.Equal(t, "new@example.com", result.User.Email)
	assert.Equal(t, []string{result.User.ID}, opener.opened)

	subject, apiErr := auth.ParseToken(result.Token)
	require.Nil(t, apiErr)
	assert.Equal(t, result.User.ID, subject)

	_, apiErr = auth.Register(context.Background(), "new@example.com", "123456")
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Len(t, opener.opened, 1)
}

func TestRegisterFailsWhenWorkspaceUnavailable(t *testing.T) {
	opener := &recordingOpener{err: apperrors.Gone("service_closed", "study service is shutting down")}
	auth := newAuthService(t, opener)

	_, apiErr := auth.Register(context.Background(), "late@example.com", "123456")
	require.NotNil(t, apiErr)
	assert.Equal(t, http.StatusGone, apiErr.Status)
}

func TestRegisterWithStudyServiceSeedsWorkspace(t *testing.T) {
	f := newFixture(t, nil)
	auth := newAuthService(t, f.service)

	result, apiErr := auth.Register(context.Background(), "seeded@example.com", "123456")
	require.Nil(t, apiErr)

	f.service.mu.Lock()
	_, ok := f.service.workspaces[result.User.ID]
	f.service.mu.Unlock()
	assert.True(t, ok)
}
