package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	store := NewMemorySessionStore()
	token := &models.LaunchToken{
		Issuer: "https://lms.example.edu",
		User:   "user-1",
		Roles:  []string{models.RoleURILearner},
	}

	ltik, err := store.Save(context.Background(), token, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, ltik)
	assert.Equal(t, ltik, token.SessionID)

	found, err := store.Find(context.Background(), ltik)
	require.NoError(t, err)
	assert.Equal(t, "user-1", found.User)
	assert.Equal(t, ltik, found.SessionID)
}

func TestMemorySessionStoreUnknownLtik(t *testing.T) {
	store := NewMemorySessionStore()

	_, err := store.Find(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore()
	token := &models.LaunchToken{User: "user-1"}

	ltik, err := store.Save(context.Background(), token, -time.Second)
	require.NoError(t, err)

	_, err = store.Find(context.Background(), ltik)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestMemorySessionStoreIsolation(t *testing.T) {
	store := NewMemorySessionStore()
	token := &models.LaunchToken{User: "user-1"}

	ltik, err := store.Save(context.Background(), token, time.Minute)
	require.NoError(t, err)

	found, err := store.Find(context.Background(), ltik)
	require.NoError(t, err)
	found.User = "mutated"

	again, err := store.Find(context.Background(), ltik)
	require.NoError(t, err)
	assert.Equal(t, "user-1", again.User, "store must hand out copies")
}
