package lms

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edurun/lti-gateway/internal/models"
)

type stubRegistry struct {
	platform *models.PlatformRegistration
	err      error
}

func (s *stubRegistry) FindByIssuerClient(context.Context, string, string) (*models.PlatformRegistration, error) {
	return s.platform, s.err
}

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestAccessTokenGrant(t *testing.T) {
	key := testKey(t)
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "urn:ietf:params:oauth:client-assertion-type:jwt-bearer", r.Form.Get("client_assertion_type"))
		assert.Equal(t, ScopeScore, r.Form.Get("scope"))

		assertion, _, err := jwt.NewParser().ParseUnverified(r.Form.Get("client_assertion"), jwt.MapClaims{})
		require.NoError(t, err)
		claims := assertion.Claims.(jwt.MapClaims)
		assert.Equal(t, "client-1", claims["iss"])
		assert.Equal(t, "client-1", claims["sub"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "platform-token",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(server.Close)

	registry := &stubRegistry{platform: &models.PlatformRegistration{
		Issuer:        "https://lms.example.edu",
		ClientID:      "client-1",
		TokenEndpoint: server.URL,
	}}

	source := NewOAuthTokenSource(registry, key, "kid-1", time.Second, nil)
	token := &models.LaunchToken{Issuer: "https://lms.example.edu", ClientID: "client-1"}

	got, err := source.AccessToken(context.Background(), token, []string{ScopeScore})
	require.NoError(t, err)
	assert.Equal(t, "platform-token", got)

	// Second request for the same platform/scope set hits the cache.
	got, err = source.AccessToken(context.Background(), token, []string{ScopeScore})
	require.NoError(t, err)
	assert.Equal(t, "platform-token", got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAccessTokenEndpointFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	registry := &stubRegistry{platform: &models.PlatformRegistration{TokenEndpoint: server.URL}}
	source := NewOAuthTokenSource(registry, testKey(t), "", time.Second, nil)

	_, err := source.AccessToken(context.Background(), &models.LaunchToken{}, []string{ScopeLineItem})
	assert.Error(t, err)
}
