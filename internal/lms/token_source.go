package lms

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edurun/lti-gateway/internal/models"
)

// LTI Advantage service scopes requested from the platform.
const (
	ScopeLineItem          = "https://purl.imsglobal.org/spec/lti-ags/scope/lineitem"
	ScopeScore             = "https://purl.imsglobal.org/spec/lti-ags/scope/score"
	ScopeContextMembership = "https://purl.imsglobal.org/spec/lti-nrps/scope/contextmembership.readonly"
)

// TokenSource supplies platform-issued access tokens for service calls.
type TokenSource interface {
	AccessToken(ctx context.Context, token *models.LaunchToken, scopes []string) (string, error)
}

type platformRegistry interface {
	FindByIssuerClient(ctx context.Context, issuer, clientID string) (*models.PlatformRegistration, error)
}

// OAuthTokenSource obtains access tokens through the client-credentials
// grant with a signed JWT client assertion, caching them per platform and
// scope set until shortly before expiry.
type OAuthTokenSource struct {
	registry platformRegistry
	key      *rsa.PrivateKey
	keyID    string
	client   *http.Client
	logger   *zap.Logger

	mu    sync.Mutex
	cache map[string]cachedToken
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// NewOAuthTokenSource builds a token source signing assertions with the
// tool's private key.
func NewOAuthTokenSource(registry platformRegistry, key *rsa.PrivateKey, keyID string, timeout time.Duration, logger *zap.Logger) *OAuthTokenSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OAuthTokenSource{
		registry: registry,
		key:      key,
		keyID:    keyID,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		cache:    make(map[string]cachedToken),
	}
}

func (s *OAuthTokenSource) AccessToken(ctx context.Context, token *models.LaunchToken, scopes []string) (string, error) {
	cacheKey := token.Issuer + "|" + token.ClientID + "|" + strings.Join(scopes, " ")

	s.mu.Lock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.Unlock()
		return cached.value, nil
	}
	s.mu.Unlock()

	platform, err := s.registry.FindByIssuerClient(ctx, token.Issuer, token.ClientID)
	if err != nil {
		return "", fmt.Errorf("resolve platform registration: %w", err)
	}

	assertion, err := s.signAssertion(token.ClientID, platform.TokenEndpoint)
	if err != nil {
		return "", fmt.Errorf("sign client assertion: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_assertion_type", "urn:ietf:params:oauth:client-assertion-type:jwt-bearer")
	form.Set("client_assertion", assertion)
	form.Set("scope", strings.Join(scopes, " "))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, platform.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if grant.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}

	ttl := time.Duration(grant.ExpiresIn) * time.Second
	if ttl > 30*time.Second {
		ttl -= 30 * time.Second
	}

	s.mu.Lock()
	s.cache[cacheKey] = cachedToken{value: grant.AccessToken, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()

	s.logger.Debug("access token obtained",
		zap.String("issuer", token.Issuer),
		zap.Strings("scopes", scopes))

	return grant.AccessToken, nil
}

func (s *OAuthTokenSource) signAssertion(clientID, tokenEndpoint string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": clientID,
		"sub": clientID,
		"aud": tokenEndpoint,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
	}
	assertion := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.keyID != "" {
		assertion.Header["kid"] = s.keyID
	}
	return assertion.SignedString(s.key)
}
