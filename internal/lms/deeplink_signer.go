package lms

import (
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

// LTI claim names used in the deep-linking response JWT.
const (
	claimMessageType  = "https://purl.imsglobal.org/spec/lti/claim/message_type"
	claimVersion      = "https://purl.imsglobal.org/spec/lti/claim/version"
	claimDeploymentID = "https://purl.imsglobal.org/spec/lti/claim/deployment_id"
	claimContentItems = "https://purl.imsglobal.org/spec/lti-dl/claim/content_items"
	claimDLMessage    = "https://purl.imsglobal.org/spec/lti-dl/claim/msg"
	claimDLData       = "https://purl.imsglobal.org/spec/lti-dl/claim/data"
)

// DeepLinkSigner signs LtiDeepLinkingResponse JWTs with the tool's private
// key. The platform verifies them against the tool's published keyset.
type DeepLinkSigner struct {
	key   *rsa.PrivateKey
	keyID string
}

// NewDeepLinkSigner builds a signer for deep-linking responses.
func NewDeepLinkSigner(key *rsa.PrivateKey, keyID string) *DeepLinkSigner {
	return &DeepLinkSigner{key: key, keyID: keyID}
}

// SignResponse wraps the content items into a signed deep-linking response
// JWT bound to the launch's platform and deployment.
func (s *DeepLinkSigner) SignResponse(token *models.LaunchToken, items []models.ContentItem, message string) (string, error) {
	if s.key == nil {
		return "", appErrors.Clone(appErrors.ErrDeepLinking, "tool signing key not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":             token.ClientID,
		"aud":             token.Issuer,
		"azp":             token.Issuer,
		"nonce":           uuid.NewString(),
		"iat":             now.Unix(),
		"exp":             now.Add(5 * time.Minute).Unix(),
		claimMessageType:  "LtiDeepLinkingResponse",
		claimVersion:      "1.3.0",
		claimDeploymentID: token.DeploymentID,
		claimContentItems: items,
	}
	if message != "" {
		claims[claimDLMessage] = message
	}
	if token.Platform.DeepLinking.Data != "" {
		claims[claimDLData] = token.Platform.DeepLinking.Data
	}

	response := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.keyID != "" {
		response.Header["kid"] = s.keyID
	}

	signed, err := response.SignedString(s.key)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrDeepLinking.Code, appErrors.ErrDeepLinking.Status, "sign deep linking response")
	}
	return signed, nil
}
