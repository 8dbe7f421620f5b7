package lti

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

// Message types of the launches this tool accepts.
const (
	MessageTypeResourceLink = "LtiResourceLinkRequest"
	MessageTypeDeepLinking  = "LtiDeepLinkingRequest"
)

// Validator authenticates inbound launches. It is the boundary to the LTI
// security layer: downstream components only ever see the resulting
// LaunchToken and can be tested with fabricated ones.
type Validator interface {
	ValidateLaunch(ctx context.Context, r *http.Request) (*models.LaunchToken, error)
	ValidateDeepLinking(ctx context.Context, r *http.Request) (*models.LaunchToken, error)
}

type platformRegistry interface {
	FindByIssuerClient(ctx context.Context, issuer, clientID string) (*models.PlatformRegistration, error)
}

// JWTValidator verifies the id_token of a launch against the registered
// platform's key and maps its claims into a LaunchToken. Keyset rotation is
// not handled here; registrations carry a pinned public key.
type JWTValidator struct {
	registry platformRegistry
	logger   *zap.Logger
}

// NewJWTValidator builds a validator over the platform registry.
func NewJWTValidator(registry platformRegistry, logger *zap.Logger) *JWTValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTValidator{registry: registry, logger: logger}
}

func (v *JWTValidator) ValidateLaunch(ctx context.Context, r *http.Request) (*models.LaunchToken, error) {
	return v.validate(ctx, r, MessageTypeResourceLink)
}

func (v *JWTValidator) ValidateDeepLinking(ctx context.Context, r *http.Request) (*models.LaunchToken, error) {
	return v.validate(ctx, r, MessageTypeDeepLinking)
}

func (v *JWTValidator) validate(ctx context.Context, r *http.Request, messageType string) (*models.LaunchToken, error) {
	idToken := r.FormValue("id_token")
	if idToken == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "launch request carries no id token")
	}

	// Peek at issuer and audience to find the registration; the signature
	// is verified right after against that platform's key.
	unverified, _, err := jwt.NewParser().ParseUnverified(idToken, &launchClaims{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "malformed id token")
	}
	peek := unverified.Claims.(*launchClaims)
	if len(peek.Audience) == 0 {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "id token carries no audience")
	}
	clientID := peek.Audience[0]

	platform, err := v.registry.FindByIssuerClient(ctx, peek.Issuer, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "platform is not registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "platform registry lookup failed")
	}
	if platform.PublicKeyPEM == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "platform registration has no verification key")
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(platform.PublicKeyPEM))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid platform verification key")
	}

	claims := &launchClaims{}
	if _, err := jwt.ParseWithClaims(idToken, claims, func(*jwt.Token) (interface{}, error) {
		return publicKey, nil
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(platform.Issuer),
		jwt.WithAudience(platform.ClientID),
	); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "id token verification failed")
	}

	if claims.MessageType != messageType {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected launch message type "+claims.MessageType)
	}

	v.logger.Info("launch validated",
		zap.String("issuer", platform.Issuer),
		zap.String("message_type", claims.MessageType),
		zap.String("user", claims.Subject))

	return claims.toLaunchToken(platform.ClientID), nil
}

// launchClaims maps the LTI 1.3 id token onto Go types. Only the claims the
// gateway consumes are declared.
type launchClaims struct {
	jwt.RegisteredClaims

	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`

	MessageType  string   `json:"https://purl.imsglobal.org/spec/lti/claim/message_type"`
	Version      string   `json:"https://purl.imsglobal.org/spec/lti/claim/version"`
	DeploymentID string   `json:"https://purl.imsglobal.org/spec/lti/claim/deployment_id"`
	TargetLink   string   `json:"https://purl.imsglobal.org/spec/lti/claim/target_link_uri"`
	Roles        []string `json:"https://purl.imsglobal.org/spec/lti/claim/roles"`

	Context struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Title string `json:"title"`
	} `json:"https://purl.imsglobal.org/spec/lti/claim/context"`

	ResourceLink struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"https://purl.imsglobal.org/spec/lti/claim/resource_link"`

	Endpoint struct {
		LineItem  string   `json:"lineitem"`
		LineItems string   `json:"lineitems"`
		Scope     []string `json:"scope"`
	} `json:"https://purl.imsglobal.org/spec/lti-ags/claim/endpoint"`

	NamesRoles struct {
		ContextMembershipsURL string `json:"context_memberships_url"`
	} `json:"https://purl.imsglobal.org/spec/lti-nrps/claim/namesrolesservice"`

	DeepLinkingSettings struct {
		ReturnURL string `json:"deep_link_return_url"`
		Data      string `json:"data"`
	} `json:"https://purl.imsglobal.org/spec/lti-dl/claim/deep_linking_settings"`

	Custom map[string]string `json:"https://purl.imsglobal.org/spec/lti/claim/custom"`

	ToolPlatform struct {
		GUID              string `json:"guid"`
		Name              string `json:"name"`
		Version           string `json:"version"`
		ProductFamilyCode string `json:"product_family_code"`
	} `json:"https://purl.imsglobal.org/spec/lti/claim/tool_platform"`
}

func (c *launchClaims) toLaunchToken(clientID string) *models.LaunchToken {
	return &models.LaunchToken{
		Issuer:       c.Issuer,
		ClientID:     clientID,
		DeploymentID: c.DeploymentID,
		User:         c.Subject,
		Roles:        c.Roles,
		UserInfo: models.UserDetails{
			Name:  c.Name,
			Email: c.Email,
		},
		Platform: models.PlatformContext{
			Context: models.CourseContext{
				ID:    c.Context.ID,
				Label: c.Context.Label,
				Title: c.Context.Title,
			},
			Resource: models.ResourceLink{
				ID:          c.ResourceLink.ID,
				Title:       c.ResourceLink.Title,
				Description: c.ResourceLink.Description,
			},
			Endpoint: models.ServiceEndpoint{
				LineItem:  c.Endpoint.LineItem,
				LineItems: c.Endpoint.LineItems,
				Scope:     c.Endpoint.Scope,
			},
			NamesRoles: models.NamesRolesService{
				ContextMembershipsURL: c.NamesRoles.ContextMembershipsURL,
			},
			DeepLinking: models.DeepLinkSettings{
				ReturnURL: c.DeepLinkingSettings.ReturnURL,
				Data:      c.DeepLinkingSettings.Data,
			},
			Custom:       c.Custom,
			LaunchTarget: c.TargetLink,
		},
		PlatformInfo: models.PlatformInfo{
			GUID:              c.ToolPlatform.GUID,
			Name:              c.ToolPlatform.Name,
			Version:           c.ToolPlatform.Version,
			ProductFamilyCode: c.ToolPlatform.ProductFamilyCode,
		},
	}
}
