package lms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

const mediaTypeMembershipContainer = "application/vnd.ims.lti-nrps.v2.membershipcontainer+json"

// NRPSClient reads course membership from a platform's Names and Role
// Provisioning Service.
type NRPSClient struct {
	client *http.Client
	tokens TokenSource
	logger *zap.Logger
}

// NewNRPSClient builds an NRPS client with a bounded per-call timeout.
func NewNRPSClient(timeout time.Duration, tokens TokenSource, logger *zap.Logger) *NRPSClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NRPSClient{
		client: &http.Client{Timeout: timeout},
		tokens: tokens,
		logger: logger,
	}
}

// GetMembers lists the members of the launched course context.
func (c *NRPSClient) GetMembers(ctx context.Context, token *models.LaunchToken) ([]models.Member, error) {
	endpoint := token.Platform.NamesRoles.ContextMembershipsURL
	if endpoint == "" {
		return nil, appErrors.Clone(appErrors.ErrGradeService, "launch context exposes no membership service")
	}

	accessToken, err := c.tokens.AccessToken(ctx, token, []string{ScopeContextMembership})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "obtain service access token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "build membership request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", mediaTypeMembershipContainer)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "platform membership service unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "read membership response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, appErrors.Clone(appErrors.ErrGradeService, fmt.Sprintf("platform membership service returned %d", resp.StatusCode))
	}

	var container struct {
		Members []models.Member `json:"members"`
	}
	if err := json.Unmarshal(body, &container); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "decode membership container")
	}

	c.logger.Debug("membership fetched",
		zap.String("context", token.Platform.Context.ID),
		zap.Int("members", len(container.Members)))

	return container.Members, nil
}
