package service

import (
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/edurun/lti-gateway/internal/models"
	"github.com/edurun/lti-gateway/pkg/config"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

// Launch intents derived from the request's type query parameter.
const (
	IntentPlain       = "plain"
	IntentReview      = "review"
	IntentDeepLinking = "deep_linking"
)

// LaunchService decides which frontend view a validated launch is sent to.
// It only computes URLs; the HTTP layer performs the actual redirect.
type LaunchService struct {
	frontend config.FrontendConfig
	logger   *zap.Logger
}

// NewLaunchService constructs a LaunchService for the configured frontend.
func NewLaunchService(frontend config.FrontendConfig, logger *zap.Logger) *LaunchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LaunchService{frontend: frontend, logger: logger}
}

// Dispatch maps a validated launch and its query intent to a redirect URL.
// Branches, in order:
//
//  1. no type: the landing page, unless the platform pre-selected an
//     assessment through the deep-linking custom value, which routes the
//     user straight into the student runner;
//  2. type=review: the teacher review view, requiring user_id and
//     assessment_id;
//  3. anything else: the landing page.
//
// Every branch carries the ltik so the SPA can re-establish its session.
func (s *LaunchService) Dispatch(token *models.LaunchToken, queryType, userID, assessmentID string) (string, error) {
	switch queryType {
	case "":
		if value, ok := token.CustomValue(); ok {
			return s.studentURL(token.SessionID, value), nil
		}
		return s.landingURL(token.SessionID), nil

	case "review":
		if userID == "" || assessmentID == "" {
			return "", appErrors.Clone(appErrors.ErrMissingParameter, "review launch requires user_id and assessment_id")
		}
		return s.reviewURL(token.SessionID, userID, assessmentID), nil

	default:
		// Unknown intents never fail a launch; they fall back to the
		// landing page.
		s.logger.Warn("unknown launch type, using landing destination", zap.String("type", queryType))
		return s.landingURL(token.SessionID), nil
	}
}

// Intent classifies the query type for observability. Deep-linking launches
// never reach Dispatch; the platform's message type routes them separately.
func (s *LaunchService) Intent(queryType string) string {
	if queryType == "review" {
		return IntentReview
	}
	return IntentPlain
}

// DispatchDeepLinking targets the resource-selection view. Triggered by the
// platform's LtiDeepLinkingRequest message, not by a query parameter.
func (s *LaunchService) DispatchDeepLinking(token *models.LaunchToken) string {
	return s.buildURL(s.frontend.SelectPath+"/", url.Values{"ltik": {token.SessionID}})
}

func (s *LaunchService) landingURL(ltik string) string {
	return s.buildURL("/", url.Values{"ltik": {ltik}})
}

func (s *LaunchService) studentURL(ltik, assessmentID string) string {
	path := s.frontend.StudentPath + "/" + url.PathEscape(assessmentID) + "/"
	return s.buildURL(path, url.Values{"ltik": {ltik}})
}

func (s *LaunchService) reviewURL(ltik, userID, assessmentID string) string {
	query := url.Values{
		"ltik":          {ltik},
		"user_id":       {userID},
		"assessment_id": {assessmentID},
	}
	return s.buildURL(s.frontend.ReviewPath+"/", query)
}

func (s *LaunchService) buildURL(path string, query url.Values) string {
	base := strings.TrimRight(s.frontend.BaseURL, "/")
	return base + path + "?" + query.Encode()
}
