package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edurun/lti-gateway/internal/lti"
	"github.com/edurun/lti-gateway/internal/models"
	"github.com/edurun/lti-gateway/internal/service"
	"github.com/edurun/lti-gateway/pkg/response"
)

type sessionSaver interface {
	Save(ctx context.Context, token *models.LaunchToken, ttl time.Duration) (string, error)
}

type launchDispatcher interface {
	Dispatch(token *models.LaunchToken, queryType, userID, assessmentID string) (string, error)
	DispatchDeepLinking(token *models.LaunchToken) string
	Intent(queryType string) string
}

// LaunchHandler receives platform launch callbacks and redirects the browser
// into the frontend.
type LaunchHandler struct {
	validator  lti.Validator
	sessions   sessionSaver
	dispatcher launchDispatcher
	roles      *service.RoleResolver
	metrics    *service.MetricsService
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewLaunchHandler constructs a LaunchHandler.
func NewLaunchHandler(validator lti.Validator, sessions sessionSaver, dispatcher launchDispatcher, roles *service.RoleResolver, metrics *service.MetricsService, sessionTTL time.Duration, logger *zap.Logger) *LaunchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LaunchHandler{
		validator:  validator,
		sessions:   sessions,
		dispatcher: dispatcher,
		roles:      roles,
		metrics:    metrics,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// Launch handles POST /launch. The platform posts the id token here after
// its OIDC flow; a valid launch ends in a 302 into the frontend carrying a
// fresh ltik.
func (h *LaunchHandler) Launch(c *gin.Context) {
	token, err := h.validator.ValidateLaunch(c.Request.Context(), c.Request)
	if err != nil {
		response.Error(c, err)
		return
	}

	if _, err := h.sessions.Save(c.Request.Context(), token, h.sessionTTL); err != nil {
		response.Error(c, err)
		return
	}

	queryType := c.Query("type")
	destination, err := h.dispatcher.Dispatch(token, queryType, c.Query("user_id"), c.Query("assessment_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	role := h.roles.Resolve(token.Roles)
	h.metrics.RecordLaunch(string(role), h.dispatcher.Intent(queryType))
	h.logger.Info("launch dispatched",
		zap.String("user", token.User),
		zap.String("role", string(role)),
		zap.String("destination", destination))

	c.Redirect(http.StatusFound, destination)
}

// DeepLaunch handles POST /deeplaunch, the deep-linking variant of the
// launch callback. It always targets the resource-selection view.
func (h *LaunchHandler) DeepLaunch(c *gin.Context) {
	token, err := h.validator.ValidateDeepLinking(c.Request.Context(), c.Request)
	if err != nil {
		response.Error(c, err)
		return
	}

	if _, err := h.sessions.Save(c.Request.Context(), token, h.sessionTTL); err != nil {
		response.Error(c, err)
		return
	}

	role := h.roles.Resolve(token.Roles)
	h.metrics.RecordLaunch(string(role), service.IntentDeepLinking)

	c.Redirect(http.StatusFound, h.dispatcher.DispatchDeepLinking(token))
}
