package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edurun/lti-gateway/internal/models"
	"github.com/edurun/lti-gateway/pkg/config"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
	"github.com/edurun/lti-gateway/pkg/response"
)

type deepLinkResponder interface {
	BuildResponseForm(token *models.LaunchToken, name, value string) (string, error)
}

// DeepLinkRequest is the payload of POST /deeplink: the catalog entry the
// teacher selected.
type DeepLinkRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// DeepLinkHandler exposes the deep-linking response flow and the resource
// catalog behind it.
type DeepLinkHandler struct {
	deeplinks deepLinkResponder
	resources []config.Resource
}

// NewDeepLinkHandler constructs handler.
func NewDeepLinkHandler(deeplinks deepLinkResponder, resources []config.Resource) *DeepLinkHandler {
	return &DeepLinkHandler{deeplinks: deeplinks, resources: resources}
}

// Respond handles POST /deeplink, returning the auto-submit form that hands
// the signed selection back to the platform.
func (h *DeepLinkHandler) Respond(c *gin.Context) {
	token := tokenFromContext(c)
	if token == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req DeepLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrMissingParameter.Code, http.StatusBadRequest, "name and value are required"))
		return
	}

	form, err := h.deeplinks.BuildResponseForm(token, req.Name, req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.HTML(c, http.StatusOK, form)
}

// Resources handles GET /resources, the static catalog the selection view
// renders.
func (h *DeepLinkHandler) Resources(c *gin.Context) {
	response.OK(c, h.resources)
}
