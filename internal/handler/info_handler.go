package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
	"github.com/edurun/lti-gateway/pkg/response"
)

// InfoHandler exposes read-only views over the launch session.
type InfoHandler struct{}

// NewInfoHandler constructs handler.
func NewInfoHandler() *InfoHandler {
	return &InfoHandler{}
}

// User handles GET /info/user.
func (h *InfoHandler) User(c *gin.Context) {
	token := tokenFromContext(c)
	if token == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.OK(c, models.UserInfoResponse{
		UserID: token.User,
		Roles:  token.Roles,
		Name:   token.UserInfo.Name,
	})
}

// Course handles GET /info/course.
func (h *InfoHandler) Course(c *gin.Context) {
	token := tokenFromContext(c)
	if token == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.OK(c, models.CourseInfoResponse{
		ID:    token.Platform.Context.ID,
		Label: token.Platform.Context.Label,
		Title: token.Platform.Context.Title,
	})
}

// Platform handles GET /info/platform.
func (h *InfoHandler) Platform(c *gin.Context) {
	token := tokenFromContext(c)
	if token == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.OK(c, models.PlatformInfoResponse{
		GUID:              token.PlatformInfo.GUID,
		Name:              token.PlatformInfo.Name,
		Version:           token.PlatformInfo.Version,
		ProductFamilyCode: token.PlatformInfo.ProductFamilyCode,
	})
}

// Assignment handles GET /info/assignment. The body is the raw line item
// reference from the launch, or empty when the platform sent none.
func (h *InfoHandler) Assignment(c *gin.Context) {
	token := tokenFromContext(c)
	if token == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.String(http.StatusOK, token.Platform.Endpoint.LineItem)
}
