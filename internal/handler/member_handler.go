package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edurun/lti-gateway/internal/models"
	"github.com/edurun/lti-gateway/internal/service"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
	"github.com/edurun/lti-gateway/pkg/response"
)

type memberLister interface {
	List(ctx context.Context, token *models.LaunchToken) ([]models.Member, error)
	ExportRoster(ctx context.Context, token *models.LaunchToken, format string) ([]byte, string, error)
}

// MemberHandler exposes course membership.
type MemberHandler struct {
	members memberLister
}

// NewMemberHandler constructs handler.
func NewMemberHandler(members memberLister) *MemberHandler {
	return &MemberHandler{members: members}
}

// List handles GET /members.
func (h *MemberHandler) List(c *gin.Context) {
	token := tokenFromContext(c)
	if token == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	members, err := h.members.List(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	if members == nil {
		members = []models.Member{}
	}
	response.OK(c, members)
}

// Export handles GET /members/export?format=csv|pdf.
func (h *MemberHandler) Export(c *gin.Context) {
	token := tokenFromContext(c)
	if token == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := c.DefaultQuery("format", service.ExportFormatCSV)
	data, contentType, err := h.members.ExportRoster(c.Request.Context(), token, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", `attachment; filename="roster.`+format+`"`)
	c.Data(http.StatusOK, contentType, data)
}
