package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
	"github.com/edurun/lti-gateway/pkg/response"
)

type gradeSubmitter interface {
	SubmitGrade(ctx context.Context, token *models.LaunchToken, score float64) (*models.SubmissionResult, error)
}

// SubmitGradeRequest is the payload of POST /grade.
type SubmitGradeRequest struct {
	Grade *float64 `json:"grade" binding:"required"`
}

// GradeHandler exposes grade passback.
type GradeHandler struct {
	grades gradeSubmitter
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades gradeSubmitter) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// Submit handles POST /grade for the launched user's session.
func (h *GradeHandler) Submit(c *gin.Context) {
	token := tokenFromContext(c)
	if token == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req SubmitGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrMissingParameter.Code, http.StatusBadRequest, "grade is required"))
		return
	}

	result, err := h.grades.SubmitGrade(c.Request.Context(), token, *req.Grade)
	if err != nil {
		response.Error(c, err)
		return
	}

	// The platform acknowledgment is relayed as-is. Some platforms
	// acknowledge with an empty body.
	body := result.Body
	if len(body) == 0 {
		body = []byte(`{}`)
	}
	response.Raw(c, http.StatusOK, body)
}
