package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/edurun/lti-gateway/internal/middleware"
	"github.com/edurun/lti-gateway/internal/models"
)

func tokenFromContext(c *gin.Context) *models.LaunchToken {
	value, exists := c.Get(middleware.ContextTokenKey)
	if !exists {
		return nil
	}
	token, ok := value.(*models.LaunchToken)
	if !ok {
		return nil
	}
	return token
}
