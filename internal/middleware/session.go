package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edurun/lti-gateway/internal/repository"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
	"github.com/edurun/lti-gateway/pkg/response"
)

// ContextTokenKey is the gin context key storing the launch token.
const ContextTokenKey = "launchToken"

// Session protects routes by requiring a valid ltik. The token is taken from
// the Authorization header first, then from the ltik query parameter so
// redirect targets can authenticate without headers.
func Session(store repository.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ltik := bearerToken(c)
		if ltik == "" {
			ltik = c.Query("ltik")
		}
		if ltik == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing ltik"))
			c.Abort()
			return
		}

		token, err := store.Find(c.Request.Context(), ltik)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired ltik"))
			c.Abort()
			return
		}

		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
