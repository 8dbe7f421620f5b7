package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

// errorBody is the error contract of the public surface: a single
// human-readable message under "err".
type errorBody struct {
	Err string `json:"err"`
}

// JSON sends a success payload as-is. Launch-session responses must never be
// cached by intermediaries.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// OK responds with HTTP 200.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data)
}

// Raw sends an already-encoded JSON payload without re-marshalling, used to
// relay platform acknowledgments verbatim.
func Raw(c *gin.Context, status int, payload []byte) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.Data(status, "application/json; charset=utf-8", payload)
}

// HTML sends a rendered HTML document, used for the deep-linking
// auto-submit form.
func HTML(c *gin.Context, status int, body string) {
	c.Header("Cache-Control", "no-store")
	c.Data(status, "text/html; charset=utf-8", []byte(body))
}

// Error maps the error onto its HTTP status and the {"err": ...} body.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, errorBody{Err: appErr.Message})
}
