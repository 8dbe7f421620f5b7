package service

import (
	"fmt"
	"html"

	"go.uber.org/zap"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

type deepLinkSigner interface {
	SignResponse(token *models.LaunchToken, items []models.ContentItem, message string) (string, error)
}

// DeepLinkService turns a teacher's catalog selection into the signed
// response the platform consumes.
type DeepLinkService struct {
	signer deepLinkSigner
	logger *zap.Logger
}

// NewDeepLinkService constructs a DeepLinkService.
func NewDeepLinkService(signer deepLinkSigner, logger *zap.Logger) *DeepLinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeepLinkService{signer: signer, logger: logger}
}

// BuildResponseForm signs a single-item deep-linking response and wraps it
// in an auto-submitting HTML form targeting the platform's return URL. The
// browser completes the handoff; the gateway never calls the platform here.
func (s *DeepLinkService) BuildResponseForm(token *models.LaunchToken, name, value string) (string, error) {
	returnURL := token.Platform.DeepLinking.ReturnURL
	if returnURL == "" {
		return "", appErrors.Clone(appErrors.ErrDeepLinking, "launch context has no deep linking return url")
	}

	items := []models.ContentItem{models.NewResourceLinkItem(name, value)}
	jwt, err := s.signer.SignResponse(token, items, "Successfully registered resource!")
	if err != nil {
		s.logger.Error("deep linking response signing failed", zap.Error(err))
		return "", err
	}

	s.logger.Info("deep linking response built",
		zap.String("resource", name),
		zap.String("return_url", returnURL))

	return autoSubmitForm(returnURL, jwt), nil
}

func autoSubmitForm(action, jwt string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
<form id="ltijs_submit" action="%s" method="POST">
<input type="hidden" name="JWT" value="%s" />
</form>
<script>document.getElementById("ltijs_submit").submit()</script>
</body>
</html>`, html.EscapeString(action), html.EscapeString(jwt))
}
