package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

type stubSigner struct {
	jwt   string
	err   error
	items []models.ContentItem
}

func (s *stubSigner) SignResponse(_ *models.LaunchToken, items []models.ContentItem, _ string) (string, error) {
	s.items = items
	if s.err != nil {
		return "", s.err
	}
	return s.jwt, nil
}

func deepLinkToken(returnURL string) *models.LaunchToken {
	return &models.LaunchToken{
		Issuer:   "https://lms.example.edu",
		ClientID: "client-1",
		Platform: models.PlatformContext{
			DeepLinking: models.DeepLinkSettings{ReturnURL: returnURL},
		},
	}
}

func TestBuildResponseForm(t *testing.T) {
	signer := &stubSigner{jwt: "signed.jwt.value"}
	svc := NewDeepLinkService(signer, nil)

	form, err := svc.BuildResponseForm(deepLinkToken("https://lms.example.edu/deeplink/return"), "Resource1", "value1")
	require.NoError(t, err)

	assert.Contains(t, form, `action="https://lms.example.edu/deeplink/return"`)
	assert.Contains(t, form, `name="JWT" value="signed.jwt.value"`)
	assert.Contains(t, form, "submit()")

	require.Len(t, signer.items, 1)
	assert.Equal(t, models.ContentItemTypeResourceLink, signer.items[0].Type)
	assert.Equal(t, "Resource1", signer.items[0].Title)
	assert.Equal(t, "value1", signer.items[0].Custom["value"])
}

func TestBuildResponseFormWithoutReturnURL(t *testing.T) {
	svc := NewDeepLinkService(&stubSigner{jwt: "unused"}, nil)

	_, err := svc.BuildResponseForm(deepLinkToken(""), "Resource1", "value1")
	assert.ErrorIs(t, err, appErrors.ErrDeepLinking)
}

func TestBuildResponseFormSigningFailure(t *testing.T) {
	signer := &stubSigner{err: appErrors.Clone(appErrors.ErrDeepLinking, "no key")}
	svc := NewDeepLinkService(signer, nil)

	_, err := svc.BuildResponseForm(deepLinkToken("https://lms.example.edu/deeplink/return"), "Resource1", "value1")
	assert.ErrorIs(t, err, appErrors.ErrDeepLinking)
}
