package service

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edurun/lti-gateway/internal/models"
	"github.com/edurun/lti-gateway/pkg/config"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

func newLaunchService() *LaunchService {
	return NewLaunchService(config.FrontendConfig{
		BaseURL:     "https://app.example.edu",
		StudentPath: "/estudiante/evaluacion",
		ReviewPath:  "/docente/review",
		SelectPath:  "/docente/seleccionar_evaluacion",
	}, nil)
}

func launchToken(custom map[string]string) *models.LaunchToken {
	return &models.LaunchToken{
		SessionID: "ltik-1",
		Platform:  models.PlatformContext{Custom: custom},
	}
}

func parseDestination(t *testing.T, raw string) *url.URL {
	t.Helper()
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	return parsed
}

func TestDispatchPlainLaunchLandsOnHome(t *testing.T) {
	svc := newLaunchService()

	dest, err := svc.Dispatch(launchToken(nil), "", "", "")
	require.NoError(t, err)

	parsed := parseDestination(t, dest)
	assert.Equal(t, "/", parsed.Path)
	assert.Equal(t, "ltik-1", parsed.Query().Get("ltik"))
}

func TestDispatchPlainLaunchWithCustomValueGoesToStudentRunner(t *testing.T) {
	svc := newLaunchService()

	dest, err := svc.Dispatch(launchToken(map[string]string{"value": "42"}), "", "", "")
	require.NoError(t, err)

	parsed := parseDestination(t, dest)
	assert.Equal(t, "/estudiante/evaluacion/42/", parsed.Path)
	assert.Equal(t, "ltik-1", parsed.Query().Get("ltik"))
}

func TestDispatchReviewLaunch(t *testing.T) {
	svc := newLaunchService()

	dest, err := svc.Dispatch(launchToken(nil), "review", "user-9", "assess-3")
	require.NoError(t, err)

	parsed := parseDestination(t, dest)
	assert.Equal(t, "/docente/review/", parsed.Path)
	assert.Equal(t, "ltik-1", parsed.Query().Get("ltik"))
	assert.Equal(t, "user-9", parsed.Query().Get("user_id"))
	assert.Equal(t, "assess-3", parsed.Query().Get("assessment_id"))
}

func TestDispatchReviewLaunchMissingParams(t *testing.T) {
	svc := newLaunchService()

	_, err := svc.Dispatch(launchToken(nil), "review", "user-9", "")
	assert.ErrorIs(t, err, appErrors.ErrMissingParameter)

	_, err = svc.Dispatch(launchToken(nil), "review", "", "assess-3")
	assert.ErrorIs(t, err, appErrors.ErrMissingParameter)
}

func TestDispatchUnknownTypeFallsBackToLanding(t *testing.T) {
	svc := newLaunchService()

	dest, err := svc.Dispatch(launchToken(map[string]string{"value": "42"}), "whatever", "", "")
	require.NoError(t, err)

	parsed := parseDestination(t, dest)
	assert.Equal(t, "/", parsed.Path)
	assert.Equal(t, "ltik-1", parsed.Query().Get("ltik"))
}

func TestDispatchDeepLinking(t *testing.T) {
	svc := newLaunchService()

	parsed := parseDestination(t, svc.DispatchDeepLinking(launchToken(nil)))
	assert.Equal(t, "/docente/seleccionar_evaluacion/", parsed.Path)
	assert.Equal(t, "ltik-1", parsed.Query().Get("ltik"))
}

func TestIntent(t *testing.T) {
	svc := newLaunchService()

	assert.Equal(t, IntentReview, svc.Intent("review"))
	assert.Equal(t, IntentPlain, svc.Intent(""))
	assert.Equal(t, IntentPlain, svc.Intent("whatever"))
}
