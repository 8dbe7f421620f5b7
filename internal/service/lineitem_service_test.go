package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

type stubAGS struct {
	items        []models.LineItem
	listErr      error
	createErr    error
	submitErr    error
	submitBody   json.RawMessage
	listCalls    int
	createCalls  int
	submitCalls  int
	lastCreated  models.LineItem
	lastSubmit   models.GradeSubmission
	lastLineItem string
}

func (s *stubAGS) ListLineItems(_ context.Context, _ *models.LaunchToken, _ string) ([]models.LineItem, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.items, nil
}

func (s *stubAGS) CreateLineItem(_ context.Context, _ *models.LaunchToken, item models.LineItem) (*models.LineItem, error) {
	s.createCalls++
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.lastCreated = item
	created := item
	created.ID = "https://lms.example.edu/lineitems/created"
	s.items = append(s.items, created)
	return &created, nil
}

func (s *stubAGS) SubmitScore(_ context.Context, _ *models.LaunchToken, lineItemID string, submission models.GradeSubmission) (*models.SubmissionResult, error) {
	s.submitCalls++
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.lastLineItem = lineItemID
	s.lastSubmit = submission
	body := s.submitBody
	if body == nil {
		body = json.RawMessage(`{}`)
	}
	return &models.SubmissionResult{LineItemID: lineItemID, Body: body}, nil
}

func gradingToken(embedded, resourceLink string) *models.LaunchToken {
	return &models.LaunchToken{
		SessionID:    "ltik-1",
		Issuer:       "https://lms.example.edu",
		ClientID:     "client-1",
		User:         "user-1",
		PlatformInfo: models.PlatformInfo{GUID: "guid-1"},
		Platform: models.PlatformContext{
			Resource: models.ResourceLink{ID: resourceLink},
			Endpoint: models.ServiceEndpoint{
				LineItem:  embedded,
				LineItems: "https://lms.example.edu/lineitems",
			},
		},
	}
}

func TestResolveUsesEmbeddedLineItem(t *testing.T) {
	ags := &stubAGS{listErr: appErrors.ErrGradeService}
	svc := NewLineItemService(ags, nil, nil)

	id, err := svc.Resolve(context.Background(), gradingToken("https://lms.example.edu/lineitems/9", "rl-1"))
	require.NoError(t, err)
	assert.Equal(t, "https://lms.example.edu/lineitems/9", id)
	assert.Zero(t, ags.listCalls)
	assert.Zero(t, ags.createCalls)
}

func TestResolvePicksFirstExistingLineItem(t *testing.T) {
	ags := &stubAGS{items: []models.LineItem{
		{ID: "https://lms.example.edu/lineitems/1"},
		{ID: "https://lms.example.edu/lineitems/2"},
	}}
	svc := NewLineItemService(ags, nil, nil)

	id, err := svc.Resolve(context.Background(), gradingToken("", "rl-1"))
	require.NoError(t, err)
	assert.Equal(t, "https://lms.example.edu/lineitems/1", id)
	assert.Zero(t, ags.createCalls)
}

func TestResolveCreatesLineItemWhenNoneExist(t *testing.T) {
	ags := &stubAGS{}
	svc := NewLineItemService(ags, nil, nil)
	token := gradingToken("", "rl-1")

	id, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "https://lms.example.edu/lineitems/created", id)
	assert.Equal(t, 1, ags.createCalls)
	assert.Equal(t, float64(100), ags.lastCreated.ScoreMaximum)
	assert.Equal(t, "Grade", ags.lastCreated.Label)
	assert.Equal(t, "grade", ags.lastCreated.Tag)
	assert.Equal(t, "rl-1", ags.lastCreated.ResourceLinkID)

	// A second resolve finds the created item and does not create another.
	id, err = svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "https://lms.example.edu/lineitems/created", id)
	assert.Equal(t, 1, ags.createCalls)
}

func TestResolveWithoutResourceLinkIsAmbiguous(t *testing.T) {
	ags := &stubAGS{}
	svc := NewLineItemService(ags, nil, nil)

	_, err := svc.Resolve(context.Background(), gradingToken("", ""))
	assert.ErrorIs(t, err, appErrors.ErrAmbiguousContext)
	assert.Zero(t, ags.listCalls)
}

func TestResolvePropagatesListFailure(t *testing.T) {
	ags := &stubAGS{listErr: appErrors.Clone(appErrors.ErrGradeService, "platform down")}
	svc := NewLineItemService(ags, nil, nil)

	_, err := svc.Resolve(context.Background(), gradingToken("", "rl-1"))
	assert.ErrorIs(t, err, appErrors.ErrGradeService)
	assert.Zero(t, ags.createCalls)
}
