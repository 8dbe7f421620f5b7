package lms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

func nrpsToken(membershipURL string) *models.LaunchToken {
	return &models.LaunchToken{
		Issuer:   "https://lms.example.edu",
		ClientID: "client-1",
		Platform: models.PlatformContext{
			Context:    models.CourseContext{ID: "course-1"},
			NamesRoles: models.NamesRolesService{ContextMembershipsURL: membershipURL},
		},
	}
}

func TestGetMembers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer stub-access-token", r.Header.Get("Authorization"))
		assert.Equal(t, mediaTypeMembershipContainer, r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"id":"https://lms.example.edu/memberships","members":[
			{"user_id":"u1","status":"Active","name":"Ada","roles":["http://purl.imsglobal.org/vocab/lis/v2/membership#Instructor"]},
			{"user_id":"u2","status":"Active","name":"Grace","roles":["http://purl.imsglobal.org/vocab/lis/v2/membership#Learner"]}
		]}`))
	}))
	t.Cleanup(server.Close)

	client := NewNRPSClient(time.Second, &stubTokenSource{}, nil)
	members, err := client.GetMembers(context.Background(), nrpsToken(server.URL))
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "u1", members[0].UserID)
	assert.Equal(t, "Grace", members[1].Name)
}

func TestGetMembersNoEndpoint(t *testing.T) {
	client := NewNRPSClient(time.Second, &stubTokenSource{}, nil)
	_, err := client.GetMembers(context.Background(), nrpsToken(""))
	assert.ErrorIs(t, err, appErrors.ErrGradeService)
}

func TestGetMembersPlatformFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	client := NewNRPSClient(time.Second, &stubTokenSource{}, nil)
	_, err := client.GetMembers(context.Background(), nrpsToken(server.URL))
	assert.ErrorIs(t, err, appErrors.ErrGradeService)
}
