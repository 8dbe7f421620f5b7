package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/edurun/lti-gateway/internal/models"
)

func infoRouter(token *models.LaunchToken) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewInfoHandler()
	router := gin.New()
	info := router.Group("/info", withToken(token))
	info.GET("/user", h.User)
	info.GET("/course", h.Course)
	info.GET("/platform", h.Platform)
	info.GET("/assignment", h.Assignment)
	return router
}

func fullToken() *models.LaunchToken {
	return &models.LaunchToken{
		User:     "user-1",
		Roles:    []string{models.RoleURILearner},
		UserInfo: models.UserDetails{Name: "Ana"},
		Platform: models.PlatformContext{
			Context:  models.CourseContext{ID: "course-1", Label: "CS101", Title: "Intro"},
			Endpoint: models.ServiceEndpoint{LineItem: "https://lms.example.edu/lineitems/1"},
		},
		PlatformInfo: models.PlatformInfo{
			GUID: "guid-1", Name: "moodle", Version: "4.1", ProductFamilyCode: "moodle",
		},
	}
}

func getInfo(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestInfoUser(t *testing.T) {
	rec := getInfo(infoRouter(fullToken()), "/info/user")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"userId": "user-1",
		"roles": ["http://purl.imsglobal.org/vocab/lis/v2/membership#Learner"],
		"name": "Ana"
	}`, rec.Body.String())
}

func TestInfoCourse(t *testing.T) {
	rec := getInfo(infoRouter(fullToken()), "/info/course")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"course-1","label":"CS101","title":"Intro"}`, rec.Body.String())
}

func TestInfoPlatform(t *testing.T) {
	rec := getInfo(infoRouter(fullToken()), "/info/platform")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"guid":"guid-1","name":"moodle","version":"4.1","product_family_code":"moodle"}`, rec.Body.String())
}

func TestInfoAssignment(t *testing.T) {
	rec := getInfo(infoRouter(fullToken()), "/info/assignment")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://lms.example.edu/lineitems/1", rec.Body.String())
}

func TestInfoWithoutSession(t *testing.T) {
	router := infoRouter(nil)
	for _, path := range []string{"/info/user", "/info/course", "/info/platform", "/info/assignment"} {
		rec := getInfo(router, path)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}
