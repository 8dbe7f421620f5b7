package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edurun/lti-gateway/internal/models"
)

func TestResolveRole(t *testing.T) {
	resolver := NewRoleResolver()

	tests := []struct {
		name  string
		roles []string
		want  models.Role
	}{
		{"instructor only", []string{models.RoleURIInstructor}, models.RoleTeacher},
		{"learner only", []string{models.RoleURILearner}, models.RoleStudent},
		{"instructor wins over learner", []string{models.RoleURILearner, models.RoleURIInstructor}, models.RoleTeacher},
		{"instructor first", []string{models.RoleURIInstructor, models.RoleURILearner}, models.RoleTeacher},
		{"unrecognized uris", []string{"http://purl.imsglobal.org/vocab/lis/v2/system/person#Administrator"}, models.RoleUnknown},
		{"empty", nil, models.RoleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolver.Resolve(tt.roles))
		})
	}
}
