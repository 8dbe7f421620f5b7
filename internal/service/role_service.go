package service

import "github.com/edurun/lti-gateway/internal/models"

// roleMapping binds one known role URI to an application role. The table is
// iterated in declaration order, so the instructor mapping wins whenever a
// user carries both URIs.
type roleMapping struct {
	uri  string
	role models.Role
}

var rolePriority = []roleMapping{
	{models.RoleURIInstructor, models.RoleTeacher},
	{models.RoleURILearner, models.RoleStudent},
}

// RoleResolver derives the application role from a launch token's role
// URIs. Pure and error-free: unmatched input degrades to RoleUnknown.
type RoleResolver struct{}

// NewRoleResolver constructs a RoleResolver.
func NewRoleResolver() *RoleResolver {
	return &RoleResolver{}
}

// Resolve scans the known-role table in priority order against the supplied
// set, so teacher privilege wins regardless of input order.
func (r *RoleResolver) Resolve(roles []string) models.Role {
	if len(roles) == 0 {
		return models.RoleUnknown
	}

	present := make(map[string]struct{}, len(roles))
	for _, uri := range roles {
		present[uri] = struct{}{}
	}

	for _, mapping := range rolePriority {
		if _, ok := present[mapping.uri]; ok {
			return mapping.role
		}
	}
	return models.RoleUnknown
}
