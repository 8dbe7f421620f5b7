package models

// Role is the application role derived from the launch token's role URIs.
// It is recomputed per request and never stored.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleUnknown Role = "unknown"
)

// Membership role URIs from the LIS vocabulary. Platforms send these in the
// roles claim of the id token.
const (
	RoleURIInstructor = "http://purl.imsglobal.org/vocab/lis/v2/membership#Instructor"
	RoleURILearner    = "http://purl.imsglobal.org/vocab/lis/v2/membership#Learner"
)
