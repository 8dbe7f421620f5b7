package models

// LaunchToken is the validated LTI launch context for one session. It is
// produced by the launch validation layer, stored behind an opaque ltik and
// treated as read-only by every downstream component.
type LaunchToken struct {
	SessionID    string          `json:"session_id"`
	Issuer       string          `json:"issuer"`
	ClientID     string          `json:"client_id"`
	DeploymentID string          `json:"deployment_id"`
	User         string          `json:"user"`
	Roles        []string        `json:"roles"`
	UserInfo     UserDetails     `json:"user_info"`
	Platform     PlatformContext `json:"platform_context"`
	PlatformInfo PlatformInfo    `json:"platform_info"`
}

// UserDetails carries optional profile claims from the id token.
type UserDetails struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// PlatformContext groups the course, placement and service claims of a
// launch.
type PlatformContext struct {
	Context      CourseContext     `json:"context"`
	Resource     ResourceLink      `json:"resource"`
	Endpoint     ServiceEndpoint   `json:"endpoint"`
	NamesRoles   NamesRolesService `json:"namesroles"`
	DeepLinking  DeepLinkSettings  `json:"deep_linking"`
	Custom       map[string]string `json:"custom,omitempty"`
	LaunchTarget string            `json:"launch_target,omitempty"`
}

// CourseContext identifies the course the tool was launched from.
type CourseContext struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
}

// ResourceLink is the platform's stable identifier for one placement of the
// tool; line items are scoped to it.
type ResourceLink struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// ServiceEndpoint carries the Assignment and Grade Services claim. LineItem
// is set when the platform pre-bound a gradebook column to this placement.
type ServiceEndpoint struct {
	LineItem  string   `json:"lineitem,omitempty"`
	LineItems string   `json:"lineitems,omitempty"`
	Scope     []string `json:"scope,omitempty"`
}

// NamesRolesService carries the NRPS membership endpoint claim.
type NamesRolesService struct {
	ContextMembershipsURL string `json:"context_memberships_url,omitempty"`
}

// DeepLinkSettings carries the deep-linking claim of a
// LtiDeepLinkingRequest launch.
type DeepLinkSettings struct {
	ReturnURL string `json:"deep_link_return_url,omitempty"`
	Data      string `json:"data,omitempty"`
}

// PlatformInfo describes the launching platform product.
type PlatformInfo struct {
	GUID              string `json:"guid"`
	Name              string `json:"name"`
	Version           string `json:"version"`
	ProductFamilyCode string `json:"product_family_code"`
}

// CustomValue returns the deep-linking custom parameter the platform echoes
// back on launches of a selected resource, and whether it is present.
func (t *LaunchToken) CustomValue() (string, bool) {
	if t == nil || t.Platform.Custom == nil {
		return "", false
	}
	v, ok := t.Platform.Custom["value"]
	return v, ok
}
