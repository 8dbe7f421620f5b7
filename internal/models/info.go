package models

// UserInfoResponse is the payload of GET /info/user.
type UserInfoResponse struct {
	UserID string   `json:"userId"`
	Roles  []string `json:"roles"`
	Name   string   `json:"name,omitempty"`
}

// CourseInfoResponse is the payload of GET /info/course.
type CourseInfoResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
}

// PlatformInfoResponse is the payload of GET /info/platform.
type PlatformInfoResponse struct {
	GUID              string `json:"guid"`
	Name              string `json:"name"`
	Version           string `json:"version"`
	ProductFamilyCode string `json:"product_family_code"`
}
