package models

// Member is one course membership entry from the platform's
// Names-and-Roles service.
type Member struct {
	UserID string   `json:"user_id"`
	Status string   `json:"status,omitempty"`
	Name   string   `json:"name,omitempty"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles,omitempty"`
}
