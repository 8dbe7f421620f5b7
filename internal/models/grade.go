package models

import "encoding/json"

// LineItem is a gradebook column on the platform side.
type LineItem struct {
	ID             string  `json:"id,omitempty"`
	ScoreMaximum   float64 `json:"scoreMaximum"`
	Label          string  `json:"label"`
	Tag            string  `json:"tag,omitempty"`
	ResourceLinkID string  `json:"resourceLinkId,omitempty"`
}

// Grading progress values sent with every score. Partial progress states are
// not modeled; the tool only reports finished work.
const (
	ActivityProgressCompleted  = "Completed"
	GradingProgressFullyGraded = "FullyGraded"
)

// GradeSubmission is one score posted against a line item.
type GradeSubmission struct {
	UserID           string  `json:"userId"`
	ScoreGiven       float64 `json:"scoreGiven"`
	ScoreMaximum     float64 `json:"scoreMaximum"`
	ActivityProgress string  `json:"activityProgress"`
	GradingProgress  string  `json:"gradingProgress"`
	Timestamp        string  `json:"timestamp,omitempty"`
}

// SubmissionResult is the platform's acknowledgment of a submitted score,
// returned to the caller verbatim.
type SubmissionResult struct {
	LineItemID string          `json:"lineItemId"`
	Body       json.RawMessage `json:"body,omitempty"`
}
