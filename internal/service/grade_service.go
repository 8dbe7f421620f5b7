package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

// GradeService submits scores to the platform's grade service.
type GradeService struct {
	ags       gradeServiceClient
	lineItems *LineItemService
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewGradeService constructs a GradeService.
func NewGradeService(ags gradeServiceClient, lineItems *LineItemService, metrics *MetricsService, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{ags: ags, lineItems: lineItems, metrics: metrics, logger: logger}
}

// SubmitGrade orchestrates one grading request: bounds check, line item
// resolution, then exactly one submission. The bounds check runs first so an
// out-of-range score never triggers a network call.
func (s *GradeService) SubmitGrade(ctx context.Context, token *models.LaunchToken, score float64) (*models.SubmissionResult, error) {
	if err := validateScore(score); err != nil {
		return nil, err
	}

	lineItemID, err := s.lineItems.Resolve(ctx, token)
	if err != nil {
		s.metrics.RecordGrade(false)
		return nil, err
	}

	result, err := s.Submit(ctx, token, score, lineItemID)
	if err != nil {
		s.metrics.RecordGrade(false)
		return nil, err
	}
	s.metrics.RecordGrade(true)
	return result, nil
}

// Submit posts a score against an already-resolved line item and returns
// the platform acknowledgment verbatim. Failures surface to the caller and
// are never retried here.
func (s *GradeService) Submit(ctx context.Context, token *models.LaunchToken, score float64, lineItemID string) (*models.SubmissionResult, error) {
	if err := validateScore(score); err != nil {
		return nil, err
	}

	submission := models.GradeSubmission{
		UserID:           token.User,
		ScoreGiven:       score,
		ScoreMaximum:     lineItemScoreMaximum,
		ActivityProgress: models.ActivityProgressCompleted,
		GradingProgress:  models.GradingProgressFullyGraded,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}

	start := time.Now()
	result, err := s.ags.SubmitScore(ctx, token, lineItemID, submission)
	s.metrics.ObserveLMSCall("ags_score", time.Since(start))
	if err != nil {
		s.logger.Error("score submission failed",
			zap.String("user", token.User),
			zap.String("line_item_id", lineItemID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("score submitted",
		zap.String("user", token.User),
		zap.Float64("score", score),
		zap.String("line_item_id", lineItemID))

	return result, nil
}

func validateScore(score float64) error {
	if score < 0 || score > 100 {
		return appErrors.Clone(appErrors.ErrInvalidScore, "score must be between 0 and 100")
	}
	return nil
}
