package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

// Line item defaults used when the gateway has to create the gradebook
// column itself.
const (
	lineItemScoreMaximum = 100
	lineItemLabel        = "Grade"
	lineItemTag          = "grade"
)

type gradeServiceClient interface {
	ListLineItems(ctx context.Context, token *models.LaunchToken, resourceLinkID string) ([]models.LineItem, error)
	CreateLineItem(ctx context.Context, token *models.LaunchToken, item models.LineItem) (*models.LineItem, error)
	SubmitScore(ctx context.Context, token *models.LaunchToken, lineItemID string, submission models.GradeSubmission) (*models.SubmissionResult, error)
}

// LineItemService resolves the gradebook line item a score must be attached
// to, creating one only when the platform reports none for the resource
// link.
type LineItemService struct {
	ags     gradeServiceClient
	metrics *MetricsService
	logger  *zap.Logger
	locks   keyedMutex
}

// NewLineItemService constructs a LineItemService.
func NewLineItemService(ags gradeServiceClient, metrics *MetricsService, logger *zap.Logger) *LineItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LineItemService{ags: ags, metrics: metrics, logger: logger}
}

// Resolve returns the line item id for the launch context. Order matters:
//
//  1. the token's embedded lineitem reference, skipping the network;
//  2. the first existing line item the platform lists for the resource
//     link;
//  3. a newly created line item, only when the platform lists none.
//
// Steps 2-3 are serialized per (platform, resource link) so concurrent
// first submissions on one instance cannot create duplicate columns.
// Separate instances can still race; the platform keeps the authoritative
// store.
func (s *LineItemService) Resolve(ctx context.Context, token *models.LaunchToken) (string, error) {
	if embedded := token.Platform.Endpoint.LineItem; embedded != "" {
		return embedded, nil
	}

	resourceLinkID := token.Platform.Resource.ID
	if resourceLinkID == "" {
		return "", appErrors.Clone(appErrors.ErrAmbiguousContext, "launch context has no resource link id")
	}

	unlock := s.locks.lock(token.PlatformInfo.GUID + "|" + resourceLinkID)
	defer unlock()

	start := time.Now()
	items, err := s.ags.ListLineItems(ctx, token, resourceLinkID)
	s.metrics.ObserveLMSCall("ags_lineitems", time.Since(start))
	if err != nil {
		return "", err
	}
	if len(items) > 0 {
		// The platform defines the order; the first element is the stable
		// pick.
		return items[0].ID, nil
	}

	s.logger.Info("no line item for resource link, creating one",
		zap.String("resource_link_id", resourceLinkID))

	start = time.Now()
	created, err := s.ags.CreateLineItem(ctx, token, models.LineItem{
		ScoreMaximum:   lineItemScoreMaximum,
		Label:          lineItemLabel,
		Tag:            lineItemTag,
		ResourceLinkID: resourceLinkID,
	})
	s.metrics.ObserveLMSCall("ags_lineitems", time.Since(start))
	if err != nil {
		return "", err
	}
	s.metrics.RecordLineItemCreated()
	return created.ID, nil
}

// keyedMutex serializes critical sections by string key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*entryLock)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &entryLock{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
