package lms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
)

// Media types of the Assignment and Grade Services exchange.
const (
	mediaTypeLineItem          = "application/vnd.ims.lis.v2.lineitem+json"
	mediaTypeLineItemContainer = "application/vnd.ims.lis.v2.lineitemcontainer+json"
	mediaTypeScore             = "application/vnd.ims.lis.v1.score+json"
)

// AGSClient talks to a platform's Assignment and Grade Services: listing and
// creating line items and posting scores. Every failure surfaces as
// ErrGradeService; retries are left to the caller's caller.
type AGSClient struct {
	client *http.Client
	tokens TokenSource
	logger *zap.Logger
}

// NewAGSClient builds an AGS client with a bounded per-call timeout.
func NewAGSClient(timeout time.Duration, tokens TokenSource, logger *zap.Logger) *AGSClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AGSClient{
		client: &http.Client{Timeout: timeout},
		tokens: tokens,
		logger: logger,
	}
}

// ListLineItems returns the line items bound to a resource link, in the
// order the platform reports them.
func (c *AGSClient) ListLineItems(ctx context.Context, token *models.LaunchToken, resourceLinkID string) ([]models.LineItem, error) {
	endpoint := token.Platform.Endpoint.LineItems
	if endpoint == "" {
		return nil, appErrors.Clone(appErrors.ErrGradeService, "launch context exposes no line item container")
	}

	listURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "invalid line item container URL")
	}
	query := listURL.Query()
	query.Set("resource_link_id", resourceLinkID)
	listURL.RawQuery = query.Encode()

	body, err := c.do(ctx, token, http.MethodGet, listURL.String(), mediaTypeLineItemContainer, "", nil, ScopeLineItem)
	if err != nil {
		return nil, err
	}

	var items []models.LineItem
	if err := json.Unmarshal(body, &items); err != nil {
		// Some platforms wrap the collection in an object.
		var container struct {
			LineItems []models.LineItem `json:"lineItems"`
		}
		if err2 := json.Unmarshal(body, &container); err2 != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "decode line item container")
		}
		items = container.LineItems
	}
	return items, nil
}

// CreateLineItem registers a new gradebook column on the platform.
func (c *AGSClient) CreateLineItem(ctx context.Context, token *models.LaunchToken, item models.LineItem) (*models.LineItem, error) {
	endpoint := token.Platform.Endpoint.LineItems
	if endpoint == "" {
		return nil, appErrors.Clone(appErrors.ErrGradeService, "launch context exposes no line item container")
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "encode line item")
	}

	body, err := c.do(ctx, token, http.MethodPost, endpoint, mediaTypeLineItem, mediaTypeLineItem, payload, ScopeLineItem)
	if err != nil {
		return nil, err
	}

	var created models.LineItem
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "decode created line item")
	}
	if created.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrGradeService, "platform returned line item without id")
	}

	c.logger.Info("line item created",
		zap.String("line_item_id", created.ID),
		zap.String("resource_link_id", item.ResourceLinkID))

	return &created, nil
}

// SubmitScore posts a score against a line item and returns the platform's
// acknowledgment body verbatim.
func (c *AGSClient) SubmitScore(ctx context.Context, token *models.LaunchToken, lineItemID string, submission models.GradeSubmission) (*models.SubmissionResult, error) {
	scoreURL, err := scoresURL(lineItemID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "invalid line item id")
	}

	payload, err := json.Marshal(submission)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "encode score")
	}

	body, err := c.do(ctx, token, http.MethodPost, scoreURL, "", mediaTypeScore, payload, ScopeScore)
	if err != nil {
		return nil, err
	}

	result := &models.SubmissionResult{LineItemID: lineItemID}
	if len(body) > 0 {
		result.Body = json.RawMessage(body)
	}
	return result, nil
}

// scoresURL appends the /scores sub-path to a line item URL, preserving any
// query string the platform put on the identifier.
func scoresURL(lineItemID string) (string, error) {
	parsed, err := url.Parse(lineItemID)
	if err != nil {
		return "", err
	}
	parsed.Path = parsed.Path + "/scores"
	return parsed.String(), nil
}

func (c *AGSClient) do(ctx context.Context, token *models.LaunchToken, method, rawURL, accept, contentType string, payload []byte, scope string) ([]byte, error) {
	accessToken, err := c.tokens.AccessToken(ctx, token, []string{scope})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "obtain service access token")
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "build grade service request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "platform grade service unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGradeService.Code, appErrors.ErrGradeService.Status, "read grade service response")
	}

	c.logger.Debug("grade service call",
		zap.String("method", method),
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, appErrors.Clone(appErrors.ErrGradeService, fmt.Sprintf("platform grade service returned %d", resp.StatusCode))
	}
	return body, nil
}
