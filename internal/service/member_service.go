package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edurun/lti-gateway/internal/models"
	appErrors "github.com/edurun/lti-gateway/pkg/errors"
	"github.com/edurun/lti-gateway/pkg/export"
)

// Roster export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var rosterHeaders = []string{"User ID", "Name", "Email", "Roles", "Status"}

type membershipClient interface {
	GetMembers(ctx context.Context, token *models.LaunchToken) ([]models.Member, error)
}

type rosterCSVRenderer interface {
	Render(data export.Roster) ([]byte, error)
}

type rosterPDFRenderer interface {
	Render(data export.Roster, title string) ([]byte, error)
}

// MemberService lists course membership and renders roster exports.
type MemberService struct {
	nrps    membershipClient
	csv     rosterCSVRenderer
	pdf     rosterPDFRenderer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewMemberService constructs a MemberService.
func NewMemberService(nrps membershipClient, csv rosterCSVRenderer, pdf rosterPDFRenderer, metrics *MetricsService, logger *zap.Logger) *MemberService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberService{nrps: nrps, csv: csv, pdf: pdf, metrics: metrics, logger: logger}
}

// List returns the members of the launched course context.
func (s *MemberService) List(ctx context.Context, token *models.LaunchToken) ([]models.Member, error) {
	start := time.Now()
	members, err := s.nrps.GetMembers(ctx, token)
	s.metrics.ObserveLMSCall("nrps", time.Since(start))
	return members, err
}

// ExportRoster renders the course membership as a downloadable document.
// Returns the document bytes and its content type.
func (s *MemberService) ExportRoster(ctx context.Context, token *models.LaunchToken, format string) ([]byte, string, error) {
	members, err := s.List(ctx, token)
	if err != nil {
		return nil, "", err
	}

	roster := buildRoster(members)
	title := token.Platform.Context.Title
	if title == "" {
		title = "Course Roster"
	}

	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(roster)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render roster csv")
		}
		return data, "text/csv", nil

	case ExportFormatPDF:
		data, err := s.pdf.Render(roster, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render roster pdf")
		}
		return data, "application/pdf", nil

	default:
		return nil, "", appErrors.Clone(appErrors.ErrMissingParameter, "format must be csv or pdf")
	}
}

func buildRoster(members []models.Member) export.Roster {
	rows := make([]map[string]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, map[string]string{
			"User ID": m.UserID,
			"Name":    m.Name,
			"Email":   m.Email,
			"Roles":   strings.Join(m.Roles, "; "),
			"Status":  m.Status,
		})
	}
	return export.Roster{Headers: rosterHeaders, Rows: rows}
}
