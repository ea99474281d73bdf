package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/estudai/smart-plan-api/internal/models"
	"github.com/estudai/smart-plan-api/internal/repository"
	"github.com/estudai/smart-plan-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFormat selects the download rendering.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult is a rendered plan table ready to stream to the client.
type ExportResult struct {
	Payload     []byte
	ContentType string
	Filename    string
}

type exportSessionLister interface {
	ListByPlan(ctx context.Context, planID string, filter repository.SessionFilter) ([]models.PlanSession, error)
}

type exportPlanFinder interface {
	Get(ctx context.Context, userID, planID string) (*models.Plan, error)
}

type exportDisciplineReader interface {
	FindByID(ctx context.Context, id string) (*models.Discipline, error)
}

// ExportService renders a plan's session table as CSV or PDF. Exports are
// synchronous; nothing is written to disk.
type ExportService struct {
	plans       exportPlanFinder
	sessions    exportSessionLister
	disciplines exportDisciplineReader
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(plans exportPlanFinder, sessions exportSessionLister, disciplines exportDisciplineReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		plans:       plans,
		sessions:    sessions,
		disciplines: disciplines,
		csv:         csv,
		pdf:         pdf,
		logger:      logger,
	}
}

var exportHeaders = []string{"Date", "Start", "End", "Minutes", "Type", "Title", "Discipline"}

// disciplineName resolves a discipline id to its display name, falling back
// to the raw id when the lookup fails.
func (s *ExportService) disciplineName(ctx context.Context, id string, cache map[string]string) string {
	if id == "" {
		return ""
	}
	if name, ok := cache[id]; ok {
		return name
	}
	name := id
	if s.disciplines != nil {
		if discipline, err := s.disciplines.FindByID(ctx, id); err == nil {
			name = discipline.Name
		} else {
			s.logger.Warn("discipline lookup failed for export", zap.String("discipline_id", id), zap.Error(err))
		}
	}
	cache[id] = name
	return name
}

// Render builds the export payload for the requested format.
func (s *ExportService) Render(ctx context.Context, userID, planID string, format ExportFormat) (*ExportResult, error) {
	plan, err := s.plans.Get(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListByPlan(ctx, planID, repository.SessionFilter{})
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(sessions))}
	for _, session := range sessions {
		kind := "study"
		if session.IsRevision {
			kind = "revision"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":       session.Date.String(),
			"Start":      session.StartTime,
			"End":        session.EndTime,
			"Minutes":    strconv.Itoa(session.DurationMinutes),
			"Type":       kind,
			"Title":      session.Title,
			"Discipline": s.disciplineName(ctx, session.DisciplineID, names),
		})
	}

	switch format {
	case ExportFormatPDF:
		payload, renderErr := s.pdf.Render(dataset, plan.Name)
		if renderErr != nil {
			return nil, fmt.Errorf("render plan pdf: %w", renderErr)
		}
		return &ExportResult{
			Payload:     payload,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("plan-%s.pdf", planID),
		}, nil
	default:
		payload, renderErr := s.csv.Render(dataset)
		if renderErr != nil {
			return nil, fmt.Errorf("render plan csv: %w", renderErr)
		}
		return &ExportResult{
			Payload:     payload,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("plan-%s.csv", planID),
		}, nil
	}
}
