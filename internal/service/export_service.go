package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/acadplan/timetable-api/internal/models"
	"github.com/acadplan/timetable-api/internal/timetable"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
	"github.com/acadplan/timetable-api/pkg/export"
)

// Supported export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type proposalProvider interface {
	Proposal(ctx context.Context, id string) (*TimetableProposal, error)
}

type timetableProvider interface {
	Get(ctx context.Context, id string) (*models.Timetable, []models.TimetablePlacement, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered export ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders proposals and stored timetables into tabular files.
type ExportService struct {
	proposals  proposalProvider
	timetables timetableProvider
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(proposals proposalProvider, timetables timetableProvider, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{proposals: proposals, timetables: timetables, csv: csv, pdf: pdf, logger: logger}
}

// ExportProposal renders a pending proposal.
func (s *ExportService) ExportProposal(ctx context.Context, proposalID, format string) (*ExportFile, error) {
	proposal, err := s.proposals.Proposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	dataset := datasetFromRows(proposal.Rows)
	name := fmt.Sprintf("timetable-proposal-%s", time.Now().UTC().Format("20060102-150405"))
	return s.render(dataset, name, "Timetable Proposal", format)
}

// ExportTimetable renders a stored timetable version.
func (s *ExportService) ExportTimetable(ctx context.Context, timetableID, format string) (*ExportFile, error) {
	record, placements, err := s.timetables.Get(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	rows := make([]timetable.FlatRow, 0, len(placements))
	for _, placement := range placements {
		rows = append(rows, timetable.FlatRow{
			Course:  placement.CourseID,
			Day:     timetable.Day(placement.DayOfWeek),
			Start:   placement.StartTime,
			End:     placement.EndTime,
			Teacher: placement.TeacherID,
			Room:    placement.RoomID,
		})
	}
	dataset := datasetFromRows(rows)
	name := fmt.Sprintf("timetable-v%d", record.Version)
	title := fmt.Sprintf("Timetable v%d (%s)", record.Version, record.Status)
	return s.render(dataset, name, title, format)
}

func (s *ExportService) render(dataset export.Dataset, name, title, format string) (*ExportFile, error) {
	switch format {
	case FormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{Filename: name + ".csv", ContentType: "text/csv", Data: data}, nil
	case FormatPDF:
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{Filename: name + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func datasetFromRows(rows []timetable.FlatRow) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Day", "Start", "End", "Course", "Teacher", "Room"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":     string(row.Day),
			"Start":   row.Start,
			"End":     row.End,
			"Course":  row.Course,
			"Teacher": row.Teacher,
			"Room":    row.Room,
		})
	}
	return dataset
}
