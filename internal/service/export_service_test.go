package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/timetable-api/internal/models"
	"github.com/acadplan/timetable-api/internal/timetable"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
)

type stubProposalProvider struct{ proposal *TimetableProposal }

func (p stubProposalProvider) Proposal(context.Context, string) (*TimetableProposal, error) {
	if p.proposal == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	return p.proposal, nil
}

type stubTimetableProvider struct {
	record     *models.Timetable
	placements []models.TimetablePlacement
}

func (p stubTimetableProvider) Get(context.Context, string) (*models.Timetable, []models.TimetablePlacement, error) {
	return p.record, p.placements, nil
}

func sampleProposal() *TimetableProposal {
	return &TimetableProposal{
		ProposalID: "p-1",
		Rows: []timetable.FlatRow{
			{Course: "c1", Day: timetable.Monday, Start: "08:00", End: "10:00", Teacher: "t1", Room: "r1"},
			{Course: "c2", Day: timetable.Tuesday, Start: "09:00", End: "11:00", Teacher: "t2", Room: "r2"},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestExportServiceRendersProposalCSV(t *testing.T) {
	svc := NewExportService(stubProposalProvider{proposal: sampleProposal()}, stubTimetableProvider{}, nil, nil, nil)

	file, err := svc.ExportProposal(context.Background(), "p-1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Start,End,Course,Teacher,Room", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "Monday")
	assert.Contains(t, lines[1], "c1")
	assert.Contains(t, lines[2], "Tuesday")
}

func TestExportServiceRendersProposalPDF(t *testing.T) {
	svc := NewExportService(stubProposalProvider{proposal: sampleProposal()}, stubTimetableProvider{}, nil, nil, nil)

	file, err := svc.ExportProposal(context.Background(), "p-1", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".pdf"))
	assert.NotEmpty(t, file.Data)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(stubProposalProvider{proposal: sampleProposal()}, stubTimetableProvider{}, nil, nil, nil)

	_, err := svc.ExportProposal(context.Background(), "p-1", "xlsx")
	requireErrCode(t, err, appErrors.ErrValidation.Code)
}

func TestExportServicePropagatesMissingProposal(t *testing.T) {
	svc := NewExportService(stubProposalProvider{}, stubTimetableProvider{}, nil, nil, nil)

	_, err := svc.ExportProposal(context.Background(), "missing", FormatCSV)
	requireErrCode(t, err, appErrors.ErrNotFound.Code)
}

func TestExportServiceRendersStoredTimetable(t *testing.T) {
	provider := stubTimetableProvider{
		record: &models.Timetable{ID: "tt-1", Version: 3, Status: models.TimetableStatusPublished, Meta: types.JSONText(`{}`)},
		placements: []models.TimetablePlacement{
			{CourseID: "c1", TeacherID: "t1", RoomID: "r1", DayOfWeek: "Monday", StartTime: "08:00", EndTime: "10:00"},
		},
	}
	svc := NewExportService(stubProposalProvider{}, provider, nil, nil, nil)

	file, err := svc.ExportTimetable(context.Background(), "tt-1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "timetable-v3.csv", file.Filename)
	assert.Contains(t, string(file.Data), "c1")
}
