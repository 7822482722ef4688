package dto

import "github.com/acadplan/timetable-api/internal/timetable"

// TeacherInput carries one teacher and their raw availability windows,
// keyed by workday name ("Monday".."Friday"), each window "HH:MM-HH:MM".
type TeacherInput struct {
	ID           string              `json:"id" validate:"required"`
	Availability map[string][]string `json:"availability" validate:"required"`
}

// CourseInput describes one weekly teaching demand. WeeklyUnits counts
// atomic slots.
type CourseInput struct {
	ID          string `json:"id" validate:"required"`
	WeeklyUnits int    `json:"weeklyUnits" validate:"required,min=1"`
	TeacherID   string `json:"teacherId" validate:"required"`
	RoomType    string `json:"roomType" validate:"required"`
	Students    int    `json:"students" validate:"required,min=1"`
}

// RoomInput describes one schedulable room.
type RoomInput struct {
	ID       string `json:"id" validate:"required"`
	Type     string `json:"type" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
	Site     string `json:"site"`
}

// GenerateTimetableRequest submits a complete input snapshot inline.
type GenerateTimetableRequest struct {
	Teachers []TeacherInput `json:"teachers" validate:"required,min=1,dive"`
	Courses  []CourseInput  `json:"courses" validate:"required,min=1,dive"`
	Rooms    []RoomInput    `json:"rooms" validate:"required,min=1,dive"`
	Seed     *int64         `json:"seed,omitempty"`
}

// SolveStats summarises one solver run.
type SolveStats struct {
	Variables   int    `json:"variables"`
	Constraints int    `json:"constraints"`
	Steps       int64  `json:"steps"`
	ElapsedMS   int64  `json:"elapsedMs"`
	Status      string `json:"status"`
}

// GenerateTimetableResponse returns the reconstructed schedule together with
// a proposal handle for a later save or export.
type GenerateTimetableResponse struct {
	ProposalID string              `json:"proposalId"`
	Schedule   timetable.Schedule  `json:"schedule"`
	Rows       []timetable.FlatRow `json:"rows"`
	Stats      SolveStats          `json:"stats"`
}

// SaveTimetableRequest persists a previously generated proposal.
type SaveTimetableRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Publish    bool   `json:"publish"`
}
