package dto

// CreateTeacherRequest registers a teacher in the catalog.
type CreateTeacherRequest struct {
	FullName string  `json:"fullName" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone,omitempty"`
}

// AvailabilityWindowRequest is one declared teaching window.
type AvailabilityWindowRequest struct {
	DayOfWeek string `json:"dayOfWeek" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// SetAvailabilityRequest replaces a teacher's declared windows.
type SetAvailabilityRequest struct {
	Windows []AvailabilityWindowRequest `json:"windows" validate:"required,dive"`
}

// CreateCourseRequest registers a course in the catalog.
type CreateCourseRequest struct {
	Name        string `json:"name" validate:"required"`
	WeeklyUnits int    `json:"weeklyUnits" validate:"required,min=1"`
	TeacherID   string `json:"teacherId" validate:"required"`
	RoomType    string `json:"roomType" validate:"required"`
	Students    int    `json:"students" validate:"required,min=1"`
}

// CreateRoomRequest registers a room in the catalog.
type CreateRoomRequest struct {
	Code     string  `json:"code" validate:"required"`
	RoomType string  `json:"roomType" validate:"required"`
	Capacity int     `json:"capacity" validate:"required,min=1"`
	Site     *string `json:"site,omitempty"`
}
