package timetable

import "fmt"

// MalformedRangeError marks an availability window string that could not be
// turned into atomic slots. The whole request fails; skipping a window would
// silently under-constrain the model.
type MalformedRangeError struct {
	TeacherID string
	Day       Day
	Range     string
	Reason    string
}

func (e *MalformedRangeError) Error() string {
	return fmt.Sprintf("availability %q for teacher %s on %s: %s", e.Range, e.TeacherID, e.Day, e.Reason)
}

// OverloadError reports a teacher whose assigned weekly load cannot fit into
// their declared availability. Detected before any model is built.
type OverloadError struct {
	TeacherID      string
	AssignedUnits  int
	AvailableUnits int
}

func (e *OverloadError) Error() string {
	return fmt.Sprintf("teacher %s is assigned %d units but only declares %d available", e.TeacherID, e.AssignedUnits, e.AvailableUnits)
}

// NoCompatibleRoomError reports a course no room can host. This is knowable
// without search, so it is raised before any room variable exists.
type NoCompatibleRoomError struct {
	CourseID string
	RoomType string
	Students int
}

func (e *NoCompatibleRoomError) Error() string {
	return fmt.Sprintf("no room of type %q with capacity >= %d exists for course %s", e.RoomType, e.Students, e.CourseID)
}
