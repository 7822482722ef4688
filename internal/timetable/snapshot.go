package timetable

// Teacher is the engine's view of an instructor: an identifier plus raw
// availability windows per day ("HH:MM-HH:MM").
type Teacher struct {
	ID           string
	Availability map[Day][]string
}

// Room is a physical space a course can be placed into.
type Room struct {
	ID       string
	Type     string
	Capacity int
	Site     string
}

// Course is one weekly teaching obligation. WeeklyUnits counts atomic slots,
// not clock hours. Exactly one teacher carries the course; the non-overlap
// and load-cap constraints consume that teacher's availability.
type Course struct {
	ID          string
	WeeklyUnits int
	TeacherID   string
	RoomType    string
	Students    int
}

// Snapshot is the immutable input of one generation request.
type Snapshot struct {
	Teachers []Teacher
	Courses  []Course
	Rooms    []Room
}
