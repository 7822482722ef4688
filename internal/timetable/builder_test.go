package timetable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/timetable-api/internal/solver"
)

func testConfig() Config {
	return Config{
		AtomicMinutes:     30,
		ReservedSlots:     []int{24, 25},
		SingleDayMaxUnits: 8,
		SplitLengths:      []int{6, 4},
		MaxTeacherUnits:   40,
	}
}

func mustSolve(t *testing.T, plan *Plan) Schedule {
	t.Helper()
	result, err := solver.NewBacktrack().Solve(context.Background(), plan.Model, solver.Options{})
	require.NoError(t, err)
	require.True(t, result.Status.HasSolution(), "expected a solution, got %s", result.Status)

	schedule, err := plan.Extract(result.Values)
	require.NoError(t, err)
	return schedule
}

func TestBuildAndSolvePlacesCourseInsideWindow(t *testing.T) {
	snapshot := Snapshot{
		Teachers: []Teacher{{ID: "t1", Availability: map[Day][]string{
			Monday: {"08:00-12:00"},
		}}},
		Courses: []Course{{ID: "c1", WeeklyUnits: 4, TeacherID: "t1", RoomType: "standard", Students: 25}},
		Rooms:   []Room{{ID: "r1", Type: "standard", Capacity: 30}},
	}

	plan, err := NewBuilder(testConfig()).Build(snapshot)
	require.NoError(t, err)

	schedule := mustSolve(t, plan)
	require.Len(t, schedule["c1"], 1)

	placement := schedule["c1"][0]
	assert.Equal(t, Monday, placement.Day)
	assert.Equal(t, "t1", placement.Teacher)
	assert.Equal(t, "r1", placement.Room)
	assert.GreaterOrEqual(t, placement.Start, "08:00")
	assert.LessOrEqual(t, placement.End, "12:00")
}

func TestBuildRejectsOverloadedTeacher(t *testing.T) {
	snapshot := Snapshot{
		Teachers: []Teacher{{ID: "t1", Availability: map[Day][]string{
			Monday: {"08:00-09:00"},
		}}},
		Courses: []Course{{ID: "c1", WeeklyUnits: 10, TeacherID: "t1", RoomType: "standard", Students: 25}},
		Rooms:   []Room{{ID: "r1", Type: "standard", Capacity: 30}},
	}

	_, err := NewBuilder(testConfig()).Build(snapshot)
	var overload *OverloadError
	require.ErrorAs(t, err, &overload)
	assert.Equal(t, "t1", overload.TeacherID)
	assert.Equal(t, 10, overload.AssignedUnits)
	assert.Equal(t, 2, overload.AvailableUnits)
}

func TestBuildRejectsCourseWithoutCompatibleRoom(t *testing.T) {
	snapshot := Snapshot{
		Teachers: []Teacher{{ID: "t1", Availability: map[Day][]string{
			Monday: {"08:00-12:00"},
		}}},
		Courses: []Course{{ID: "c1", WeeklyUnits: 4, TeacherID: "t1", RoomType: "lab", Students: 25}},
		Rooms:   []Room{{ID: "r1", Type: "standard", Capacity: 30}},
	}

	_, err := NewBuilder(testConfig()).Build(snapshot)
	var noRoom *NoCompatibleRoomError
	require.ErrorAs(t, err, &noRoom)
	assert.Equal(t, "c1", noRoom.CourseID)
	assert.Equal(t, "lab", noRoom.RoomType)
}

func TestBuildRejectsRoomWithInsufficientCapacity(t *testing.T) {
	snapshot := Snapshot{
		Teachers: []Teacher{{ID: "t1", Availability: map[Day][]string{
			Monday: {"08:00-12:00"},
		}}},
		Courses: []Course{{ID: "c1", WeeklyUnits: 4, TeacherID: "t1", RoomType: "standard", Students: 40}},
		Rooms:   []Room{{ID: "r1", Type: "standard", Capacity: 30}},
	}

	_, err := NewBuilder(testConfig()).Build(snapshot)
	var noRoom *NoCompatibleRoomError
	require.ErrorAs(t, err, &noRoom)
	assert.Equal(t, 40, noRoom.Students)
}

func TestBuildAndSolveAvoidsReservedSlots(t *testing.T) {
	// Slots 24 and 25 cover 12:00-13:00; the only legal runs inside an
	// 11:00-14:00 window sit entirely before or entirely after it.
	snapshot := Snapshot{
		Teachers: []Teacher{{ID: "t1", Availability: map[Day][]string{
			Monday: {"11:00-14:00"},
		}}},
		Courses: []Course{{ID: "c1", WeeklyUnits: 2, TeacherID: "t1", RoomType: "standard", Students: 25}},
		Rooms:   []Room{{ID: "r1", Type: "standard", Capacity: 30}},
	}

	plan, err := NewBuilder(testConfig()).Build(snapshot)
	require.NoError(t, err)

	schedule := mustSolve(t, plan)
	require.Len(t, schedule["c1"], 1)

	placement := schedule["c1"][0]
	if placement.End > "12:00" {
		assert.GreaterOrEqual(t, placement.Start, "13:00")
	}
}

func TestBuildAndSolveKeepsTeacherSlotsDisjoint(t *testing.T) {
	snapshot := Snapshot{
		Teachers: []Teacher{{ID: "t1", Availability: map[Day][]string{
			Monday: {"08:00-12:00"},
		}}},
		Courses: []Course{
			{ID: "c1", WeeklyUnits: 4, TeacherID: "t1", RoomType: "standard", Students: 25},
			{ID: "c2", WeeklyUnits: 4, TeacherID: "t1", RoomType: "standard", Students: 25},
		},
		Rooms: []Room{{ID: "r1", Type: "standard", Capacity: 30}},
	}

	plan, err := NewBuilder(testConfig()).Build(snapshot)
	require.NoError(t, err)

	schedule := mustSolve(t, plan)
	require.Len(t, schedule["c1"], 1)
	require.Len(t, schedule["c2"], 1)

	first, second := schedule["c1"][0], schedule["c2"][0]
	disjoint := first.End <= second.Start || second.End <= first.Start
	assert.True(t, disjoint, "placements %v and %v overlap", first, second)
}

func TestBuildAndSolveKeepsShortCourseOnOneDay(t *testing.T) {
	// A policy that also admits 2-unit blocks makes a cross-day 2+2 cover of
	// a 4-unit course reachable; the single-day channeling must still force
	// the one-day 4-unit cover.
	cfg := testConfig()
	cfg.Partition = func(units int) []int { return []int{units, 2} }

	snapshot := Snapshot{
		Teachers: []Teacher{{ID: "t1", Availability: map[Day][]string{
			Monday:  {"08:00-10:00"},
			Tuesday: {"08:00-09:00"},
		}}},
		Courses: []Course{{ID: "c1", WeeklyUnits: 4, TeacherID: "t1", RoomType: "standard", Students: 25}},
		Rooms:   []Room{{ID: "r1", Type: "standard", Capacity: 30}},
	}

	plan, err := NewBuilder(cfg).Build(snapshot)
	require.NoError(t, err)

	schedule := mustSolve(t, plan)
	require.Len(t, schedule["c1"], 1)
	assert.Equal(t, Monday, schedule["c1"][0].Day)
	assert.Equal(t, "08:00", schedule["c1"][0].Start)
	assert.Equal(t, "10:00", schedule["c1"][0].End)
}

func TestBuildAndSolveRejectsCrossDaySplitOfShortCourse(t *testing.T) {
	// Coverage alone would accept one 2-unit block on each day; only the
	// exactly-one-day constraint rules that assignment out.
	cfg := testConfig()
	cfg.Partition = func(units int) []int { return []int{units, 2} }

	snapshot := Snapshot{
		Teachers: []Teacher{{ID: "t1", Availability: map[Day][]string{
			Monday:  {"08:00-09:00"},
			Tuesday: {"08:00-09:00"},
		}}},
		Courses: []Course{{ID: "c1", WeeklyUnits: 4, TeacherID: "t1", RoomType: "standard", Students: 25}},
		Rooms:   []Room{{ID: "r1", Type: "standard", Capacity: 30}},
	}

	plan, err := NewBuilder(cfg).Build(snapshot)
	require.NoError(t, err)

	result, err := solver.NewBacktrack().Solve(context.Background(), plan.Model, solver.Options{})
	require.NoError(t, err)
	assert.Equal(t, solver.StatusInfeasible, result.Status)
}

func TestBuildAndSolveSplitsLongCourseAcrossDays(t *testing.T) {
	snapshot := Snapshot{
		Teachers: []Teacher{{ID: "t1", Availability: map[Day][]string{
			Monday:  {"08:00-11:00"},
			Tuesday: {"08:00-10:00"},
		}}},
		Courses: []Course{{ID: "c1", WeeklyUnits: 10, TeacherID: "t1", RoomType: "standard", Students: 25}},
		Rooms:   []Room{{ID: "r1", Type: "standard", Capacity: 30}},
	}

	plan, err := NewBuilder(testConfig()).Build(snapshot)
	require.NoError(t, err)

	schedule := mustSolve(t, plan)
	placements := schedule["c1"]
	require.Len(t, placements, 2)
	assert.Equal(t, Monday, placements[0].Day)
	assert.Equal(t, "08:00", placements[0].Start)
	assert.Equal(t, "11:00", placements[0].End)
	assert.Equal(t, Tuesday, placements[1].Day)
	assert.Equal(t, "08:00", placements[1].Start)
	assert.Equal(t, "10:00", placements[1].End)
}

func TestBuildAndSolveReportsRoomContention(t *testing.T) {
	// Both courses can only run Monday 08:00-10:00 and only one room can
	// host them, so the model is satisfiable for neither assignment.
	snapshot := Snapshot{
		Teachers: []Teacher{
			{ID: "t1", Availability: map[Day][]string{Monday: {"08:00-10:00"}}},
			{ID: "t2", Availability: map[Day][]string{Monday: {"08:00-10:00"}}},
		},
		Courses: []Course{
			{ID: "c1", WeeklyUnits: 4, TeacherID: "t1", RoomType: "standard", Students: 25},
			{ID: "c2", WeeklyUnits: 4, TeacherID: "t2", RoomType: "standard", Students: 25},
		},
		Rooms: []Room{{ID: "r1", Type: "standard", Capacity: 30}},
	}

	plan, err := NewBuilder(testConfig()).Build(snapshot)
	require.NoError(t, err)

	result, err := solver.NewBacktrack().Solve(context.Background(), plan.Model, solver.Options{})
	require.NoError(t, err)
	assert.Equal(t, solver.StatusInfeasible, result.Status)
}

func TestExtractRejectsMismatchedAssignment(t *testing.T) {
	snapshot := Snapshot{
		Teachers: []Teacher{{ID: "t1", Availability: map[Day][]string{
			Monday: {"08:00-12:00"},
		}}},
		Courses: []Course{{ID: "c1", WeeklyUnits: 4, TeacherID: "t1", RoomType: "standard", Students: 25}},
		Rooms:   []Room{{ID: "r1", Type: "standard", Capacity: 30}},
	}

	plan, err := NewBuilder(testConfig()).Build(snapshot)
	require.NoError(t, err)

	_, err = plan.Extract([]bool{true})
	assert.Error(t, err)
}
