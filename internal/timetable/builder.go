package timetable

import (
	"fmt"
	"sort"

	"github.com/acadplan/timetable-api/internal/solver"
)

// blockKey identifies one candidate placement of a course.
type blockKey struct {
	Course string
	Day    Day
	Index  int
}

// roomKey extends a blockKey with the room that would host it.
type roomKey struct {
	Course string
	Day    Day
	Index  int
	Room   string
}

// candidate is a concrete contiguous run proposed for a course on a day.
type candidate struct {
	key       blockKey
	teacherID string
	slots     []int
}

// Plan couples the built constraint model with the bookkeeping needed to read
// a solved assignment back. Each generation request owns its own Plan, so
// concurrent requests never alias variables.
type Plan struct {
	Model *solver.Model

	cfg         Config
	courses     map[string]Course
	candidates  []candidate
	blockVars   map[blockKey]solver.Var
	roomVars    map[roomKey]solver.Var
	courseRooms map[string][]string
}

// Builder turns an input snapshot into a boolean constraint model.
type Builder struct {
	cfg       Config
	partition PartitionPolicy
}

// NewBuilder constructs a Builder, filling config defaults.
func NewBuilder(cfg Config) *Builder {
	cfg = cfg.withDefaults()
	partition := cfg.Partition
	if partition == nil {
		partition = NewPartitionPolicy(cfg.SingleDayMaxUnits, cfg.SplitLengths)
	}
	return &Builder{cfg: cfg, partition: partition}
}

// Build validates the snapshot, enumerates candidate blocks, and posts every
// hard constraint. The cheap precondition checks (teacher overload, missing
// compatible rooms) run first so a provably broken instance never reaches
// the solver.
func (b *Builder) Build(snapshot Snapshot) (*Plan, error) {
	availability, err := NormalizeAvailability(snapshot.Teachers, b.cfg.AtomicMinutes)
	if err != nil {
		return nil, err
	}

	if err := b.checkTeacherLoad(snapshot, availability); err != nil {
		return nil, err
	}

	compatible, err := b.compatibleRooms(snapshot)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Model:       solver.NewModel(),
		cfg:         b.cfg,
		courses:     make(map[string]Course, len(snapshot.Courses)),
		blockVars:   make(map[blockKey]solver.Var),
		roomVars:    make(map[roomKey]solver.Var),
		courseRooms: compatible,
	}
	for _, course := range snapshot.Courses {
		plan.courses[course.ID] = course
	}

	b.buildVariables(plan, snapshot, availability, compatible)
	b.postConstraints(plan, snapshot)
	return plan, nil
}

// checkTeacherLoad compares each teacher's assigned weekly units against
// their declared availability, a provable infeasibility that deserves a
// precise diagnostic instead of a generic solver verdict.
func (b *Builder) checkTeacherLoad(snapshot Snapshot, availability Availability) error {
	assigned := make(map[string]int)
	for _, course := range snapshot.Courses {
		assigned[course.TeacherID] += course.WeeklyUnits
	}

	teacherIDs := make([]string, 0, len(assigned))
	for id := range assigned {
		teacherIDs = append(teacherIDs, id)
	}
	sort.Strings(teacherIDs)

	for _, id := range teacherIDs {
		available := availability.UnitsFor(id)
		if assigned[id] > available {
			return &OverloadError{TeacherID: id, AssignedUnits: assigned[id], AvailableUnits: available}
		}
	}
	return nil
}

// compatibleRooms resolves the room candidates per course, failing fast when
// a course cannot be hosted anywhere.
func (b *Builder) compatibleRooms(snapshot Snapshot) (map[string][]string, error) {
	courses := make([]Course, len(snapshot.Courses))
	copy(courses, snapshot.Courses)
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })

	result := make(map[string][]string, len(courses))
	for _, course := range courses {
		var rooms []string
		for _, room := range snapshot.Rooms {
			if room.Type == course.RoomType && room.Capacity >= course.Students {
				rooms = append(rooms, room.ID)
			}
		}
		if len(rooms) == 0 {
			return nil, &NoCompatibleRoomError{CourseID: course.ID, RoomType: course.RoomType, Students: course.Students}
		}
		sort.Strings(rooms)
		result[course.ID] = rooms
	}
	return result, nil
}

func (b *Builder) buildVariables(plan *Plan, snapshot Snapshot, availability Availability, compatible map[string][]string) {
	courses := make([]Course, len(snapshot.Courses))
	copy(courses, snapshot.Courses)
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })

	reserved := make(map[int]struct{}, len(b.cfg.ReservedSlots))
	for _, slot := range b.cfg.ReservedSlots {
		reserved[slot] = struct{}{}
	}

	for _, course := range courses {
		lengths := b.partition(course.WeeklyUnits)
		for _, day := range Weekdays {
			avail := availability[course.TeacherID][day]
			if len(avail) == 0 {
				continue
			}

			var blocks [][]int
			for _, length := range lengths {
				blocks = append(blocks, contiguousBlocks(avail, length)...)
			}

			for idx, slots := range blocks {
				key := blockKey{Course: course.ID, Day: day, Index: idx}
				blockVar := plan.Model.NewVar(fmt.Sprintf("%s_%s_%d", course.ID, day, idx))
				plan.blockVars[key] = blockVar
				plan.candidates = append(plan.candidates, candidate{key: key, teacherID: course.TeacherID, slots: slots})

				// Candidates covering a reserved slot are decided here,
				// not left for the solver to discover.
				if coversReserved(slots, reserved) {
					plan.Model.Fix(blockVar, false)
				}

				for _, roomID := range compatible[course.ID] {
					rk := roomKey{Course: course.ID, Day: day, Index: idx, Room: roomID}
					plan.roomVars[rk] = plan.Model.NewVar(fmt.Sprintf("%s_%s_%d_%s", course.ID, day, idx, roomID))
				}
			}
		}
	}
}

func (b *Builder) postConstraints(plan *Plan, snapshot Snapshot) {
	b.postCoverage(plan, snapshot)
	b.postOneBlockPerDay(plan, snapshot)
	b.postSingleDay(plan, snapshot)
	b.postTeacherNonOverlap(plan, snapshot)
	b.postRoomLinkage(plan)
	b.postRoomNonOverlap(plan, snapshot)
	b.postTeacherLoadCap(plan, snapshot)
}

// postCoverage demands that the selected block lengths of a course sum to its
// weekly duration exactly, never as an upper bound.
func (b *Builder) postCoverage(plan *Plan, snapshot Snapshot) {
	terms := make(map[string][]solver.Term, len(plan.courses))
	for _, cand := range plan.candidates {
		terms[cand.key.Course] = append(terms[cand.key.Course], solver.Term{
			Var:  plan.blockVars[cand.key],
			Coef: len(cand.slots),
		})
	}
	for _, course := range sortedCourses(snapshot) {
		plan.Model.AddEq(terms[course.ID], course.WeeklyUnits)
	}
}

func (b *Builder) postOneBlockPerDay(plan *Plan, snapshot Snapshot) {
	perDay := make(map[blockKey][]solver.Term)
	for _, cand := range plan.candidates {
		group := blockKey{Course: cand.key.Course, Day: cand.key.Day}
		perDay[group] = append(perDay[group], solver.Term{Var: plan.blockVars[cand.key], Coef: 1})
	}
	for _, course := range sortedCourses(snapshot) {
		for _, day := range Weekdays {
			if terms := perDay[blockKey{Course: course.ID, Day: day}]; len(terms) > 1 {
				plan.Model.AddLe(terms, 1)
			}
		}
	}
}

// postSingleDay forces short courses onto exactly one day. An auxiliary
// boolean per (course, day) is linked to "a block was selected that day" by
// a pair of implications, then exactly one auxiliary may hold.
func (b *Builder) postSingleDay(plan *Plan, snapshot Snapshot) {
	perDay := make(map[blockKey][]solver.Term)
	for _, cand := range plan.candidates {
		group := blockKey{Course: cand.key.Course, Day: cand.key.Day}
		perDay[group] = append(perDay[group], solver.Term{Var: plan.blockVars[cand.key], Coef: 1})
	}

	for _, course := range sortedCourses(snapshot) {
		if course.WeeklyUnits > b.cfg.SingleDayMaxUnits {
			continue
		}
		var used []solver.Term
		for _, day := range Weekdays {
			dayTerms := perDay[blockKey{Course: course.ID, Day: day}]
			if len(dayTerms) == 0 {
				continue
			}
			aux := plan.Model.NewVar(fmt.Sprintf("%s_%s_used", course.ID, day))

			// selected => used: sum(day) - M*aux <= 0
			implied := append(append([]solver.Term{}, dayTerms...), solver.Term{Var: aux, Coef: -len(dayTerms)})
			plan.Model.AddLe(implied, 0)

			// used => selected: aux - sum(day) <= 0
			reverse := []solver.Term{{Var: aux, Coef: 1}}
			for _, t := range dayTerms {
				reverse = append(reverse, solver.Term{Var: t.Var, Coef: -1})
			}
			plan.Model.AddLe(reverse, 0)

			used = append(used, solver.Term{Var: aux, Coef: 1})
		}
		if len(used) > 0 {
			plan.Model.AddEq(used, 1)
		}
	}
}

// postTeacherNonOverlap forbids a teacher from covering the same atomic slot
// twice on a day, across all their courses.
func (b *Builder) postTeacherNonOverlap(plan *Plan, snapshot Snapshot) {
	type slotID struct {
		teacher string
		day     Day
		slot    int
	}
	covering := make(map[slotID][]solver.Term)
	var order []slotID
	for _, cand := range plan.candidates {
		for _, slot := range cand.slots {
			id := slotID{teacher: cand.teacherID, day: cand.key.Day, slot: slot}
			if len(covering[id]) == 0 {
				order = append(order, id)
			}
			covering[id] = append(covering[id], solver.Term{Var: plan.blockVars[cand.key], Coef: 1})
		}
	}
	for _, id := range order {
		if terms := covering[id]; len(terms) > 1 {
			plan.Model.AddLe(terms, 1)
		}
	}
}

// postRoomLinkage ties every candidate to exactly one room: the sum of its
// room indicators equals its own block indicator.
func (b *Builder) postRoomLinkage(plan *Plan) {
	for _, cand := range plan.candidates {
		terms := []solver.Term{{Var: plan.blockVars[cand.key], Coef: -1}}
		for _, roomID := range plan.courseRooms[cand.key.Course] {
			rk := roomKey{Course: cand.key.Course, Day: cand.key.Day, Index: cand.key.Index, Room: roomID}
			terms = append(terms, solver.Term{Var: plan.roomVars[rk], Coef: 1})
		}
		plan.Model.AddEq(terms, 0)
	}
}

// postRoomNonOverlap keeps each room hosting at most one block per atomic
// slot per day.
func (b *Builder) postRoomNonOverlap(plan *Plan, snapshot Snapshot) {
	type slotID struct {
		room string
		day  Day
		slot int
	}
	covering := make(map[slotID][]solver.Term)
	var order []slotID
	for _, cand := range plan.candidates {
		for _, roomID := range plan.courseRooms[cand.key.Course] {
			rk := roomKey{Course: cand.key.Course, Day: cand.key.Day, Index: cand.key.Index, Room: roomID}
			for _, slot := range cand.slots {
				id := slotID{room: roomID, day: cand.key.Day, slot: slot}
				if len(covering[id]) == 0 {
					order = append(order, id)
				}
				covering[id] = append(covering[id], solver.Term{Var: plan.roomVars[rk], Coef: 1})
			}
		}
	}
	for _, id := range order {
		if terms := covering[id]; len(terms) > 1 {
			plan.Model.AddLe(terms, 1)
		}
	}
}

// postTeacherLoadCap bounds each teacher's selected units per week.
func (b *Builder) postTeacherLoadCap(plan *Plan, snapshot Snapshot) {
	perTeacher := make(map[string][]solver.Term)
	var order []string
	for _, cand := range plan.candidates {
		if len(perTeacher[cand.teacherID]) == 0 {
			order = append(order, cand.teacherID)
		}
		perTeacher[cand.teacherID] = append(perTeacher[cand.teacherID], solver.Term{
			Var:  plan.blockVars[cand.key],
			Coef: len(cand.slots),
		})
	}
	for _, teacherID := range order {
		plan.Model.AddLe(perTeacher[teacherID], b.cfg.MaxTeacherUnits)
	}
}

func coversReserved(slots []int, reserved map[int]struct{}) bool {
	for _, slot := range slots {
		if _, ok := reserved[slot]; ok {
			return true
		}
	}
	return false
}

func sortedCourses(snapshot Snapshot) []Course {
	courses := make([]Course, len(snapshot.Courses))
	copy(courses, snapshot.Courses)
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses
}
