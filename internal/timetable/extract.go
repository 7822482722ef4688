package timetable

import (
	"fmt"
	"sort"
)

// Placement is one scheduled block of a course.
type Placement struct {
	Day     Day    `json:"day"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Teacher string `json:"teacher"`
	Room    string `json:"room"`
}

// Schedule maps course IDs to their ordered weekly placements.
type Schedule map[string][]Placement

// FlatRow is one line of the tabular export form.
type FlatRow struct {
	Course  string `json:"course"`
	Day     Day    `json:"day"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Teacher string `json:"teacher"`
	Room    string `json:"room"`
}

// Extract reads a solved assignment back into a human-readable schedule.
// Every selected block carries exactly one true room indicator; anything else
// means the model and the solver disagree and is reported as an error.
func (p *Plan) Extract(values []bool) (Schedule, error) {
	if len(values) != p.Model.NumVars() {
		return nil, fmt.Errorf("assignment has %d values for %d variables", len(values), p.Model.NumVars())
	}

	schedule := make(Schedule)
	for _, cand := range p.candidates {
		if !values[p.blockVars[cand.key]] {
			continue
		}

		room := ""
		for _, roomID := range p.courseRooms[cand.key.Course] {
			rk := roomKey{Course: cand.key.Course, Day: cand.key.Day, Index: cand.key.Index, Room: roomID}
			if values[p.roomVars[rk]] {
				room = roomID
				break
			}
		}
		if room == "" {
			return nil, fmt.Errorf("selected block %s_%s_%d has no room assigned", cand.key.Course, cand.key.Day, cand.key.Index)
		}

		start := cand.slots[0] * p.cfg.AtomicMinutes
		end := (cand.slots[len(cand.slots)-1] + 1) * p.cfg.AtomicMinutes
		schedule[cand.key.Course] = append(schedule[cand.key.Course], Placement{
			Day:     cand.key.Day,
			Start:   formatClock(start),
			End:     formatClock(end),
			Teacher: cand.teacherID,
			Room:    room,
		})
	}

	for courseID := range schedule {
		placements := schedule[courseID]
		sort.Slice(placements, func(i, j int) bool {
			if placements[i].Day != placements[j].Day {
				return placements[i].Day.Order() < placements[j].Day.Order()
			}
			return placements[i].Start < placements[j].Start
		})
		schedule[courseID] = placements
	}
	return schedule, nil
}

// Courses lists the scheduled course IDs in lexical order.
func (s Schedule) Courses() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Flatten produces the tabular form used by exports, ordered by day, start
// time, then course.
func (s Schedule) Flatten() []FlatRow {
	var rows []FlatRow
	for _, courseID := range s.Courses() {
		for _, placement := range s[courseID] {
			rows = append(rows, FlatRow{
				Course:  courseID,
				Day:     placement.Day,
				Start:   placement.Start,
				End:     placement.End,
				Teacher: placement.Teacher,
				Room:    placement.Room,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Day != rows[j].Day {
			return rows[i].Day.Order() < rows[j].Day.Order()
		}
		if rows[i].Start != rows[j].Start {
			return rows[i].Start < rows[j].Start
		}
		return rows[i].Course < rows[j].Course
	})
	return rows
}
