package timetable

import (
	"sort"
	"strings"
)

// Availability maps teacher -> day -> sorted atomic slot indices.
type Availability map[string]map[Day][]int

// NormalizeAvailability discretises every teacher's clock ranges into atomic
// slot indices. A range "HH:MM-HH:MM" yields one index per unit-sized step
// strictly within [start, end); overlapping or adjacent ranges merge through
// the set semantics.
func NormalizeAvailability(teachers []Teacher, atomicMinutes int) (Availability, error) {
	result := make(Availability, len(teachers))
	for _, teacher := range teachers {
		days := make(map[Day][]int, len(teacher.Availability))
		for day, ranges := range teacher.Availability {
			slotSet := make(map[int]struct{})
			for _, window := range ranges {
				start, end, err := parseRange(window)
				if err != nil {
					return nil, &MalformedRangeError{TeacherID: teacher.ID, Day: day, Range: window, Reason: err.Error()}
				}
				for t := start; t < end; t += atomicMinutes {
					slotSet[t/atomicMinutes] = struct{}{}
				}
			}
			slots := make([]int, 0, len(slotSet))
			for slot := range slotSet {
				slots = append(slots, slot)
			}
			sort.Ints(slots)
			days[day] = slots
		}
		result[teacher.ID] = days
	}
	return result, nil
}

// UnitsFor sums a teacher's declared availability across the week.
func (a Availability) UnitsFor(teacherID string) int {
	total := 0
	for _, slots := range a[teacherID] {
		total += len(slots)
	}
	return total
}

func parseRange(window string) (start, end int, err error) {
	parts := strings.SplitN(window, "-", 2)
	if len(parts) != 2 {
		return 0, 0, errMissingSeparator
	}
	if start, err = parseClock(parts[0]); err != nil {
		return 0, 0, err
	}
	if end, err = parseClock(parts[1]); err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, errEmptyRange
	}
	return start, end, nil
}

var (
	errMissingSeparator = rangeError("missing \"-\" separator")
	errEmptyRange       = rangeError("end is not after start")
)

type rangeError string

func (e rangeError) Error() string { return string(e) }
