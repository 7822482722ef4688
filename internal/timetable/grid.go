package timetable

import (
	"fmt"
	"strconv"
	"strings"
)

// Day is a workday in the institutional week.
type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
)

// Weekdays fixes the scheduling order of the week. Presentation and
// tie-breaking both rely on this order.
var Weekdays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

var weekdayOrder = map[Day]int{
	Monday:    0,
	Tuesday:   1,
	Wednesday: 2,
	Thursday:  3,
	Friday:    4,
}

// Order returns the position of the day within the week, or -1 for an
// unknown day.
func (d Day) Order() int {
	if idx, ok := weekdayOrder[d]; ok {
		return idx
	}
	return -1
}

// Valid reports whether the day is one of the configured workdays.
func (d Day) Valid() bool {
	return d.Order() >= 0
}

// Config fixes the discretisation and the hard limits of the engine. All
// durations are counted in atomic slots.
type Config struct {
	// AtomicMinutes is the size of one slot. Slot index i covers clock
	// minutes [i*AtomicMinutes, (i+1)*AtomicMinutes).
	AtomicMinutes int
	// ReservedSlots are globally excluded from every assignment.
	ReservedSlots []int
	// SingleDayMaxUnits is the largest weekly duration that must still be
	// placed inside a single day.
	SingleDayMaxUnits int
	// SplitLengths are the admissible block lengths for courses above the
	// single-day threshold.
	SplitLengths []int
	// MaxTeacherUnits caps a teacher's selected slots per week.
	MaxTeacherUnits int
	// Partition overrides the default partition policy when set.
	Partition PartitionPolicy
}

func (c Config) withDefaults() Config {
	if c.AtomicMinutes <= 0 {
		c.AtomicMinutes = 30
	}
	if c.SingleDayMaxUnits <= 0 {
		c.SingleDayMaxUnits = 8
	}
	if len(c.SplitLengths) == 0 {
		c.SplitLengths = []int{6, 4}
	}
	if c.MaxTeacherUnits <= 0 {
		c.MaxTeacherUnits = 40
	}
	return c
}

// parseClock converts "HH:MM" into minutes from midnight.
func parseClock(raw string) (int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("clock value %q is not HH:MM", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("clock value %q has a bad hour", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("clock value %q has a bad minute", raw)
	}
	if hours < 0 || hours > 24 || minutes < 0 || minutes > 59 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("clock value %q is out of range", raw)
	}
	return hours*60 + minutes, nil
}

// formatClock renders minutes from midnight as "HH:MM".
func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
