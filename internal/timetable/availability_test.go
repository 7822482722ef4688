package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAvailabilityDiscretisesWindows(t *testing.T) {
	teachers := []Teacher{{
		ID: "t1",
		Availability: map[Day][]string{
			Monday: {"08:00-10:00"},
		},
	}}

	availability, err := NormalizeAvailability(teachers, 30)
	require.NoError(t, err)
	assert.Equal(t, []int{16, 17, 18, 19}, availability["t1"][Monday])
}

func TestNormalizeAvailabilityMergesOverlappingWindows(t *testing.T) {
	teachers := []Teacher{{
		ID: "t1",
		Availability: map[Day][]string{
			Monday: {"08:00-09:00", "08:30-10:00"},
		},
	}}

	availability, err := NormalizeAvailability(teachers, 30)
	require.NoError(t, err)
	assert.Equal(t, []int{16, 17, 18, 19}, availability["t1"][Monday])
}

func TestNormalizeAvailabilityRejectsMalformedWindow(t *testing.T) {
	teachers := []Teacher{{
		ID: "t1",
		Availability: map[Day][]string{
			Tuesday: {"8h-10h"},
		},
	}}

	_, err := NormalizeAvailability(teachers, 30)
	var malformed *MalformedRangeError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "t1", malformed.TeacherID)
	assert.Equal(t, Tuesday, malformed.Day)
	assert.Equal(t, "8h-10h", malformed.Range)
}

func TestNormalizeAvailabilityRejectsReversedWindow(t *testing.T) {
	teachers := []Teacher{{
		ID: "t1",
		Availability: map[Day][]string{
			Monday: {"10:00-08:00"},
		},
	}}

	_, err := NormalizeAvailability(teachers, 30)
	var malformed *MalformedRangeError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "end is not after start", malformed.Reason)
}

func TestNormalizeAvailabilityRejectsMissingSeparator(t *testing.T) {
	teachers := []Teacher{{
		ID: "t1",
		Availability: map[Day][]string{
			Monday: {"08:00"},
		},
	}}

	_, err := NormalizeAvailability(teachers, 30)
	var malformed *MalformedRangeError
	require.ErrorAs(t, err, &malformed)
}

func TestUnitsForSumsAcrossDays(t *testing.T) {
	teachers := []Teacher{{
		ID: "t1",
		Availability: map[Day][]string{
			Monday:  {"08:00-10:00"},
			Tuesday: {"09:00-10:30"},
		},
	}}

	availability, err := NormalizeAvailability(teachers, 30)
	require.NoError(t, err)
	assert.Equal(t, 7, availability.UnitsFor("t1"))
	assert.Zero(t, availability.UnitsFor("unknown"))
}
