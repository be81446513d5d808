package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/medbook-api/internal/models"
)

// Friday 2030-03-01 09:00 UTC.
var fixedNow = time.Date(2030, time.March, 1, 9, 0, 0, 0, time.UTC)

func testRules(t *testing.T, extra ...string) *Rules {
	t.Helper()
	cal, err := NewCalendar(extra)
	require.NoError(t, err)
	return NewRules(cal, time.UTC, func() time.Time { return fixedNow })
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func active(doctorID string, date time.Time, clock string, status models.AppointmentStatus) models.Appointment {
	return models.Appointment{DoctorID: doctorID, Date: date, Time: clock, Status: status}
}

func TestCheckRejectsCalendarAndHours(t *testing.T) {
	r := testRules(t, "2030-03-05")

	tests := []struct {
		name string
		date string
		time string
		want error
	}{
		{"saturday", "2030-03-09", "10:00", ErrWeekend},
		{"sunday", "2030-03-10", "10:00", ErrWeekend},
		{"fixed holiday", "2030-07-04", "10:00", ErrHoliday},
		{"clinic holiday", "2030-03-05", "10:00", ErrHoliday},
		{"after closing", "2030-03-04", "18:30", ErrOutsideHours},
		{"before opening", "2030-03-04", "06:30", ErrOutsideHours},
		{"yesterday", "2030-02-28", "10:00", ErrPastDate},
		{"earlier today", "2030-03-01", "08:30", ErrPastDate},
		{"bad clock", "2030-03-04", "9:00", ErrInvalidTime},
		{"bad minute", "2030-03-04", "09:75", ErrInvalidTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Check(Request{DoctorID: "doc", Date: day(t, tt.date), Time: tt.time}, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCheckAcceptsBoundaryHours(t *testing.T) {
	r := testRules(t)
	monday := day(t, "2030-03-04")

	assert.NoError(t, r.Check(Request{DoctorID: "doc", Date: monday, Time: "07:00"}, nil))
	assert.NoError(t, r.Check(Request{DoctorID: "doc", Date: monday, Time: "18:00"}, nil))
	assert.NoError(t, r.Check(Request{DoctorID: "doc", Date: day(t, "2030-03-01"), Time: "15:00"}, nil))
}

func TestCheckGapToExistingAppointments(t *testing.T) {
	r := testRules(t)
	monday := day(t, "2030-03-04")
	existing := []models.Appointment{active("doc", monday, "10:00", models.StatusPending)}

	err := r.Check(Request{DoctorID: "doc", Date: monday, Time: "10:20"}, existing)
	assert.ErrorIs(t, err, ErrSlotConflict)

	err = r.Check(Request{DoctorID: "doc", Date: monday, Time: "09:31"}, existing)
	assert.ErrorIs(t, err, ErrSlotConflict)

	err = r.Check(Request{DoctorID: "doc", Date: monday, Time: "10:00"}, existing)
	assert.ErrorIs(t, err, ErrDuplicateSlot)

	assert.NoError(t, r.Check(Request{DoctorID: "doc", Date: monday, Time: "10:30"}, existing))
	assert.NoError(t, r.Check(Request{DoctorID: "doc", Date: monday, Time: "09:30"}, existing))
	assert.NoError(t, r.Check(Request{DoctorID: "other", Date: monday, Time: "10:00"}, existing))
	assert.NoError(t, r.Check(Request{DoctorID: "doc", Date: day(t, "2030-03-05"), Time: "10:00"}, existing))
}

func TestCheckIgnoresInactiveAppointments(t *testing.T) {
	r := testRules(t)
	monday := day(t, "2030-03-04")
	existing := []models.Appointment{
		active("doc", monday, "10:00", models.StatusCancelled),
		active("doc", monday, "11:00", models.StatusCompleted),
	}

	assert.NoError(t, r.Check(Request{DoctorID: "doc", Date: monday, Time: "10:00"}, existing))
	assert.NoError(t, r.Check(Request{DoctorID: "doc", Date: monday, Time: "11:10"}, existing))
}

func TestCheckConflictWinsOverDuplicate(t *testing.T) {
	r := testRules(t)
	monday := day(t, "2030-03-04")
	existing := []models.Appointment{
		active("doc", monday, "10:00", models.StatusConfirmed),
		active("doc", monday, "10:15", models.StatusPending),
	}

	err := r.Check(Request{DoctorID: "doc", Date: monday, Time: "10:00"}, existing)
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestAvailability(t *testing.T) {
	r := testRules(t)
	monday := day(t, "2030-03-04")
	existing := []models.Appointment{active("doc", monday, "10:00", models.StatusPending)}

	slots := r.Availability("doc", monday, existing)
	require.Len(t, slots, 23)
	assert.Equal(t, "07:00", slots[0].Time)
	assert.Equal(t, "18:00", slots[len(slots)-1].Time)

	byTime := make(map[string]Slot, len(slots))
	for _, s := range slots {
		byTime[s.Time] = s
	}
	assert.False(t, byTime["10:00"].Available)
	assert.Equal(t, "DUPLICATE_SLOT", byTime["10:00"].Reason)
	assert.True(t, byTime["09:30"].Available)
	assert.True(t, byTime["10:30"].Available)

	for _, s := range r.Availability("doc", day(t, "2030-03-09"), nil) {
		assert.False(t, s.Available)
		assert.Equal(t, "WEEKEND", s.Reason)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2030-03-04T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("04/03/2030")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestNewCalendarRejectsBadDate(t *testing.T) {
	_, err := NewCalendar([]string{"2030-13-01"})
	assert.Error(t, err)
}
