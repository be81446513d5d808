package booking

import (
	"errors"
	"time"

	"github.com/harentsoaR/medbook-api/internal/models"
)

const (
	// MinGap is the minimum distance between two active appointments of a doctor.
	MinGap = 30 * time.Minute

	openingMinute = 7 * 60
	closingMinute = 18 * 60
	slotStep      = 30
)

// Request is the part of a booking the rules look at.
type Request struct {
	DoctorID string
	Date     time.Time // midnight UTC, see ParseDate
	Time     string
}

// Rules validates booking requests against clinic policy and existing appointments.
type Rules struct {
	calendar *Calendar
	location *time.Location
	now      func() time.Time
}

func NewRules(calendar *Calendar, location *time.Location, now func() time.Time) *Rules {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Rules{calendar: calendar, location: location, now: now}
}

// Check applies, in order: request shape, past date, weekend, holiday,
// opening hours, 30 minute gap to active appointments, exact duplicate.
func (r *Rules) Check(req Request, existing []models.Appointment) error {
	minute, err := ParseClock(req.Time)
	if err != nil {
		return err
	}
	if err := r.checkDay(req.Date, minute); err != nil {
		return err
	}
	if minute < openingMinute || minute > closingMinute {
		return ErrOutsideHours
	}

	gap := int(MinGap / time.Minute)
	var duplicate bool
	for _, a := range existing {
		if a.DoctorID != req.DoctorID || !a.Status.Active() || !a.Date.Equal(req.Date) {
			continue
		}
		other, err := ParseClock(a.Time)
		if err != nil {
			continue
		}
		diff := abs(other - minute)
		if diff == 0 {
			duplicate = true
			continue
		}
		if diff < gap {
			return ErrSlotConflict
		}
	}
	if duplicate {
		return ErrDuplicateSlot
	}
	return nil
}

func (r *Rules) checkDay(day time.Time, minute int) error {
	now := r.now().In(r.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) || (day.Equal(today) && minute <= now.Hour()*60+now.Minute()) {
		return ErrPastDate
	}
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return ErrWeekend
	}
	if _, ok := r.calendar.Holiday(day); ok {
		return ErrHoliday
	}
	return nil
}

// Slot is one bookable start time of a doctor's day.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Availability lists the 30 minute start times between opening and closing
// and whether each one would pass Check.
func (r *Rules) Availability(doctorID string, day time.Time, existing []models.Appointment) []Slot {
	slots := make([]Slot, 0, (closingMinute-openingMinute)/slotStep+1)
	for m := openingMinute; m <= closingMinute; m += slotStep {
		clock := FormatClock(m)
		slot := Slot{Time: clock, Available: true}
		if err := r.Check(Request{DoctorID: doctorID, Date: day, Time: clock}, existing); err != nil {
			slot.Available = false
			var be *Error
			if errors.As(err, &be) {
				slot.Reason = be.Code
			}
		}
		slots = append(slots, slot)
	}
	return slots
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
