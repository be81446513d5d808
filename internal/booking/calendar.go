package booking

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

type monthDay struct {
	month time.Month
	day   int
}

// fixedHolidays recur on the same calendar day every year.
var fixedHolidays = map[monthDay]string{
	{time.January, 1}:   "New Year's Day",
	{time.June, 19}:     "Juneteenth",
	{time.July, 4}:      "Independence Day",
	{time.November, 11}: "Veterans Day",
	{time.December, 25}: "Christmas Day",
}

// Calendar answers whether a day is a public holiday.
type Calendar struct {
	dates map[string]string
}

// NewCalendar builds a calendar of the fixed holidays plus extra YYYY-MM-DD dates.
func NewCalendar(extra []string) (*Calendar, error) {
	c := &Calendar{dates: make(map[string]string, len(extra))}
	for _, s := range extra {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("booking: invalid holiday %q: %w", s, err)
		}
		c.dates[d.Format(dateLayout)] = "Clinic holiday"
	}
	return c, nil
}

// Holiday returns the holiday name for day, if any.
func (c *Calendar) Holiday(day time.Time) (string, bool) {
	if name, ok := fixedHolidays[monthDay{day.Month(), day.Day()}]; ok {
		return name, true
	}
	if c == nil {
		return "", false
	}
	name, ok := c.dates[day.Format(dateLayout)]
	return name, ok
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp and returns the
// calendar day as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return time.Time{}, ErrInvalidDate
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ParseClock parses a 24h "HH:MM" string into minutes after midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, ErrInvalidTime
	}
	h, okH := twoDigits(s[0], s[1])
	m, okM := twoDigits(s[3], s[4])
	if !okH || !okM || h > 23 || m > 59 {
		return 0, ErrInvalidTime
	}
	return h*60 + m, nil
}

// FormatClock renders minutes after midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}
