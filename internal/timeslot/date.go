package timeslot

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

const dateLayout = "2006-01-02"

// CalendarDate is a date without a time-of-day or timezone component,
// represented internally as midnight UTC so values compare cheaply.
type CalendarDate struct {
	t time.Time
}

// NewCalendarDate builds a date from its components.
func NewCalendarDate(year int, month time.Month, day int) CalendarDate {
	return CalendarDate{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseCalendarDate parses the canonical "YYYY-MM-DD" form.
func ParseCalendarDate(s string) (CalendarDate, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return CalendarDate{t: t}, nil
}

// DateFromTime truncates an instant to its calendar date.
func DateFromTime(t time.Time) CalendarDate {
	return NewCalendarDate(t.Year(), t.Month(), t.Day())
}

func (d CalendarDate) IsZero() bool { return d.t.IsZero() }

// ISOWeekday numbers the weekday 1 (Monday) through 7 (Sunday).
func (d CalendarDate) ISOWeekday() int {
	wd := int(d.t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func (d CalendarDate) AddDays(n int) CalendarDate {
	return CalendarDate{t: d.t.AddDate(0, 0, n)}
}

func (d CalendarDate) Before(o CalendarDate) bool { return d.t.Before(o.t) }
func (d CalendarDate) After(o CalendarDate) bool  { return d.t.After(o.t) }
func (d CalendarDate) Equal(o CalendarDate) bool  { return d.t.Equal(o.t) }

// Time exposes the underlying midnight-UTC instant for database drivers.
func (d CalendarDate) Time() time.Time { return d.t }

func (d CalendarDate) String() string {
	return d.t.Format(dateLayout)
}

func (d CalendarDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *CalendarDate) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	parsed, err := ParseCalendarDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
