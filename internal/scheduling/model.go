package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/karmaclinic/clinic-scheduling/internal/timeslot"
)

// WindowKind distinguishes the two mutually exclusive availability shapes:
// a weekly recurring window keyed by ISO weekday, or a window tied to one
// specific calendar date.
type WindowKind string

const (
	WindowRecurring WindowKind = "recurring"
	WindowSpecific  WindowKind = "specific"
)

// BusinessDaysPerWeek bounds the calendar week view.
const BusinessDaysPerWeek = 5

type Service struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Practitioner struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Patient struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     *string
	ServiceID *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailabilityWindow is a practitioner-declared interval during which
// bookings may be placed. For a recurring window Weekday is 1..7 and Date
// is the zero value; for a specific window Date is set and Weekday is 0.
type AvailabilityWindow struct {
	ID             uuid.UUID
	PractitionerID uuid.UUID
	Kind           WindowKind
	Weekday        int
	Date           timeslot.CalendarDate
	Span           timeslot.Interval
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AppliesTo reports whether the window offers time on the given date.
func (w AvailabilityWindow) AppliesTo(date timeslot.CalendarDate) bool {
	switch w.Kind {
	case WindowSpecific:
		return w.Date.Equal(date)
	case WindowRecurring:
		return w.Weekday == date.ISOWeekday()
	}
	return false
}

type Appointment struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	PractitionerID uuid.UUID
	Date           timeslot.CalendarDate
	Span           timeslot.Interval
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PersonSummary is the slim reference shape handed to the view layers in
// place of in-memory back-references between entities.
type PersonSummary struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
}

type AppointmentDetail struct {
	Appointment
	Patient      PersonSummary
	Practitioner PersonSummary
}

// DaySchedule is one day of the merged calendar view: the availability
// windows that apply to the date (specific windows listed first) and the
// day's appointments ordered by start time.
type DaySchedule struct {
	Date         timeslot.CalendarDate
	Availability []AvailabilityWindow
	Appointments []AppointmentDetail
}
