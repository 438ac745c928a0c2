package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/karmaclinic/clinic-scheduling/internal/timeslot"
)

var (
	ErrPractitionerNotFound = errors.New("practitioner not found")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrWindowNotFound       = errors.New("availability window not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the scheduler.
type Repository interface {
	// Reference entities: the scheduler only needs lookups, never writes.
	GetPractitionerByID(ctx context.Context, id uuid.UUID) (*Practitioner, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListPatients(ctx context.Context) ([]Patient, error)

	// Availability windows
	GetWindowByID(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error)
	ListWindowsByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]AvailabilityWindow, error)
	InsertWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error)
	DeleteWindow(ctx context.Context, id uuid.UUID) error

	// Appointments
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointmentsForDay(ctx context.Context, practitionerID uuid.UUID, date timeslot.CalendarDate) ([]Appointment, error)
	ListAppointmentDetailsInRange(ctx context.Context, practitionerID uuid.UUID, from, to timeslot.CalendarDate) ([]AppointmentDetail, error)
	ListAppointmentDetailsByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]AppointmentDetail, error)
	InsertAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// WithTx runs fn against a repository view scoped to one transaction.
	// Booking uses this so the conflict check and the insert commit or roll
	// back as a unit.
	WithTx(ctx context.Context, fn func(Repository) error) error
}
