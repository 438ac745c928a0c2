package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/karmaclinic/clinic-scheduling/internal/timeslot"
)

var (
	ErrNotAvailable = errors.New("practitioner is not available for this slot")
	ErrSlotConflict = errors.New("slot already booked")
)

type BookingInput struct {
	PatientID      uuid.UUID
	PractitionerID uuid.UUID
	Date           timeslot.CalendarDate
	Start          timeslot.TimeOfDay
	End            timeslot.TimeOfDay
	Notes          *string
}

type RescheduleInput struct {
	Date  timeslot.CalendarDate
	Start timeslot.TimeOfDay
	End   timeslot.TimeOfDay
	Notes *string
}

// Book places an appointment. Checks run in a fixed order: practitioner,
// patient, interval shape, availability coverage, appointment conflicts.
// The last two plus the insert run under the schedule lock and inside one
// transaction, so two overlapping concurrent bookings cannot both commit.
func (s *Scheduler) Book(ctx context.Context, in BookingInput) (*AppointmentDetail, error) {
	if _, err := s.repo.GetPractitionerByID(ctx, in.PractitionerID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetPatientByID(ctx, in.PatientID); err != nil {
		return nil, err
	}

	span, err := timeslot.NewInterval(in.Start, in.End)
	if err != nil {
		return nil, err
	}

	var created *Appointment

	err = s.locker.WithScheduleLock(ctx, in.PractitionerID, in.Date, func(lockCtx context.Context) error {
		return s.repo.WithTx(lockCtx, func(txRepo Repository) error {
			ok, err := isAvailable(lockCtx, txRepo, in.PractitionerID, in.Date, span)
			if err != nil {
				return fmt.Errorf("check availability: %w", err)
			}
			if !ok {
				return ErrNotAvailable
			}

			conflicts, err := findConflicts(lockCtx, txRepo, in.PractitionerID, in.Date, span, nil)
			if err != nil {
				return fmt.Errorf("check conflicts: %w", err)
			}
			if len(conflicts) > 0 {
				return ErrSlotConflict
			}

			appt, err := txRepo.InsertAppointment(lockCtx, &Appointment{
				PatientID:      in.PatientID,
				PractitionerID: in.PractitionerID,
				Date:           in.Date,
				Span:           span,
				Notes:          in.Notes,
			})
			if err != nil {
				return fmt.Errorf("insert appointment: %w", err)
			}

			created = appt
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetAppointmentDetail(ctx, created.ID)
}

// Reschedule moves an appointment to a new date or interval, re-validating
// availability and conflicts against the new values while excluding the
// appointment itself from the conflict scan.
func (s *Scheduler) Reschedule(ctx context.Context, id uuid.UUID, in RescheduleInput) (*AppointmentDetail, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	span, err := timeslot.NewInterval(in.Start, in.End)
	if err != nil {
		return nil, err
	}

	err = s.locker.WithScheduleLock(ctx, appt.PractitionerID, in.Date, func(lockCtx context.Context) error {
		return s.repo.WithTx(lockCtx, func(txRepo Repository) error {
			ok, err := isAvailable(lockCtx, txRepo, appt.PractitionerID, in.Date, span)
			if err != nil {
				return fmt.Errorf("check availability: %w", err)
			}
			if !ok {
				return ErrNotAvailable
			}

			conflicts, err := findConflicts(lockCtx, txRepo, appt.PractitionerID, in.Date, span, &appt.ID)
			if err != nil {
				return fmt.Errorf("check conflicts: %w", err)
			}
			if len(conflicts) > 0 {
				return ErrSlotConflict
			}

			updated := *appt
			updated.Date = in.Date
			updated.Span = span
			if in.Notes != nil {
				updated.Notes = in.Notes
			}

			if _, err := txRepo.UpdateAppointment(lockCtx, &updated); err != nil {
				return fmt.Errorf("update appointment: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetAppointmentDetail(ctx, id)
}

// CancelAppointment deletes an appointment; a second cancel reports
// ErrAppointmentNotFound rather than failing loudly.
func (s *Scheduler) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteAppointment(ctx, id)
}

func (s *Scheduler) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	return s.repo.GetAppointmentDetail(ctx, id)
}

// ListPractitionerAppointments returns every appointment for a
// practitioner ordered by date then start time.
func (s *Scheduler) ListPractitionerAppointments(ctx context.Context, practitionerID uuid.UUID) ([]AppointmentDetail, error) {
	if _, err := s.repo.GetPractitionerByID(ctx, practitionerID); err != nil {
		return nil, err
	}
	return s.repo.ListAppointmentDetailsByPractitioner(ctx, practitionerID)
}

// ListPatients and GetPatient expose the reference entities the booking
// forms need.
func (s *Scheduler) ListPatients(ctx context.Context) ([]Patient, error) {
	return s.repo.ListPatients(ctx)
}

func (s *Scheduler) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetPatientByID(ctx, id)
}
