// Package scheduling implements the clinic booking engine: practitioner
// availability windows, appointment conflict detection and the calendar
// week view composed from both.
package scheduling

import (
	"context"

	"github.com/google/uuid"

	redisclient "github.com/karmaclinic/clinic-scheduling/internal/redis"
	"github.com/karmaclinic/clinic-scheduling/internal/timeslot"
)

// Scheduler orchestrates availability, booking and calendar reads over a
// Repository. Booking writes are additionally serialized through the
// Locker, keyed by (practitioner, date).
type Scheduler struct {
	repo   Repository
	locker redisclient.Locker
}

func NewScheduler(repo Repository, locker redisclient.Locker) *Scheduler {
	return &Scheduler{
		repo:   repo,
		locker: locker,
	}
}

// findConflicts returns the appointments for the practitioner and date
// whose half-open intervals overlap span, skipping excludeID so an
// appointment being rescheduled never conflicts with itself.
func findConflicts(ctx context.Context, repo Repository, practitionerID uuid.UUID, date timeslot.CalendarDate, span timeslot.Interval, excludeID *uuid.UUID) ([]Appointment, error) {
	existing, err := repo.ListAppointmentsForDay(ctx, practitionerID, date)
	if err != nil {
		return nil, err
	}

	var conflicts []Appointment
	for _, a := range existing {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.Span.Overlaps(span) {
			conflicts = append(conflicts, a)
		}
	}
	return conflicts, nil
}

// isAvailable resolves whether any of the practitioner's windows covers
// span on date. Specific windows for the exact date are consulted first,
// then recurring windows for the date's weekday.
func isAvailable(ctx context.Context, repo Repository, practitionerID uuid.UUID, date timeslot.CalendarDate, span timeslot.Interval) (bool, error) {
	windows, err := repo.ListWindowsByPractitioner(ctx, practitionerID)
	if err != nil {
		return false, err
	}

	for _, w := range windows {
		if w.Kind == WindowSpecific && w.Date.Equal(date) && w.Span.Contains(span) {
			return true, nil
		}
	}
	wd := date.ISOWeekday()
	for _, w := range windows {
		if w.Kind == WindowRecurring && w.Weekday == wd && w.Span.Contains(span) {
			return true, nil
		}
	}
	return false, nil
}
