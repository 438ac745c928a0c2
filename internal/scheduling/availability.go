package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/karmaclinic/clinic-scheduling/internal/timeslot"
)

var (
	ErrInvalidWindowKind = errors.New("window kind must be recurring or specific")
	ErrInvalidWeekday    = errors.New("weekday must be between 1 (Monday) and 7 (Sunday)")
	ErrMissingDate       = errors.New("specific window requires a date")
	ErrWindowOverlap     = errors.New("an availability window already covers this time range")
)

// CreateWindowInput carries a validated-at-the-boundary window creation
// request. For a recurring window Weekday is set and Date left zero; for a
// specific window the reverse.
type CreateWindowInput struct {
	PractitionerID uuid.UUID
	Kind           WindowKind
	Weekday        int
	Date           timeslot.CalendarDate
	Start          timeslot.TimeOfDay
	End            timeslot.TimeOfDay
}

// CreateWindow declares a new availability window. Windows of the same
// kind-key (same weekday, or same specific date) for one practitioner must
// not overlap; both kinds are validated here.
func (s *Scheduler) CreateWindow(ctx context.Context, in CreateWindowInput) (*AvailabilityWindow, error) {
	span, err := timeslot.NewInterval(in.Start, in.End)
	if err != nil {
		return nil, err
	}

	switch in.Kind {
	case WindowRecurring:
		if in.Weekday < 1 || in.Weekday > 7 {
			return nil, ErrInvalidWeekday
		}
		if !in.Date.IsZero() {
			return nil, fmt.Errorf("%w: recurring window must not set a date", ErrInvalidWindowKind)
		}
	case WindowSpecific:
		if in.Date.IsZero() {
			return nil, ErrMissingDate
		}
		if in.Weekday != 0 {
			return nil, fmt.Errorf("%w: specific window must not set a weekday", ErrInvalidWindowKind)
		}
	default:
		return nil, ErrInvalidWindowKind
	}

	if _, err := s.repo.GetPractitionerByID(ctx, in.PractitionerID); err != nil {
		return nil, err
	}

	window := AvailabilityWindow{
		PractitionerID: in.PractitionerID,
		Kind:           in.Kind,
		Weekday:        in.Weekday,
		Date:           in.Date,
		Span:           span,
	}

	// The overlap scan and the insert run under the schedule lock and one
	// transaction so two concurrent creates of the same kind-key cannot
	// both pass the scan. Recurring windows carry no date, so they share
	// the practitioner's zero-date lock partition.
	var created *AvailabilityWindow

	err = s.locker.WithScheduleLock(ctx, in.PractitionerID, in.Date, func(lockCtx context.Context) error {
		return s.repo.WithTx(lockCtx, func(txRepo Repository) error {
			existing, err := txRepo.ListWindowsByPractitioner(lockCtx, in.PractitionerID)
			if err != nil {
				return fmt.Errorf("list windows: %w", err)
			}
			for _, w := range existing {
				if w.Kind != window.Kind {
					continue
				}
				if window.Kind == WindowRecurring && w.Weekday != window.Weekday {
					continue
				}
				if window.Kind == WindowSpecific && !w.Date.Equal(window.Date) {
					continue
				}
				if w.Span.Overlaps(span) {
					return ErrWindowOverlap
				}
			}

			created, err = txRepo.InsertWindow(lockCtx, &window)
			if err != nil {
				return fmt.Errorf("insert window: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteWindow removes a window. Already-booked appointments are untouched:
// deleting availability never retroactively invalidates them.
func (s *Scheduler) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteWindow(ctx, id)
}

func (s *Scheduler) ListWindows(ctx context.Context, practitionerID uuid.UUID) ([]AvailabilityWindow, error) {
	if _, err := s.repo.GetPractitionerByID(ctx, practitionerID); err != nil {
		return nil, err
	}
	return s.repo.ListWindowsByPractitioner(ctx, practitionerID)
}

// IsAvailable answers whether the practitioner offers availability covering
// the interval on the given date, ignoring booked appointments.
func (s *Scheduler) IsAvailable(ctx context.Context, practitionerID uuid.UUID, date timeslot.CalendarDate, span timeslot.Interval) (bool, error) {
	return isAvailable(ctx, s.repo, practitionerID, date, span)
}

// CheckSlot backs the public availability probe. It is deliberately blind
// to appointment conflicts: it reports only whether a window covers the
// interval, matching the behavior the planning UI relies on.
func (s *Scheduler) CheckSlot(ctx context.Context, practitionerID uuid.UUID, date timeslot.CalendarDate, start, end timeslot.TimeOfDay) (bool, error) {
	span, err := timeslot.NewInterval(start, end)
	if err != nil {
		return false, err
	}
	return isAvailable(ctx, s.repo, practitionerID, date, span)
}
