package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/karmaclinic/clinic-scheduling/internal/timeslot"
)

// WeekSchedule composes the calendar view for the five business days
// starting at weekStart: per day, the availability windows that apply
// (specific windows for the exact date first, then recurring windows for
// the weekday) and the day's appointments ordered by start time. Pure
// read; the 30-minute slot grid is derived by the consumer.
func (s *Scheduler) WeekSchedule(ctx context.Context, practitionerID uuid.UUID, weekStart timeslot.CalendarDate) ([]DaySchedule, error) {
	if _, err := s.repo.GetPractitionerByID(ctx, practitionerID); err != nil {
		return nil, err
	}

	windows, err := s.repo.ListWindowsByPractitioner(ctx, practitionerID)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}

	weekEnd := weekStart.AddDays(BusinessDaysPerWeek - 1)
	appointments, err := s.repo.ListAppointmentDetailsInRange(ctx, practitionerID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	byDate := make(map[string][]AppointmentDetail)
	for _, a := range appointments {
		key := a.Date.String()
		byDate[key] = append(byDate[key], a)
	}

	days := make([]DaySchedule, 0, BusinessDaysPerWeek)
	for i := 0; i < BusinessDaysPerWeek; i++ {
		date := weekStart.AddDays(i)
		day := DaySchedule{Date: date}

		for _, w := range windows {
			if w.Kind == WindowSpecific && w.AppliesTo(date) {
				day.Availability = append(day.Availability, w)
			}
		}
		for _, w := range windows {
			if w.Kind == WindowRecurring && w.AppliesTo(date) {
				day.Availability = append(day.Availability, w)
			}
		}

		day.Appointments = byDate[date.String()]
		days = append(days, day)
	}

	return days, nil
}
