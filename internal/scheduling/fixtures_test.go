package scheduling

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	redisclient "github.com/karmaclinic/clinic-scheduling/internal/redis"
	"github.com/karmaclinic/clinic-scheduling/internal/timeslot"
)

// newFixture wires a Scheduler over the in-memory repository and the
// in-process locker, seeded with one practitioner and one patient.
func newFixture(t *testing.T) (*Scheduler, *MemoryRepository, Practitioner, Patient) {
	t.Helper()

	repo := NewMemoryRepository()
	sched := NewScheduler(repo, redisclient.NewLocalLocker())

	pract := Practitioner{ID: uuid.New(), FirstName: "Claire", LastName: "Moreau", Role: "doctor"}
	patient := Patient{ID: uuid.New(), FirstName: "Hugo", LastName: "Bernard"}
	repo.AddPractitioner(pract)
	repo.AddPatient(patient)

	return sched, repo, pract, patient
}

func tod(t *testing.T, s string) timeslot.TimeOfDay {
	t.Helper()
	v, err := timeslot.ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func day(t *testing.T, s string) timeslot.CalendarDate {
	t.Helper()
	d, err := timeslot.ParseCalendarDate(s)
	require.NoError(t, err)
	return d
}

func addRecurring(t *testing.T, s *Scheduler, practitionerID uuid.UUID, weekday int, start, end string) *AvailabilityWindow {
	t.Helper()
	w, err := s.CreateWindow(context.Background(), CreateWindowInput{
		PractitionerID: practitionerID,
		Kind:           WindowRecurring,
		Weekday:        weekday,
		Start:          tod(t, start),
		End:            tod(t, end),
	})
	require.NoError(t, err)
	return w
}

func addSpecific(t *testing.T, s *Scheduler, practitionerID uuid.UUID, date, start, end string) *AvailabilityWindow {
	t.Helper()
	w, err := s.CreateWindow(context.Background(), CreateWindowInput{
		PractitionerID: practitionerID,
		Kind:           WindowSpecific,
		Date:           day(t, date),
		Start:          tod(t, start),
		End:            tod(t, end),
	})
	require.NoError(t, err)
	return w
}
