package scheduling

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karmaclinic/clinic-scheduling/internal/timeslot"
)

func TestCreateRecurringWindow(t *testing.T) {
	sched, _, pract, _ := newFixture(t)

	w := addRecurring(t, sched, pract.ID, 1, "09:00", "12:00")

	assert.NotEqual(t, uuid.Nil, w.ID)
	assert.Equal(t, pract.ID, w.PractitionerID)
	assert.Equal(t, WindowRecurring, w.Kind)
	assert.Equal(t, 1, w.Weekday)
	assert.True(t, w.Date.IsZero())
	assert.Equal(t, "09:00", w.Span.Start.String())
	assert.Equal(t, "12:00", w.Span.End.String())
}

func TestCreateSpecificWindow(t *testing.T) {
	sched, _, pract, _ := newFixture(t)

	w := addSpecific(t, sched, pract.ID, "2024-06-05", "14:00", "18:00")

	assert.Equal(t, WindowSpecific, w.Kind)
	assert.Equal(t, "2024-06-05", w.Date.String())
	assert.Zero(t, w.Weekday)
}

func TestCreateWindowValidation(t *testing.T) {
	sched, _, pract, _ := newFixture(t)
	ctx := context.Background()

	_, err := sched.CreateWindow(ctx, CreateWindowInput{
		PractitionerID: pract.ID,
		Kind:           WindowRecurring,
		Weekday:        1,
		Start:          tod(t, "12:00"),
		End:            tod(t, "09:00"),
	})
	assert.ErrorIs(t, err, timeslot.ErrInvalidInterval)

	_, err = sched.CreateWindow(ctx, CreateWindowInput{
		PractitionerID: pract.ID,
		Kind:           WindowKind("monthly"),
		Start:          tod(t, "09:00"),
		End:            tod(t, "12:00"),
	})
	assert.ErrorIs(t, err, ErrInvalidWindowKind)

	for _, weekday := range []int{0, 8, -1} {
		_, err = sched.CreateWindow(ctx, CreateWindowInput{
			PractitionerID: pract.ID,
			Kind:           WindowRecurring,
			Weekday:        weekday,
			Start:          tod(t, "09:00"),
			End:            tod(t, "12:00"),
		})
		assert.ErrorIs(t, err, ErrInvalidWeekday, "weekday %d", weekday)
	}

	_, err = sched.CreateWindow(ctx, CreateWindowInput{
		PractitionerID: pract.ID,
		Kind:           WindowSpecific,
		Start:          tod(t, "09:00"),
		End:            tod(t, "12:00"),
	})
	assert.ErrorIs(t, err, ErrMissingDate)

	// Both kind keys at once is as invalid as neither.
	_, err = sched.CreateWindow(ctx, CreateWindowInput{
		PractitionerID: pract.ID,
		Kind:           WindowRecurring,
		Weekday:        1,
		Date:           day(t, "2024-06-03"),
		Start:          tod(t, "09:00"),
		End:            tod(t, "12:00"),
	})
	assert.ErrorIs(t, err, ErrInvalidWindowKind)

	_, err = sched.CreateWindow(ctx, CreateWindowInput{
		PractitionerID: pract.ID,
		Kind:           WindowSpecific,
		Weekday:        1,
		Date:           day(t, "2024-06-03"),
		Start:          tod(t, "09:00"),
		End:            tod(t, "12:00"),
	})
	assert.ErrorIs(t, err, ErrInvalidWindowKind)

	_, err = sched.CreateWindow(ctx, CreateWindowInput{
		PractitionerID: uuid.New(),
		Kind:           WindowRecurring,
		Weekday:        1,
		Start:          tod(t, "09:00"),
		End:            tod(t, "12:00"),
	})
	assert.ErrorIs(t, err, ErrPractitionerNotFound)
}

func TestCreateWindowRejectsSameKeyOverlap(t *testing.T) {
	sched, _, pract, _ := newFixture(t)
	ctx := context.Background()

	addRecurring(t, sched, pract.ID, 1, "09:00", "12:00")

	_, err := sched.CreateWindow(ctx, CreateWindowInput{
		PractitionerID: pract.ID,
		Kind:           WindowRecurring,
		Weekday:        1,
		Start:          tod(t, "11:00"),
		End:            tod(t, "13:00"),
	})
	assert.ErrorIs(t, err, ErrWindowOverlap)

	// Same hours on a different weekday are a different key.
	addRecurring(t, sched, pract.ID, 2, "09:00", "12:00")

	// Back-to-back on the same weekday shares no minute.
	addRecurring(t, sched, pract.ID, 1, "12:00", "14:00")

	// A specific window may shadow a recurring one at the same hours.
	addSpecific(t, sched, pract.ID, "2024-06-03", "09:00", "12:00")

	addSpecific(t, sched, pract.ID, "2024-06-05", "09:00", "12:00")
	_, err = sched.CreateWindow(ctx, CreateWindowInput{
		PractitionerID: pract.ID,
		Kind:           WindowSpecific,
		Date:           day(t, "2024-06-05"),
		Start:          tod(t, "10:00"),
		End:            tod(t, "11:00"),
	})
	assert.ErrorIs(t, err, ErrWindowOverlap)
}

func TestConcurrentWindowCreatesSingleWinner(t *testing.T) {
	sched, _, pract, _ := newFixture(t)
	ctx := context.Background()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sched.CreateWindow(ctx, CreateWindowInput{
				PractitionerID: pract.ID,
				Kind:           WindowRecurring,
				Weekday:        1,
				Start:          tod(t, "09:00"),
				End:            tod(t, "12:00"),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, overlaps int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, ErrWindowOverlap)
			overlaps++
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, overlaps)

	windows, err := sched.ListWindows(ctx, pract.ID)
	require.NoError(t, err)
	assert.Len(t, windows, 1)
}

func TestDeleteWindow(t *testing.T) {
	sched, _, pract, _ := newFixture(t)
	ctx := context.Background()

	w := addRecurring(t, sched, pract.ID, 1, "09:00", "12:00")

	require.NoError(t, sched.DeleteWindow(ctx, w.ID))
	assert.ErrorIs(t, sched.DeleteWindow(ctx, w.ID), ErrWindowNotFound)

	windows, err := sched.ListWindows(ctx, pract.ID)
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestListWindowsUnknownPractitioner(t *testing.T) {
	sched, _, _, _ := newFixture(t)

	_, err := sched.ListWindows(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPractitionerNotFound)
}

func TestCheckSlotRecurringResolution(t *testing.T) {
	sched, _, pract, _ := newFixture(t)
	ctx := context.Background()

	addRecurring(t, sched, pract.ID, 1, "09:00", "12:00")

	// 2024-06-03 is a Monday, 2024-06-04 a Tuesday.
	ok, err := sched.CheckSlot(ctx, pract.ID, day(t, "2024-06-03"), tod(t, "09:00"), tod(t, "09:30"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = sched.CheckSlot(ctx, pract.ID, day(t, "2024-06-04"), tod(t, "09:00"), tod(t, "09:30"))
	require.NoError(t, err)
	assert.False(t, ok)

	// Slot sticking out past the window end is not covered.
	ok, err = sched.CheckSlot(ctx, pract.ID, day(t, "2024-06-03"), tod(t, "11:30"), tod(t, "12:30"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckSlotSpecificResolution(t *testing.T) {
	sched, _, pract, _ := newFixture(t)
	ctx := context.Background()

	addSpecific(t, sched, pract.ID, "2024-06-04", "14:00", "16:00")

	ok, err := sched.CheckSlot(ctx, pract.ID, day(t, "2024-06-04"), tod(t, "14:00"), tod(t, "14:30"))
	require.NoError(t, err)
	assert.True(t, ok)

	// The specific window does not bleed into other Tuesdays.
	ok, err = sched.CheckSlot(ctx, pract.ID, day(t, "2024-06-11"), tod(t, "14:00"), tod(t, "14:30"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckSlotIgnoresBookedAppointments(t *testing.T) {
	sched, _, pract, patient := newFixture(t)
	ctx := context.Background()

	addRecurring(t, sched, pract.ID, 1, "09:00", "12:00")

	_, err := sched.Book(ctx, BookingInput{
		PatientID:      patient.ID,
		PractitionerID: pract.ID,
		Date:           day(t, "2024-06-03"),
		Start:          tod(t, "09:00"),
		End:            tod(t, "09:30"),
	})
	require.NoError(t, err)

	// The probe answers window coverage only, not slot freedom.
	ok, err := sched.CheckSlot(ctx, pract.ID, day(t, "2024-06-03"), tod(t, "09:00"), tod(t, "09:30"))
	require.NoError(t, err)
	assert.True(t, ok)
}
