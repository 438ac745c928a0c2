package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/karmaclinic/clinic-scheduling/internal/timeslot"
)

// MemoryRepository is a map-backed Repository used by the test suites and
// for running the service without Postgres. A single mutex stands in for
// the transactional boundary, which makes WithTx trivially serializable.
type MemoryRepository struct {
	mu            sync.Mutex
	practitioners map[uuid.UUID]Practitioner
	patients      map[uuid.UUID]Patient
	windows       map[uuid.UUID]AvailabilityWindow
	appointments  map[uuid.UUID]Appointment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		practitioners: make(map[uuid.UUID]Practitioner),
		patients:      make(map[uuid.UUID]Patient),
		windows:       make(map[uuid.UUID]AvailabilityWindow),
		appointments:  make(map[uuid.UUID]Appointment),
	}
}

// AddPractitioner and AddPatient seed reference entities directly; the
// scheduler itself never creates them.
func (r *MemoryRepository) AddPractitioner(p Practitioner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.practitioners[p.ID] = p
}

func (r *MemoryRepository) AddPatient(p Patient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients[p.ID] = p
}

func (r *MemoryRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	// The per-call mutex already serializes every operation, so the
	// callback simply runs against the same store.
	return fn(r)
}

func (r *MemoryRepository) GetPractitionerByID(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.practitioners[id]
	if !ok {
		return nil, ErrPractitionerNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) ListPatients(ctx context.Context) ([]Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Patient, 0, len(r.patients))
	for _, p := range r.patients {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		return result[i].FirstName < result[j].FirstName
	})
	return result, nil
}

func (r *MemoryRepository) GetWindowByID(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[id]
	if !ok {
		return nil, ErrWindowNotFound
	}
	return &w, nil
}

func (r *MemoryRepository) ListWindowsByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]AvailabilityWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []AvailabilityWindow
	for _, w := range r.windows {
		if w.PractitionerID == practitionerID {
			result = append(result, w)
		}
	}
	// Specific windows first, mirroring the resolution order.
	sort.Slice(result, func(i, j int) bool {
		if result[i].Kind != result[j].Kind {
			return result[i].Kind == WindowSpecific
		}
		return result[i].Span.Start < result[j].Span.Start
	})
	return result, nil
}

func (r *MemoryRepository) InsertWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *w
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.windows[stored.ID] = stored
	return &stored, nil
}

func (r *MemoryRepository) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.windows[id]; !ok {
		return ErrWindowNotFound
	}
	delete(r.windows, id)
	return nil
}

func (r *MemoryRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return r.detailLocked(a)
}

func (r *MemoryRepository) detailLocked(a Appointment) (*AppointmentDetail, error) {
	pa, ok := r.patients[a.PatientID]
	if !ok {
		return nil, ErrPatientNotFound
	}
	pr, ok := r.practitioners[a.PractitionerID]
	if !ok {
		return nil, ErrPractitionerNotFound
	}
	return &AppointmentDetail{
		Appointment:  a,
		Patient:      PersonSummary{ID: pa.ID, FirstName: pa.FirstName, LastName: pa.LastName},
		Practitioner: PersonSummary{ID: pr.ID, FirstName: pr.FirstName, LastName: pr.LastName},
	}, nil
}

func (r *MemoryRepository) ListAppointmentsForDay(ctx context.Context, practitionerID uuid.UUID, date timeslot.CalendarDate) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Appointment
	for _, a := range r.appointments {
		if a.PractitionerID == practitionerID && a.Date.Equal(date) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Span.Start < result[j].Span.Start
	})
	return result, nil
}

func (r *MemoryRepository) ListAppointmentDetailsInRange(ctx context.Context, practitionerID uuid.UUID, from, to timeslot.CalendarDate) ([]AppointmentDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []AppointmentDetail
	for _, a := range r.appointments {
		if a.PractitionerID != practitionerID || a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		d, err := r.detailLocked(a)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	sortDetails(result)
	return result, nil
}

func (r *MemoryRepository) ListAppointmentDetailsByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]AppointmentDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []AppointmentDetail
	for _, a := range r.appointments {
		if a.PractitionerID != practitionerID {
			continue
		}
		d, err := r.detailLocked(a)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	sortDetails(result)
	return result, nil
}

func sortDetails(details []AppointmentDetail) {
	sort.Slice(details, func(i, j int) bool {
		if !details[i].Date.Equal(details[j].Date) {
			return details[i].Date.Before(details[j].Date)
		}
		return details[i].Span.Start < details[j].Span.Start
	})
}

func (r *MemoryRepository) InsertAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *a
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.appointments[stored.ID] = stored
	return &stored, nil
}

func (r *MemoryRepository) UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.appointments[a.ID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	existing.Date = a.Date
	existing.Span = a.Span
	existing.Notes = a.Notes
	existing.UpdatedAt = time.Now()
	r.appointments[a.ID] = existing
	return &existing, nil
}

func (r *MemoryRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appointments, id)
	return nil
}
