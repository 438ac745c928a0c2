package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karmaclinic/clinic-scheduling/internal/timeslot"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same scan
// and query code serves pooled reads and transactional booking writes.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool *pgxpool.Pool
	db   querier
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool, db: pool}
}

func (r *PgRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PgRepository{pool: r.pool, db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Helpers

func scanPractitioner(row pgx.Row) (*Practitioner, error) {
	var p Practitioner
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPractitionerNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.ServiceID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanWindow(row pgx.Row) (*AvailabilityWindow, error) {
	var (
		w        AvailabilityWindow
		kind     string
		weekday  *int16
		date     *time.Time
		startStr string
		endStr   string
	)

	err := row.Scan(&w.ID, &w.PractitionerID, &kind, &weekday, &date, &startStr, &endStr, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}

	w.Kind = WindowKind(kind)
	if weekday != nil {
		w.Weekday = int(*weekday)
	}
	if date != nil {
		w.Date = timeslot.DateFromTime(*date)
	}
	if w.Span, err = parseSpan(startStr, endStr); err != nil {
		return nil, fmt.Errorf("window %s: %w", w.ID, err)
	}
	return &w, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a        Appointment
		date     time.Time
		startStr string
		endStr   string
	)

	err := row.Scan(&a.ID, &a.PatientID, &a.PractitionerID, &date, &startStr, &endStr, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = timeslot.DateFromTime(date)
	if a.Span, err = parseSpan(startStr, endStr); err != nil {
		return nil, fmt.Errorf("appointment %s: %w", a.ID, err)
	}
	return &a, nil
}

func scanAppointmentDetail(row pgx.Row) (*AppointmentDetail, error) {
	var (
		d        AppointmentDetail
		date     time.Time
		startStr string
		endStr   string
	)

	err := row.Scan(
		&d.ID, &d.PatientID, &d.PractitionerID, &date, &startStr, &endStr, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
		&d.Patient.ID, &d.Patient.FirstName, &d.Patient.LastName,
		&d.Practitioner.ID, &d.Practitioner.FirstName, &d.Practitioner.LastName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	d.Date = timeslot.DateFromTime(date)
	if d.Span, err = parseSpan(startStr, endStr); err != nil {
		return nil, fmt.Errorf("appointment %s: %w", d.ID, err)
	}
	return &d, nil
}

func parseSpan(startStr, endStr string) (timeslot.Interval, error) {
	start, err := timeslot.ParseTimeOfDay(startStr)
	if err != nil {
		return timeslot.Interval{}, err
	}
	end, err := timeslot.ParseTimeOfDay(endStr)
	if err != nil {
		return timeslot.Interval{}, err
	}
	return timeslot.NewInterval(start, end)
}

func nilableWeekday(w AvailabilityWindow) *int16 {
	if w.Kind != WindowRecurring {
		return nil
	}
	wd := int16(w.Weekday)
	return &wd
}

func nilableDate(w AvailabilityWindow) *time.Time {
	if w.Kind != WindowSpecific {
		return nil
	}
	t := w.Date.Time()
	return &t
}

// Reference entities

func (r *PgRepository) GetPractitionerByID(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, first_name, last_name, role, created_at, updated_at
		FROM practitioners
		WHERE id = $1
	`, id)
	return scanPractitioner(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, service_id, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, first_name, last_name, email, service_id, created_at, updated_at
		FROM patients
		ORDER BY last_name, first_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// Availability windows

func (r *PgRepository) GetWindowByID(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, practitioner_id, kind, weekday, specific_date, start_time, end_time, created_at, updated_at
		FROM availability_windows
		WHERE id = $1
	`, id)
	return scanWindow(row)
}

func (r *PgRepository) ListWindowsByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]AvailabilityWindow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, practitioner_id, kind, weekday, specific_date, start_time, end_time, created_at, updated_at
		FROM availability_windows
		WHERE practitioner_id = $1
		ORDER BY kind DESC, weekday, specific_date, start_time
	`, practitionerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailabilityWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	return result, rows.Err()
}

func (r *PgRepository) InsertWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO availability_windows (id, practitioner_id, kind, weekday, specific_date, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING id, practitioner_id, kind, weekday, specific_date, start_time, end_time, created_at, updated_at
	`, id, w.PractitionerID, string(w.Kind), nilableWeekday(*w), nilableDate(*w), w.Span.Start.String(), w.Span.End.String())

	return scanWindow(row)
}

func (r *PgRepository) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM availability_windows WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

// Appointments

const appointmentDetailSelect = `
	SELECT a.id, a.patient_id, a.practitioner_id, a.date, a.start_time, a.end_time, a.notes, a.created_at, a.updated_at,
	       pa.id, pa.first_name, pa.last_name,
	       pr.id, pr.first_name, pr.last_name
	FROM appointments a
	JOIN patients pa ON pa.id = a.patient_id
	JOIN practitioners pr ON pr.id = a.practitioner_id
`

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, patient_id, practitioner_id, date, start_time, end_time, notes, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.db.QueryRow(ctx, appointmentDetailSelect+` WHERE a.id = $1`, id)
	return scanAppointmentDetail(row)
}

func (r *PgRepository) ListAppointmentsForDay(ctx context.Context, practitionerID uuid.UUID, date timeslot.CalendarDate) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, patient_id, practitioner_id, date, start_time, end_time, notes, created_at, updated_at
		FROM appointments
		WHERE practitioner_id = $1 AND date = $2
		ORDER BY start_time
	`, practitionerID, date.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListAppointmentDetailsInRange(ctx context.Context, practitionerID uuid.UUID, from, to timeslot.CalendarDate) ([]AppointmentDetail, error) {
	rows, err := r.db.Query(ctx, appointmentDetailSelect+`
		WHERE a.practitioner_id = $1 AND a.date BETWEEN $2 AND $3
		ORDER BY a.date, a.start_time
	`, practitionerID, from.Time(), to.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDetails(rows)
}

func (r *PgRepository) ListAppointmentDetailsByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.db.Query(ctx, appointmentDetailSelect+`
		WHERE a.practitioner_id = $1
		ORDER BY a.date, a.start_time
	`, practitionerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDetails(rows)
}

func collectDetails(rows pgx.Rows) ([]AppointmentDetail, error) {
	var result []AppointmentDetail
	for rows.Next() {
		d, err := scanAppointmentDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgRepository) InsertAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, practitioner_id, date, start_time, end_time, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING id, patient_id, practitioner_id, date, start_time, end_time, notes, created_at, updated_at
	`, id, a.PatientID, a.PractitionerID, a.Date.Time(), a.Span.Start.String(), a.Span.End.String(), a.Notes)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET date = $2,
		    start_time = $3,
		    end_time = $4,
		    notes = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, patient_id, practitioner_id, date, start_time, end_time, notes, created_at, updated_at
	`, a.ID, a.Date.Time(), a.Span.Start.String(), a.Span.End.String(), a.Notes)

	return scanAppointment(row)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}
