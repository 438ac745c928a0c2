package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/karmaclinic/clinic-scheduling/internal/config"
	"github.com/karmaclinic/clinic-scheduling/internal/db"
	redisclient "github.com/karmaclinic/clinic-scheduling/internal/redis"
	"github.com/karmaclinic/clinic-scheduling/internal/scheduling"
	"github.com/karmaclinic/clinic-scheduling/internal/timeslot"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "seed").Logger()

func main() {
	logger.Info().Msg("seed starting")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("ensure schema")
	}

	gofakeit.Seed(time.Now().UnixNano())

	seedCtx := context.Background()

	serviceIDs, err := seedServices(seedCtx, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed services")
	}
	practitionerIDs, err := seedPractitioners(seedCtx, pool, 6)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed practitioners")
	}
	patientIDs, err := seedPatients(seedCtx, pool, serviceIDs, 40)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}

	// Windows and appointments go through the scheduler so the seeded data
	// honors the same invariants production traffic does. The Redis lock
	// keeps a seed run serialized against a live api-server writing to the
	// same database; the in-process lock is only a fallback.
	locker := redisclient.NewLocalLocker()
	if rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword); err == nil {
		defer rdb.Close()
		locker = redisclient.NewRedisScheduleLocker(rdb, cfg.LockTTL)
		logger.Info().Msg("using redis schedule lock")
	} else {
		logger.Warn().Err(err).Msg("redis unavailable, seeding with in-process lock")
	}

	repo := scheduling.NewPgRepository(pool)
	scheduler := scheduling.NewScheduler(repo, locker)

	if err := seedWindows(seedCtx, scheduler, practitionerIDs); err != nil {
		logger.Fatal().Err(err).Msg("seed availability windows")
	}
	if err := seedAppointments(seedCtx, scheduler, practitionerIDs, patientIDs, 150); err != nil {
		logger.Fatal().Err(err).Msg("seed appointments")
	}

	logger.Info().Msg("seed complete")
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) ([]uuid.UUID, error) {
	names := []string{
		"General Medicine",
		"Dermatology",
		"Cardiology",
		"Pediatrics",
		"Physiotherapy",
	}

	logger.Info().Int("count", len(names)).Msg("seeding services")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO services (id, name, created_at, updated_at)
			VALUES ($1, $2, now(), now())
		`, id, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, tx.Commit(ctx)
}

func seedPractitioners(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	logger.Info().Int("count", count).Msg("seeding practitioners")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO practitioners (id, first_name, last_name, role, created_at, updated_at)
			VALUES ($1, $2, $3, 'practitioner', now(), now())
		`, id, gofakeit.FirstName(), gofakeit.LastName())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, tx.Commit(ctx)
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, serviceIDs []uuid.UUID, count int) ([]uuid.UUID, error) {
	logger.Info().Int("count", count).Msg("seeding patients")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		service := serviceIDs[gofakeit.Number(0, len(serviceIDs)-1)]
		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id, first_name, last_name, email, service_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, id, gofakeit.FirstName(), gofakeit.LastName(), gofakeit.Email(), service)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, tx.Commit(ctx)
}

// seedWindows declares the standard clinic day for every practitioner:
// Monday through Friday, 09:00-12:00 and 14:00-18:00.
func seedWindows(ctx context.Context, scheduler *scheduling.Scheduler, practitionerIDs []uuid.UUID) error {
	shifts := [][2]string{
		{"09:00", "12:00"},
		{"14:00", "18:00"},
	}

	count := 0
	for _, practitionerID := range practitionerIDs {
		for weekday := 1; weekday <= 5; weekday++ {
			for _, shift := range shifts {
				start, err := timeslot.ParseTimeOfDay(shift[0])
				if err != nil {
					return err
				}
				end, err := timeslot.ParseTimeOfDay(shift[1])
				if err != nil {
					return err
				}

				_, err = scheduler.CreateWindow(ctx, scheduling.CreateWindowInput{
					PractitionerID: practitionerID,
					Kind:           scheduling.WindowRecurring,
					Weekday:        weekday,
					Start:          start,
					End:            end,
				})
				if err != nil {
					return err
				}
				count++
			}
		}
	}

	logger.Info().Int("count", count).Msg("availability windows seeded")
	return nil
}

// seedAppointments books random 30-minute slots over the next 30 days via
// the scheduler; attempts that land on a taken or uncovered slot are
// simply skipped.
func seedAppointments(ctx context.Context, scheduler *scheduling.Scheduler, practitionerIDs, patientIDs []uuid.UUID, target int) error {
	starts := []string{
		"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
		"14:00", "14:30", "15:00", "15:30", "16:00", "16:30", "17:00", "17:30",
	}

	today := timeslot.DateFromTime(time.Now())
	booked := 0
	attempts := 0

	for booked < target && attempts < target*4 {
		attempts++

		date := today.AddDays(gofakeit.Number(1, 30))
		start, err := timeslot.ParseTimeOfDay(starts[gofakeit.Number(0, len(starts)-1)])
		if err != nil {
			return err
		}
		end := start + 30

		_, err = scheduler.Book(ctx, scheduling.BookingInput{
			PatientID:      patientIDs[gofakeit.Number(0, len(patientIDs)-1)],
			PractitionerID: practitionerIDs[gofakeit.Number(0, len(practitionerIDs)-1)],
			Date:           date,
			Start:          start,
			End:            end,
		})
		switch {
		case err == nil:
			booked++
		case errors.Is(err, scheduling.ErrSlotConflict), errors.Is(err, scheduling.ErrNotAvailable):
			// weekend or taken slot, try another
		default:
			return err
		}
	}

	logger.Info().Int("booked", booked).Int("attempts", attempts).Msg("appointments seeded")
	return nil
}
