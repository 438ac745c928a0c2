// Package api exposes the scheduling engine over HTTP: availability
// window management, booking, the conflict-blind slot check and the
// weekly calendar view.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/karmaclinic/clinic-scheduling/internal/scheduling"
)

type RouterConfig struct {
	Scheduler *scheduling.Scheduler
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Logger    zerolog.Logger
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/availabilities", createWindowHandler(cfg.Scheduler))
	r.Delete("/availabilities/{id}", deleteWindowHandler(cfg.Scheduler))
	r.Get("/availabilities/check", checkSlotHandler(cfg.Scheduler))

	r.Post("/appointments", bookAppointmentHandler(cfg.Scheduler))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Scheduler))
	r.Put("/appointments/{id}", rescheduleAppointmentHandler(cfg.Scheduler))
	r.Delete("/appointments/{id}", cancelAppointmentHandler(cfg.Scheduler))

	r.Get("/practitioners/{id}/availabilities", listWindowsHandler(cfg.Scheduler))
	r.Get("/practitioners/{id}/appointments", listPractitionerAppointmentsHandler(cfg.Scheduler))
	r.Get("/practitioners/{id}/week", weekScheduleHandler(cfg.Scheduler))

	r.Get("/patients", listPatientsHandler(cfg.Scheduler))
	r.Get("/patients/{id}", getPatientHandler(cfg.Scheduler))

	return r
}
