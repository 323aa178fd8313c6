package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/driveschool/lesson-booking/internal/booking"
	"github.com/driveschool/lesson-booking/internal/schedule"
)

type RouterConfig struct {
	Service      *booking.Service
	ScheduleRepo schedule.Repository
	Resolver     *schedule.Resolver
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Logger       *zap.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Read path: advisory, no locking
	r.Get("/slots", findSlotsHandler(cfg.Service))

	// Write path: the conflict guard, plus external-driven transitions
	r.Post("/bookings", createBookingHandler(cfg.Service))
	r.Get("/bookings/{id}", getBookingHandler(cfg.Service))
	r.Post("/bookings/{id}/confirm", transitionHandler(func(req *http.Request, id uuid.UUID) (*booking.Reservation, error) {
		return cfg.Service.Confirm(req.Context(), id)
	}))
	r.Post("/bookings/{id}/cancel", transitionHandler(func(req *http.Request, id uuid.UUID) (*booking.Reservation, error) {
		return cfg.Service.Cancel(req.Context(), id)
	}))
	r.Post("/bookings/{id}/complete", transitionHandler(func(req *http.Request, id uuid.UUID) (*booking.Reservation, error) {
		return cfg.Service.Complete(req.Context(), id)
	}))

	// Instructor schedule management
	sched := &scheduleHandlers{repo: cfg.ScheduleRepo, resolver: cfg.Resolver}
	r.Route("/instructors/{id}", func(r chi.Router) {
		r.Get("/availability", sched.getAvailability)
		r.Post("/schedule-rules", sched.createRule)
		r.Delete("/schedule-rules/{ruleID}", sched.deleteRule)
		r.Post("/time-off", sched.createTimeOff)
		r.Delete("/time-off/{timeOffID}", sched.deleteTimeOff)
		r.Post("/overrides", sched.createOverride)
		r.Delete("/overrides/{overrideID}", sched.deleteOverride)
	})

	return r
}
