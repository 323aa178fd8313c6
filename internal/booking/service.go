package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/driveschool/lesson-booking/internal/config"
	"github.com/driveschool/lesson-booking/internal/schedule"
)

const dateLayout = "2006-01-02"

// Service is the booking engine's public surface: the advisory slot read
// path, the transactional commit path, and the external-driven lifecycle
// transitions.
type Service struct {
	repo      Repository
	schedRepo schedule.Repository
	resolver  *schedule.Resolver
	cfg       config.Config
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, schedRepo schedule.Repository, resolver *schedule.Resolver, cfg config.Config, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		schedRepo: schedRepo,
		resolver:  resolver,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// FindSlots is the advisory read path. It takes no locks and may race
// with concurrent commits; any slot it returns is re-validated by Commit.
func (s *Service) FindSlots(ctx context.Context, instructorID uuid.UUID, dateStr string, durationMin int) ([]Slot, error) {
	if durationMin <= 0 {
		return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidInput)
	}

	ins, err := s.schedRepo.GetInstructorByID(ctx, instructorID)
	if err != nil {
		if errors.Is(err, schedule.ErrInstructorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load instructor: %w", err)
	}

	loc, err := time.LoadLocation(ins.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load instructor timezone %q: %w", ins.Timezone, err)
	}

	day, err := time.ParseInLocation(dateLayout, dateStr, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	free, err := s.resolver.Resolve(ctx, instructorID, day)
	if err != nil {
		return nil, fmt.Errorf("resolve availability: %w", err)
	}

	buffer := time.Duration(ins.BufferMin) * time.Minute
	dayEnd := day.AddDate(0, 0, 1)

	// Widen the query window by the buffer so reservations spilling in
	// from neighboring days still block edge slots.
	busy, err := s.repo.ActiveIntervals(ctx, instructorID, day.Add(-buffer), dayEnd.Add(buffer))
	if err != nil {
		return nil, fmt.Errorf("load active reservations: %w", err)
	}

	return ComputeSlots(free, busy, SlotParams{
		InstructorID: instructorID,
		DayStart:     day,
		DurationMin:  durationMin,
		StepMin:      s.stepMin(ins),
		BufferMin:    ins.BufferMin,
		MinLeadMin:   ins.MinLeadMin,
		Now:          s.now(),
	}), nil
}

// Commit is the sole source of truth for bookings. The chosen window is
// re-validated against live reservation state inside a serialized
// per-instructor transaction; under concurrent attempts for overlapping
// windows exactly one caller wins.
func (s *Service) Commit(ctx context.Context, instructorID, studentID uuid.UUID, start time.Time, durationMin int) (*Reservation, error) {
	if durationMin <= 0 {
		return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidInput)
	}
	if start.IsZero() {
		return nil, fmt.Errorf("%w: start is required", ErrInvalidInput)
	}

	now := s.now()
	if start.Before(now) {
		return nil, fmt.Errorf("%w: start is in the past", ErrInvalidInput)
	}

	ins, err := s.schedRepo.GetInstructorByID(ctx, instructorID)
	if err != nil {
		if errors.Is(err, schedule.ErrInstructorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load instructor: %w", err)
	}

	if _, err := s.repo.GetStudentByID(ctx, studentID); err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load student: %w", err)
	}

	holdExpiresAt := now.Add(s.cfg.PendingHoldTTL)
	res := Reservation{
		InstructorID:  instructorID,
		StudentID:     studentID,
		StartTime:     start.UTC(),
		EndTime:       start.Add(time.Duration(durationMin) * time.Minute).UTC(),
		DurationMin:   durationMin,
		HoldExpiresAt: &holdExpiresAt,
	}

	// Bound the transaction so a contended commit surfaces ErrTxTimeout
	// instead of hanging.
	txCtx, cancel := context.WithTimeout(ctx, s.cfg.CommitTxTimeout)
	defer cancel()

	created, err := s.repo.CreateIfFree(txCtx, res, time.Duration(ins.BufferMin)*time.Minute)
	if err != nil {
		if errors.Is(err, ErrSlotConflict) || errors.Is(err, ErrTxTimeout) {
			return nil, err
		}
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.logger.Info("reservation created",
		zap.String("reservation_id", created.ID.String()),
		zap.String("instructor_id", instructorID.String()),
		zap.String("student_id", studentID.String()),
		zap.Time("start", created.StartTime),
		zap.Int("duration_min", durationMin),
	)

	return created, nil
}

func (s *Service) GetReservation(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return s.repo.GetReservationByID(ctx, id)
}

// Confirm moves a pending reservation to confirmed (payment success,
// driven externally). A lapsed hold is cancelled instead.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	res, err := s.repo.GetReservationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if res.Status == StatusPending && res.HoldExpiresAt != nil && res.HoldExpiresAt.Before(s.now()) {
		if _, updErr := s.repo.UpdateStatus(ctx, res.ID, StatusPending, StatusCancelled); updErr != nil && !errors.Is(updErr, ErrReservationNotFound) {
			s.logger.Warn("failed to cancel expired hold during confirm",
				zap.String("reservation_id", res.ID.String()),
				zap.Error(updErr),
			)
		}
		return nil, ErrHoldExpired
	}

	if res.Status != StatusPending {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, res.ID, StatusPending, StatusConfirmed)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			// The row changed under us between load and swap.
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("confirm reservation: %w", err)
	}

	s.logger.Info("reservation confirmed", zap.String("reservation_id", updated.ID.String()))
	return updated, nil
}

// Cancel releases a pending or confirmed reservation; its window becomes
// bookable again immediately.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	res, err := s.repo.GetReservationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !res.Status.Active() {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, res.ID, res.Status, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}

	s.logger.Info("reservation cancelled", zap.String("reservation_id", updated.ID.String()))
	return updated, nil
}

// Complete marks a confirmed reservation as done (lesson elapsed, driven
// externally).
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	res, err := s.repo.GetReservationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if res.Status != StatusConfirmed {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, res.ID, StatusConfirmed, StatusCompleted)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("complete reservation: %w", err)
	}

	s.logger.Info("reservation completed", zap.String("reservation_id", updated.ID.String()))
	return updated, nil
}

// ExpireHolds cancels pending reservations whose payment hold lapsed.
// Called periodically by the expiry worker so abandoned checkouts free
// their windows.
func (s *Service) ExpireHolds(ctx context.Context) error {
	candidates, err := s.repo.FindExpiredHolds(ctx, s.now())
	if err != nil {
		return fmt.Errorf("find expired holds: %w", err)
	}

	for _, res := range candidates {
		if _, err := s.repo.UpdateStatus(ctx, res.ID, StatusPending, StatusCancelled); err != nil {
			if errors.Is(err, ErrReservationNotFound) {
				continue // confirmed or cancelled meanwhile
			}
			s.logger.Warn("failed to expire hold",
				zap.String("reservation_id", res.ID.String()),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("expired pending hold", zap.String("reservation_id", res.ID.String()))
	}

	return nil
}

func (s *Service) stepMin(ins *schedule.Instructor) int {
	if ins.SlotStepMin > 0 {
		return ins.SlotStepMin
	}
	return s.cfg.DefaultSlotStepMin
}
