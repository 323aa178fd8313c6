package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrStudentNotFound     = errors.New("student not found")
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrSlotConflict means the requested window lost the race: an active
	// reservation (buffer included) already intersects it. Callers should
	// re-query slots; the engine never retries on its own.
	ErrSlotConflict = errors.New("slot already booked")

	// ErrTxTimeout means the commit transaction could not finish within its
	// bound. Transient and retryable, distinct from a lost race.
	ErrTxTimeout = errors.New("booking commit timed out")

	ErrInvalidInput            = errors.New("invalid input")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrHoldExpired             = errors.New("reservation hold expired")
)

// Repository contains all reservation-side DB interactions.
type Repository interface {
	GetStudentByID(ctx context.Context, id uuid.UUID) (*Student, error)
	GetReservationByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// ActiveIntervals returns the busy windows of PENDING and CONFIRMED
	// reservations intersecting [from, to), ordered by start. Read-only,
	// takes no locks; buffer expansion is the caller's job.
	ActiveIntervals(ctx context.Context, instructorID uuid.UUID, from, to time.Time) ([]Interval, error)

	// CreateIfFree is the conflict guard: inside a single serialized
	// transaction it re-checks the requested window (expanded by buffer on
	// both sides) against live active reservations and inserts the pending
	// row only if no overlap exists. Exactly one of two racing calls for
	// overlapping windows succeeds; the loser gets ErrSlotConflict and no
	// row is left behind.
	CreateIfFree(ctx context.Context, res Reservation, buffer time.Duration) (*Reservation, error)

	// UpdateStatus compare-and-swaps the status. ErrReservationNotFound is
	// returned when no row matches id+from, which callers interpret as a
	// lost transition race.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Reservation, error)

	// FindExpiredHolds lists pending reservations whose hold lapsed before
	// now. Used by the expiry worker.
	FindExpiredHolds(ctx context.Context, now time.Time) ([]Reservation, error)
}
