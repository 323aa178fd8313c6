package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Active reports whether a reservation in this status occupies time for
// conflict purposes. Completed and cancelled rows never block a window.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Student struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation is the only mutable shared entity in the engine. All
// timestamps are stored UTC; EndTime is always StartTime plus DurationMin.
type Reservation struct {
	ID            uuid.UUID
	InstructorID  uuid.UUID
	StudentID     uuid.UUID
	StartTime     time.Time
	EndTime       time.Time
	DurationMin   int
	Status        Status
	HoldExpiresAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Interval is a half-open [Start, End) busy window.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Slot is an advisory bookable window returned by the read path. It is
// never persisted and must be re-validated by the commit path.
type Slot struct {
	InstructorID uuid.UUID `json:"instructor_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
}
