package schedule

import (
	"time"

	"github.com/google/uuid"
)

type Polarity string

const (
	PolarityAdd    Polarity = "add"
	PolarityRemove Polarity = "remove"
)

// Instructor carries the per-instructor booking settings alongside the
// identity row. Times of day throughout this package are integer minutes
// since local midnight in the instructor's timezone.
type Instructor struct {
	ID          uuid.UUID
	Name        string
	Timezone    string
	BufferMin   int
	MinLeadMin  int
	SlotStepMin int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WeeklyRule opens a recurring window on one weekday. Rules for the same
// weekday may overlap; the resolver merges them.
type WeeklyRule struct {
	ID           uuid.UUID
	InstructorID uuid.UUID
	Weekday      int // 0 = Sunday, matching time.Weekday
	StartMin     int
	EndMin       int
	CreatedAt    time.Time
}

// TimeOff blocks part of a specific date. A nil StartMin/EndMin pair
// blocks the whole day.
type TimeOff struct {
	ID           uuid.UUID
	InstructorID uuid.UUID
	Date         time.Time // date only, midnight UTC
	StartMin     *int
	EndMin       *int
	CreatedAt    time.Time
}

// Override adjusts one specific date: add opens extra time on top of the
// weekly rules, remove subtracts like a fine-grained time-off.
type Override struct {
	ID           uuid.UUID
	InstructorID uuid.UUID
	Date         time.Time
	StartMin     int
	EndMin       int
	Polarity     Polarity
	CreatedAt    time.Time
}

func (t TimeOff) span() Span {
	if t.StartMin == nil || t.EndMin == nil {
		return Span{Start: 0, End: minutesPerDay}
	}
	return Span{Start: *t.StartMin, End: *t.EndMin}
}
