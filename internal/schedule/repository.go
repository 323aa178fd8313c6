package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInstructorNotFound = errors.New("instructor not found")
	ErrRuleNotFound       = errors.New("schedule rule not found")
	ErrTimeOffNotFound    = errors.New("time-off exception not found")
	ErrOverrideNotFound   = errors.New("availability override not found")
)

// Repository contains all DB interactions needed by the resolver and the
// schedule management handlers.
type Repository interface {
	GetInstructorByID(ctx context.Context, id uuid.UUID) (*Instructor, error)

	// Read path
	RulesForWeekday(ctx context.Context, instructorID uuid.UUID, weekday int) ([]WeeklyRule, error)
	TimeOffForDate(ctx context.Context, instructorID uuid.UUID, date time.Time) ([]TimeOff, error)
	OverridesForDate(ctx context.Context, instructorID uuid.UUID, date time.Time) ([]Override, error)

	// Schedule management; every write must be followed by a cache
	// invalidation for the instructor.
	CreateRule(ctx context.Context, rule WeeklyRule) (*WeeklyRule, error)
	DeleteRule(ctx context.Context, instructorID, ruleID uuid.UUID) error
	CreateTimeOff(ctx context.Context, off TimeOff) (*TimeOff, error)
	DeleteTimeOff(ctx context.Context, instructorID, timeOffID uuid.UUID) error
	CreateOverride(ctx context.Context, ov Override) (*Override, error)
	DeleteOverride(ctx context.Context, instructorID, overrideID uuid.UUID) error
}
