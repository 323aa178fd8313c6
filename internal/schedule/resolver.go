package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	redisclient "github.com/driveschool/lesson-booking/internal/redis"
)

const dateLayout = "2006-01-02"

// Resolver turns weekly rules plus date-specific adjustments into the free
// windows for one calendar date. It is pure read; results are cached per
// instructor and date when a cache is attached.
type Resolver struct {
	repo   Repository
	cache  redisclient.AvailabilityCache
	logger *zap.Logger
}

// NewResolver creates a resolver. cache may be nil, in which case every
// call goes to the repository.
func NewResolver(repo Repository, cache redisclient.AvailabilityCache, logger *zap.Logger) *Resolver {
	return &Resolver{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Resolve returns the instructor's free windows for date as a sorted,
// disjoint span set. An empty result means a day off, not an error.
//
// Precedence: weekly rules and add-overrides are unioned first, then
// remove-overrides and time-off exceptions are subtracted. The two
// subtraction sources commute, so no ordering between them matters.
func (r *Resolver) Resolve(ctx context.Context, instructorID uuid.UUID, date time.Time) ([]Span, error) {
	day := date.Format(dateLayout)

	if r.cache != nil {
		var cached []Span
		err := r.cache.Get(ctx, instructorID, day, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redisclient.ErrCacheMiss) {
			r.logger.Warn("availability cache read failed, falling back to db",
				zap.String("instructor_id", instructorID.String()),
				zap.String("date", day),
				zap.Error(err),
			)
		}
	}

	spans, err := r.resolveFromStore(ctx, instructorID, date)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, instructorID, day, spans); err != nil {
			r.logger.Warn("availability cache write failed",
				zap.String("instructor_id", instructorID.String()),
				zap.String("date", day),
				zap.Error(err),
			)
		}
	}

	return spans, nil
}

func (r *Resolver) resolveFromStore(ctx context.Context, instructorID uuid.UUID, date time.Time) ([]Span, error) {
	weekday := int(date.Weekday())

	rules, err := r.repo.RulesForWeekday(ctx, instructorID, weekday)
	if err != nil {
		return nil, fmt.Errorf("load weekly rules: %w", err)
	}

	overrides, err := r.repo.OverridesForDate(ctx, instructorID, date)
	if err != nil {
		return nil, fmt.Errorf("load overrides: %w", err)
	}

	timeOff, err := r.repo.TimeOffForDate(ctx, instructorID, date)
	if err != nil {
		return nil, fmt.Errorf("load time-off: %w", err)
	}

	base := make([]Span, 0, len(rules)+len(overrides))
	for _, rule := range rules {
		base = append(base, Span{Start: rule.StartMin, End: rule.EndMin})
	}

	var removals []Span
	for _, ov := range overrides {
		switch ov.Polarity {
		case PolarityAdd:
			base = append(base, Span{Start: ov.StartMin, End: ov.EndMin})
		case PolarityRemove:
			removals = append(removals, Span{Start: ov.StartMin, End: ov.EndMin})
		}
	}
	for _, off := range timeOff {
		removals = append(removals, off.span())
	}

	free := SubtractSpans(MergeSpans(base), removals)
	return free, nil
}

// Invalidate drops the instructor's cached availability. Schedule write
// handlers call this after every mutation.
func (r *Resolver) Invalidate(ctx context.Context, instructorID uuid.UUID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, instructorID); err != nil {
		r.logger.Warn("availability cache invalidation failed",
			zap.String("instructor_id", instructorID.String()),
			zap.Error(err),
		)
	}
}
