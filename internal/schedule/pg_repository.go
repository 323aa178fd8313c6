package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanInstructor(row pgx.Row) (*Instructor, error) {
	var ins Instructor

	err := row.Scan(
		&ins.ID,
		&ins.Name,
		&ins.Timezone,
		&ins.BufferMin,
		&ins.MinLeadMin,
		&ins.SlotStepMin,
		&ins.CreatedAt,
		&ins.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInstructorNotFound
		}
		return nil, err
	}

	return &ins, nil
}

func scanRule(row pgx.Row) (*WeeklyRule, error) {
	var r WeeklyRule

	err := row.Scan(
		&r.ID,
		&r.InstructorID,
		&r.Weekday,
		&r.StartMin,
		&r.EndMin,
		&r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}

	return &r, nil
}

func scanTimeOff(row pgx.Row) (*TimeOff, error) {
	var t TimeOff

	err := row.Scan(
		&t.ID,
		&t.InstructorID,
		&t.Date,
		&t.StartMin,
		&t.EndMin,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTimeOffNotFound
		}
		return nil, err
	}

	return &t, nil
}

func scanOverride(row pgx.Row) (*Override, error) {
	var o Override

	err := row.Scan(
		&o.ID,
		&o.InstructorID,
		&o.Date,
		&o.StartMin,
		&o.EndMin,
		&o.Polarity,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOverrideNotFound
		}
		return nil, err
	}

	return &o, nil
}

// Interface methods

func (r *PgRepository) GetInstructorByID(ctx context.Context, id uuid.UUID) (*Instructor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, timezone, buffer_min, min_lead_min, slot_step_min, created_at, updated_at
		FROM instructors
		WHERE id = $1
	`, id)
	return scanInstructor(row)
}

func (r *PgRepository) RulesForWeekday(ctx context.Context, instructorID uuid.UUID, weekday int) ([]WeeklyRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, instructor_id, weekday, start_min, end_min, created_at
		FROM weekly_schedule_rules
		WHERE instructor_id = $1 AND weekday = $2
		ORDER BY start_min
	`, instructorID, weekday)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WeeklyRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}

	return result, rows.Err()
}

func (r *PgRepository) TimeOffForDate(ctx context.Context, instructorID uuid.UUID, date time.Time) ([]TimeOff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, instructor_id, off_date, start_min, end_min, created_at
		FROM time_off_exceptions
		WHERE instructor_id = $1 AND off_date = $2
		ORDER BY start_min NULLS FIRST
	`, instructorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TimeOff
	for rows.Next() {
		off, err := scanTimeOff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *off)
	}

	return result, rows.Err()
}

func (r *PgRepository) OverridesForDate(ctx context.Context, instructorID uuid.UUID, date time.Time) ([]Override, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, instructor_id, override_date, start_min, end_min, polarity, created_at
		FROM availability_overrides
		WHERE instructor_id = $1 AND override_date = $2
		ORDER BY start_min
	`, instructorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Override
	for rows.Next() {
		ov, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ov)
	}

	return result, rows.Err()
}

func (r *PgRepository) CreateRule(ctx context.Context, rule WeeklyRule) (*WeeklyRule, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO weekly_schedule_rules (id, instructor_id, weekday, start_min, end_min, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, instructor_id, weekday, start_min, end_min, created_at
	`, uuid.New(), rule.InstructorID, rule.Weekday, rule.StartMin, rule.EndMin)
	return scanRule(row)
}

func (r *PgRepository) DeleteRule(ctx context.Context, instructorID, ruleID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM weekly_schedule_rules
		WHERE id = $1 AND instructor_id = $2
	`, ruleID, instructorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (r *PgRepository) CreateTimeOff(ctx context.Context, off TimeOff) (*TimeOff, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO time_off_exceptions (id, instructor_id, off_date, start_min, end_min, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, instructor_id, off_date, start_min, end_min, created_at
	`, uuid.New(), off.InstructorID, off.Date, off.StartMin, off.EndMin)
	return scanTimeOff(row)
}

func (r *PgRepository) DeleteTimeOff(ctx context.Context, instructorID, timeOffID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM time_off_exceptions
		WHERE id = $1 AND instructor_id = $2
	`, timeOffID, instructorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTimeOffNotFound
	}
	return nil
}

func (r *PgRepository) CreateOverride(ctx context.Context, ov Override) (*Override, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_overrides (id, instructor_id, override_date, start_min, end_min, polarity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, instructor_id, override_date, start_min, end_min, polarity, created_at
	`, uuid.New(), ov.InstructorID, ov.Date, ov.StartMin, ov.EndMin, ov.Polarity)
	return scanOverride(row)
}

func (r *PgRepository) DeleteOverride(ctx context.Context, instructorID, overrideID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_overrides
		WHERE id = $1 AND instructor_id = $2
	`, overrideID, instructorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOverrideNotFound
	}
	return nil
}
