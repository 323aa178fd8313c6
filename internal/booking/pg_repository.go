package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanStudent(row pgx.Row) (*Student, error) {
	var s Student
	var email *string

	err := row.Scan(
		&s.ID,
		&s.Name,
		&email,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	s.Email = email
	return &s, nil
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var r Reservation
	var holdExpiresAt *time.Time

	err := row.Scan(
		&r.ID,
		&r.InstructorID,
		&r.StudentID,
		&r.StartTime,
		&r.EndTime,
		&r.DurationMin,
		&r.Status,
		&holdExpiresAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	r.HoldExpiresAt = holdExpiresAt
	return &r, nil
}

const reservationColumns = `id, instructor_id, student_id, start_time, end_time, duration_min, status, hold_expires_at, created_at, updated_at`

// mapTxError translates driver failures on the commit path into the
// engine's taxonomy. Serialization and deadlock aborts (40001, 40P01) mean
// the window was lost to a concurrent commit; lock and statement timeouts
// (55P03, 57014) and context deadlines are transient.
func mapTxError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTxTimeout
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return ErrSlotConflict
		case "55P03", "57014":
			return ErrTxTimeout
		}
	}

	return err
}

// Interface methods

func (r *PgRepository) GetStudentByID(ctx context.Context, id uuid.UUID) (*Student, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM students
		WHERE id = $1
	`, id)
	return scanStudent(row)
}

func (r *PgRepository) GetReservationByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = $1
	`, id)
	return scanReservation(row)
}

func (r *PgRepository) ActiveIntervals(ctx context.Context, instructorID uuid.UUID, from, to time.Time) ([]Interval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time, end_time
		FROM reservations
		WHERE instructor_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time
	`, instructorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Interval
	for rows.Next() {
		var iv Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		result = append(result, iv)
	}

	return result, rows.Err()
}

func (r *PgRepository) CreateIfFree(ctx context.Context, res Reservation, buffer time.Duration) (*Reservation, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, mapTxError(fmt.Errorf("begin commit tx: %w", err))
	}
	defer tx.Rollback(ctx)

	// Per-instructor serialization point. Concurrent commits for the same
	// instructor queue here; distinct instructors never contend.
	_, err = tx.Exec(ctx, `
		SELECT pg_advisory_xact_lock(hashtextextended($1, 0))
	`, res.InstructorID.String())
	if err != nil {
		return nil, mapTxError(fmt.Errorf("acquire instructor lock: %w", err))
	}

	// Re-check against live state with the buffer applied on both sides.
	// Half-open comparison keeps back-to-back reservations legal.
	var conflicts int
	err = tx.QueryRow(ctx, `
		SELECT count(*)
		FROM reservations
		WHERE instructor_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND start_time < $3
		  AND end_time > $2
	`, res.InstructorID, res.StartTime.Add(-buffer), res.EndTime.Add(buffer)).Scan(&conflicts)
	if err != nil {
		return nil, mapTxError(fmt.Errorf("conflict re-check: %w", err))
	}
	if conflicts > 0 {
		return nil, ErrSlotConflict
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO reservations (id, instructor_id, student_id, start_time, end_time, duration_min, status, hold_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, now(), now())
		RETURNING `+reservationColumns+`
	`, uuid.New(), res.InstructorID, res.StudentID, res.StartTime, res.EndTime, res.DurationMin, res.HoldExpiresAt)

	created, err := scanReservation(row)
	if err != nil {
		return nil, mapTxError(fmt.Errorf("insert reservation: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapTxError(fmt.Errorf("commit reservation: %w", err))
	}

	return created, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Reservation, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE reservations
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+reservationColumns+`
	`, id, to, from)

	return scanReservation(row)
}

func (r *PgRepository) FindExpiredHolds(ctx context.Context, now time.Time) ([]Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE status = 'pending'
		  AND hold_expires_at IS NOT NULL
		  AND hold_expires_at < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *res)
	}

	return result, rows.Err()
}
