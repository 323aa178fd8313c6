package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/driveschool/lesson-booking/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedInstructors(context.Background(), pool, 50); err != nil {
		log.Fatalf("seed instructors: %v", err)
	}
	if err := seedStudents(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed students: %v", err)
	}

	log.Println("seed complete")
}

func seedInstructors(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d instructors", count)

	timezones := []string{
		"Europe/London",
		"Europe/Berlin",
		"Europe/Madrid",
		"Europe/Warsaw",
		"Europe/Amsterdam",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		tz := timezones[gofakeit.Number(0, len(timezones)-1)]
		buffer := gofakeit.Number(0, 3) * 5 // 0-15 min in 5 min steps

		_, err := tx.Exec(ctx, `
			INSERT INTO instructors (id, name, timezone, buffer_min, min_lead_min, slot_step_min, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 60, 30, now(), now())
		`, id, name, tz, buffer)
		if err != nil {
			return err
		}

		// Weekday driving hours, split around lunch.
		for weekday := 1; weekday <= 5; weekday++ {
			morningStart := gofakeit.Number(7, 9) * 60
			_, err := tx.Exec(ctx, `
				INSERT INTO weekly_schedule_rules (id, instructor_id, weekday, start_min, end_min, created_at)
				VALUES ($1, $2, $3, $4, $5, now())
			`, uuid.New(), id, weekday, morningStart, 12*60)
			if err != nil {
				return err
			}

			afternoonEnd := gofakeit.Number(16, 19) * 60
			_, err = tx.Exec(ctx, `
				INSERT INTO weekly_schedule_rules (id, instructor_id, weekday, start_min, end_min, created_at)
				VALUES ($1, $2, $3, $4, $5, now())
			`, uuid.New(), id, weekday, 13*60, afternoonEnd)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("instructors seeded")
	return nil
}

func seedStudents(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d students", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()

			_, err := tx.Exec(ctx, `
				INSERT INTO students (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, id, name, email)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("students seeded: %d/%d", end, count)
	}

	log.Println("students seeded")
	return nil
}
