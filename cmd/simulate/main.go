package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/driveschool/lesson-booking/internal/config"
	"github.com/driveschool/lesson-booking/internal/db"
)

// simulate fires concurrent booking attempts at the API, deliberately
// contending on the same slots, then audits the database for overlapping
// active reservations. Any overlap found is a correctness failure of the
// commit path.

type SimConfig struct {
	APIBaseURL      string
	Duration        time.Duration
	Workers         int
	InstructorLimit int
	StudentLimit    int
	PostgresDSN     string
}

type DataPool struct {
	Instructors []uuid.UUID
	Students    []uuid.UUID

	mu    sync.RWMutex
	slots map[uuid.UUID][]slotDTO // instructor -> advisory slots
}

type slotDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (dp *DataPool) SetSlots(instructor uuid.UUID, slots []slotDTO) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.slots[instructor] = slots
}

// ContestedSlot returns a random instructor with at least one advisory
// slot, biased toward the first slot so that workers pile onto the same
// window and exercise the conflict guard.
func (dp *DataPool) ContestedSlot() (uuid.UUID, slotDTO, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()

	for _, ins := range dp.Instructors {
		slots := dp.slots[ins]
		if len(slots) == 0 {
			continue
		}
		idx := 0
		if rand.Float64() > 0.7 {
			idx = rand.Intn(len(slots))
		}
		return ins, slots[idx], true
	}
	return uuid.Nil, slotDTO{}, false
}

type OperationMetrics struct {
	Total    int64
	Success  int64
	Conflict int64
	Error    int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	return avg, p50, p95
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	sim := SimConfig{
		APIBaseURL:      envOr("SIM_API_URL", "http://localhost:"+cfg.HTTPPort),
		Duration:        envDuration("SIM_DURATION", 30*time.Second),
		Workers:         envInt("SIM_WORKERS", 20),
		InstructorLimit: envInt("SIM_INSTRUCTOR_LIMIT", 5),
		StudentLimit:    envInt("SIM_STUDENT_LIMIT", 200),
		PostgresDSN:     cfg.PostgresDSN,
	}

	ctx, cancel := context.WithTimeout(context.Background(), sim.Duration+2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, sim.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	dp, err := loadDataPool(ctx, pool, sim)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("loaded %d instructors, %d students", len(dp.Instructors), len(dp.Students))

	client := &http.Client{Timeout: 10 * time.Second}
	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	if err := refreshSlots(ctx, client, sim, dp, date); err != nil {
		log.Fatalf("initial slot query: %v", err)
	}

	var metrics OperationMetrics
	runWorkers(ctx, client, sim, dp, date, &metrics)

	avg, p50, p95 := metrics.Stats()
	log.Printf("bookings: total=%d success=%d conflict=%d error=%d",
		atomic.LoadInt64(&metrics.Total),
		atomic.LoadInt64(&metrics.Success),
		atomic.LoadInt64(&metrics.Conflict),
		atomic.LoadInt64(&metrics.Error),
	)
	log.Printf("latency: avg=%s p50=%s p95=%s", avg, p50, p95)

	overlaps, err := auditOverlaps(ctx, pool)
	if err != nil {
		log.Fatalf("overlap audit: %v", err)
	}
	if overlaps > 0 {
		log.Fatalf("AUDIT FAILED: %d overlapping active reservation pairs", overlaps)
	}
	log.Println("AUDIT OK: no overlapping active reservations")
}

func runWorkers(ctx context.Context, client *http.Client, sim SimConfig, dp *DataPool, date string, metrics *OperationMetrics) {
	deadline := time.Now().Add(sim.Duration)

	var wg sync.WaitGroup
	for w := 0; w < sim.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) && ctx.Err() == nil {
				instructor, slot, ok := dp.ContestedSlot()
				if !ok {
					time.Sleep(200 * time.Millisecond)
					continue
				}

				student := dp.Students[rand.Intn(len(dp.Students))]
				durationMin := int(slot.End.Sub(slot.Start).Minutes())

				start := time.Now()
				status, err := postBooking(ctx, client, sim.APIBaseURL, instructor, student, slot.Start, durationMin)
				latency := time.Since(start)

				if err != nil {
					metrics.Record(latency, false, false)
					continue
				}
				metrics.Record(latency, status == http.StatusCreated, status == http.StatusConflict)

				// Keep the contested set fresh once windows fill up.
				if status == http.StatusCreated {
					_ = refreshSlots(ctx, client, sim, dp, date)
				}
			}
		}()
	}
	wg.Wait()
}

func postBooking(ctx context.Context, client *http.Client, baseURL string, instructor, student uuid.UUID, start time.Time, durationMin int) (int, error) {
	body, err := json.Marshal(map[string]any{
		"instructor_id":    instructor.String(),
		"student_id":       student.String(),
		"start":            start,
		"duration_minutes": durationMin,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/bookings", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func refreshSlots(ctx context.Context, client *http.Client, sim SimConfig, dp *DataPool, date string) error {
	for _, ins := range dp.Instructors {
		url := fmt.Sprintf("%s/slots?instructor_id=%s&date=%s&duration_minutes=60", sim.APIBaseURL, ins, date)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}

		var slots []slotDTO
		err = json.NewDecoder(resp.Body).Decode(&slots)
		resp.Body.Close()
		if err != nil {
			return err
		}

		dp.SetSlots(ins, slots)
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, sim SimConfig) (*DataPool, error) {
	dp := &DataPool{slots: make(map[uuid.UUID][]slotDTO)}

	rows, err := pool.Query(ctx, `SELECT id FROM instructors ORDER BY created_at LIMIT $1`, sim.InstructorLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dp.Instructors = append(dp.Instructors, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = pool.Query(ctx, `SELECT id FROM students ORDER BY created_at LIMIT $1`, sim.StudentLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dp.Students = append(dp.Students, id)
	}
	return dp, rows.Err()
}

// auditOverlaps counts pairs of active reservations for the same
// instructor whose windows intersect. Must be zero.
func auditOverlaps(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var count int
	err := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM reservations a
		JOIN reservations b
		  ON a.instructor_id = b.instructor_id
		 AND a.id < b.id
		 AND a.start_time < b.end_time
		 AND b.start_time < a.end_time
		WHERE a.status IN ('pending', 'confirmed')
		  AND b.status IN ('pending', 'confirmed')
	`).Scan(&count)
	return count, err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
