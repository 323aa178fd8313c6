package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/driveschool/lesson-booking/internal/config"
	"github.com/driveschool/lesson-booking/internal/db"
)

// Usage: migrate [up|down|version]  (default up)
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	switch cmd {
	case "up":
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		log.Println("migrations applied")
	case "down":
		if err := db.RollbackMigration(ctx, pool); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		log.Println("last migration rolled back")
	case "version":
		v, err := db.MigrationVersion(ctx, pool)
		if err != nil {
			log.Fatalf("migrate version: %v", err)
		}
		log.Printf("migration version: %d", v)
	default:
		log.Fatalf("unknown command %q (want up, down or version)", cmd)
	}
}
