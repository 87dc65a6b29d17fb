// Command migrate applies the embedded schema migrations.
//
//	migrate up          apply all pending migrations
//	migrate down [n]    roll back n migrations (default 1)
//	migrate version     print the applied version
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/AnshRaj112/solace-backend/internal/config"
	"github.com/AnshRaj112/solace-backend/internal/database"
	"github.com/AnshRaj112/solace-backend/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	zl, err := logger.Init(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()
	sugar := zl.Sugar()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := database.ConnectPostgres(ctx, cfg.PostgresURI)
	if err != nil {
		sugar.Fatalw("connect postgres", "uri", database.MaskURI(cfg.PostgresURI), "error", err)
	}
	defer db.Close()

	switch cmd {
	case "up":
		version, err := database.Migrate(db.DB)
		if err != nil {
			sugar.Fatalw("migrate up failed", "error", err)
		}
		sugar.Infow("schema up to date", "version", version)
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			if steps, err = strconv.Atoi(os.Args[2]); err != nil || steps <= 0 {
				sugar.Fatalw("steps must be a positive integer", "value", os.Args[2])
			}
		}
		version, err := database.MigrateDown(db.DB, steps)
		if err != nil {
			sugar.Fatalw("migrate down failed", "error", err)
		}
		sugar.Infow("rolled back", "steps", steps, "version", version)
	case "version":
		version, dirty, err := database.SchemaVersion(db.DB)
		if err != nil {
			sugar.Fatalw("read schema version", "error", err)
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
	default:
		fmt.Fprintf(os.Stderr, "usage: %s up | down [n] | version\n", os.Args[0])
		os.Exit(2)
	}
}
