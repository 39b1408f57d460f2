package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"
	"trip-route-service/internal/adapters/cache"
	"trip-route-service/internal/adapters/repositories"
	"trip-route-service/internal/config"
	"trip-route-service/internal/platform/db"

	"github.com/joho/godotenv"
)

// dbtool prepares the local SQLite database, seeds demo bookmarks and, when
// DATABASE_URL is set, creates the shared Postgres distance cache table.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	dbPath := flag.String("db", config.Get("DB_PATH", "data/app.db"), "SQLite database path")
	seedPath := flag.String("seed", config.Get("SEED_PATH", "data/seeds/bookmarks.json"), "bookmark seed file, empty to skip")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sqliteDB, err := db.OpenSqlite(*dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer sqliteDB.Close()

	log.Println("Initializing SQLite schema...")
	if err := repositories.InitSchema(sqliteDB); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	if strings.TrimSpace(*seedPath) != "" {
		log.Println("Seeding bookmarks...")
		repo := repositories.NewSqliteRouteRepository(sqliteDB)
		n, err := repositories.SeedBookmarksFromJSON(ctx, repo, *seedPath)
		if err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
		log.Printf("Seeding complete. inserted=%d", n)
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		return
	}

	pg, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	log.Println("Initializing Postgres distance cache...")
	if err := cache.InitPostgresSchema(ctx, pg); err != nil {
		log.Fatalf("postgres schema initialization failed: %v", err)
	}
	log.Println("Postgres distance cache ready.")
}
