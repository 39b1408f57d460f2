package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	"trip-route-service/internal/adapters/cache"
	"trip-route-service/internal/adapters/distance"
	"trip-route-service/internal/adapters/repositories"
	"trip-route-service/internal/api"
	"trip-route-service/internal/config"
	"trip-route-service/internal/platform/db"
	"trip-route-service/internal/ports"
	"trip-route-service/internal/services"

	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters (SQLite or Mongo, Google or geodesic routing,
// SQL or Redis caches) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// SQLite always holds the local distance cache and, by default, the store.
	sqliteDB, err := db.OpenSqlite(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer sqliteDB.Close()

	if err := repositories.InitSchema(sqliteDB); err != nil {
		log.Fatal(err)
	}

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	repo, closeRepo, err := openRepository(ctx, cfg, sqliteDB)
	if err != nil {
		log.Fatal(err)
	}
	closers = append(closers, closeRepo)

	if _, err := repositories.SeedBookmarksFromJSON(ctx, repo, cfg.SeedPath); err != nil {
		log.Printf("bookmark seeding skipped: %v", err)
	}

	provider, closeProvider, err := openDistanceProvider(ctx, cfg, sqliteDB)
	if err != nil {
		log.Fatal(err)
	}
	closers = append(closers, closeProvider)

	history := services.NewRouteHistory(repo)
	sessions := services.NewSessions(services.SessionConfig{
		State: services.RouteStateConfig{
			Costs:        services.NewTravelCostEstimator(provider, cfg.CostQueryTimeout),
			CostCacheTTL: cfg.CostCacheTTL,
			Parallelism:  cfg.PlannerParallelism,
			AnnealingOpts: services.AnnealingOptions{
				Seed: cfg.AnnealingSeed,
			},
		},
		ArrivalThresholdMeters: cfg.ArrivalThresholdMeters,
		History:                history,
		IdleTTL:                cfg.SessionTTL,
	})

	router := api.NewRouter(api.Deps{
		Sessions:    sessions,
		Bookmarks:   services.NewBookmarks(repo),
		History:     history,
		CORSOrigins: cfg.CORSOrigins,
	})

	// WriteTimeout covers cold-cache optimizations that query every leg.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server listening addr=:%s backend=%s cache=%s store=%s",
			cfg.Port, cfg.DistanceBackend, cfg.DistanceCache, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func openRepository(ctx context.Context, cfg *config.Config, sqliteDB *sql.DB) (ports.RouteRepository, func(), error) {
	switch cfg.StoreBackend {
	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()

		client, repo, err := repositories.OpenMongo(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Printf("mongo disconnect: %v", err)
			}
		}
		return repo, closeFn, nil
	default:
		return repositories.NewSqliteRouteRepository(sqliteDB), func() {}, nil
	}
}

func openDistanceCache(ctx context.Context, cfg *config.Config, sqliteDB *sql.DB) (ports.DistanceCache, func(), error) {
	switch cfg.DistanceCache {
	case "sqlite":
		return cache.NewSqliteDistanceCache(sqliteDB, cfg.DistanceCacheMaxAge), func() {}, nil
	case "postgres":
		pg, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitPostgresSchema(ctx, pg); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return cache.NewSQLDistanceCache(pg, cfg.DistanceCacheMaxAge), func() { pg.Close() }, nil
	case "redis":
		client, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedisDistanceCache(client, cfg.DistanceCacheMaxAge), func() { client.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

func openDistanceProvider(ctx context.Context, cfg *config.Config, sqliteDB *sql.DB) (ports.DistanceProvider, func(), error) {
	if cfg.DistanceBackend == "geodesic" {
		return distance.NewGeodesicProvider(nil), func() {}, nil
	}

	distanceCache, closeCache, err := openDistanceCache(ctx, cfg, sqliteDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open distance cache %q: %w", cfg.DistanceCache, err)
	}

	provider, err := distance.NewGoogleDistanceProvider(cfg.GoogleMapsAPIKey, distanceCache)
	if err != nil {
		closeCache()
		return nil, nil, err
	}
	return provider, closeCache, nil
}
