package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/powderlines/powder-tracker/internal/api"
	"github.com/powderlines/powder-tracker/internal/db"
	"github.com/powderlines/powder-tracker/internal/scrape"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found, using environment variables")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	registry, err := scrape.LoadRegistry("")
	if err != nil {
		log.Fatalf("Failed to load resort registry: %v", err)
	}

	store := db.NewStore(pool)
	if retention := historyRetention(); retention > 0 {
		if pruned, err := store.PruneHistory(ctx, retention); err != nil {
			log.Printf("History prune failed: %v", err)
		} else if pruned > 0 {
			log.Printf("Pruned %d history rows older than %s", pruned, retention)
		}
	}

	cache := scrape.NewConditionsCache(cacheTTL())
	orch := scrape.NewOrchestrator(store, cache)

	sched := scrape.NewScheduler(orch, registry, scrapeInterval())
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	srv := api.NewServer(store, registry, orch)

	go func() {
		log.Printf("Server starting on port %s...", port)
		if err := srv.Start(port); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func scrapeInterval() time.Duration {
	if raw := os.Getenv("SCRAPE_INTERVAL_MINUTES"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			return time.Duration(minutes) * time.Minute
		}
	}
	return time.Hour
}

func historyRetention() time.Duration {
	if raw := os.Getenv("HISTORY_RETENTION_DAYS"); raw != "" {
		if days, err := strconv.Atoi(raw); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	return 0
}

func cacheTTL() time.Duration {
	if raw := os.Getenv("CACHE_TTL_HOURS"); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			return time.Duration(hours) * time.Hour
		}
	}
	return 6 * time.Hour
}
