package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nekogravitycat/pet-booking-backend/internal/app"
	"github.com/nekogravitycat/pet-booking-backend/internal/booking"
	"github.com/nekogravitycat/pet-booking-backend/internal/config"
	"github.com/nekogravitycat/pet-booking-backend/internal/db"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	policy, err := config.LoadPolicy(cfg)
	if err != nil {
		log.Fatalf("failed to load policy: %v", err)
	}

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("failed to migrate db: %v", err)
	}

	// Init components
	container := app.NewContainer(app.Config{
		IsProduction:  cfg.IsProduction,
		ProdOrigins:   cfg.ProdOrigins,
		DBPool:        pool,
		JWTSecret:     cfg.JWTSecret,
		JWTTTL:        cfg.JWTAccessTokenTTL,
		Location:      cfg.Location,
		FeePercent:    cfg.PlatformFeePercent,
		Policy:        policy,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		LockTTL:       cfg.LockTTL,
		KafkaBrokers:  cfg.KafkaBrokers,
		KafkaTopic:    cfg.KafkaTopic,
	})
	defer container.Close()

	// Clock-driven transitions
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		runSweeper(ctx, container.BookingService, cfg.SweepInterval)
	}()

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	// Run server in separate goroutine
	go func() {
		log.Printf("server running on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Println("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	<-sweeperDone

	log.Println("server exited gracefully")
}

// runSweeper applies due expiry, late detection and auto-approval until
// ctx is cancelled. A zero interval disables it.
func runSweeper(ctx context.Context, svc booking.Service, interval time.Duration) {
	if interval <= 0 {
		log.Println("sweeper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := svc.Sweep(ctx, time.Now().UTC())
			if err != nil {
				log.Printf("sweep error: %v", err)
				continue
			}
			if applied := total(result.Applied); applied > 0 || result.Failed > 0 {
				log.Printf("sweep applied %d transitions %v, skipped %d, failed %d",
					applied, result.Applied, result.Skipped, result.Failed)
			}
		}
	}
}

func total(counts map[booking.Event]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
