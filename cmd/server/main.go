package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"autoapply/internal/config"
	"autoapply/internal/db"
	"autoapply/internal/email"
	"autoapply/internal/events"
	"autoapply/internal/metrics"
	"autoapply/internal/pipeline"
	"autoapply/internal/safety"
	"autoapply/internal/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	// Seed the blacklist from the optional YAML file. Runtime additions made
	// through the API are never removed here.
	if err := seedBlacklist(ctx, database); err != nil {
		log.Fatalf("Failed to seed blacklist: %v", err)
	}

	metrics.Init(database)

	clock := safety.SystemClock{}
	notifier := email.NewNotifier(cfg)

	// Event publisher - only initialize if NATS is configured
	var publisher pipeline.Publisher
	if cfg.NATSURL != "" {
		p, err := events.NewPublisher(cfg.NATSURL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer p.Close()
		publisher = p
		log.Printf("Event publishing enabled (%s)", events.ApprovedSubject)
	} else {
		log.Println("Event publishing is disabled. Set NATS_URL to enable.")
	}

	gate := safety.NewGate(database, clock, safety.ThresholdsFromConfig(cfg))
	pipe := pipeline.New(database, database, gate, clock, publisher, notifier)

	srv := server.New(cfg)
	srv.RegisterRoutes(database, pipe, clock, notifier)

	// Background re-evaluation of pending applications
	go pipe.Start(ctx, cfg.PipelineEvery)

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server started on %s", cfg.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()
	if err := srv.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

// seedBlacklist applies the optional blacklist seed file idempotently.
func seedBlacklist(ctx context.Context, database *db.DB) error {
	bf, err := config.LoadBlacklistFile()
	if err != nil {
		return err
	}
	if bf == nil {
		return nil
	}

	for _, c := range bf.Companies {
		if err := database.AddBlacklistCompany(ctx, c.Name, c.Reason); err != nil {
			return err
		}
	}
	for _, k := range bf.Keywords {
		if err := database.AddBlacklistKeyword(ctx, k); err != nil {
			return err
		}
	}

	log.Printf("Blacklist seeded (%d companies, %d keywords)", len(bf.Companies), len(bf.Keywords))
	return nil
}
