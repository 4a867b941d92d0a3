package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tanaestate/portal-backend/internal/config"
	"tanaestate/portal-backend/internal/listings"
	"tanaestate/portal-backend/internal/verification"
)

// Background workers: a periodic verification service health probe and a
// nightly sweep that archives stale published listings.
func main() {
	godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to initialize orm", zap.Error(err))
	}

	listingsService := listings.NewService(listings.NewRepository(gormDB), nil, logger)

	var verifyClient verification.Client
	if cfg.Verification.DemoMode() {
		logger.Warn("VERIFICATION_API_URL not set, health probe will report demo mode")
		verifyClient = verification.NewMockClient()
	} else {
		verifyClient = verification.NewHTTPClient(
			cfg.Verification.BaseURL,
			cfg.Verification.RequestTimeout,
			cfg.Verification.HealthTimeout,
		)
	}

	scheduler := cron.New()

	_, err = scheduler.AddFunc(cfg.Verification.ProbeSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Verification.HealthTimeout+time.Second)
		defer cancel()

		if err := verifyClient.Health(ctx); err != nil {
			logger.Warn("verification service unavailable", zap.Error(err))
			return
		}
		logger.Debug("verification service healthy", zap.Bool("demo_mode", verifyClient.DemoMode()))
	})
	if err != nil {
		logger.Fatal("Failed to schedule health probe", zap.Error(err))
	}

	_, err = scheduler.AddFunc(cfg.Listings.ExpirySchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		archived, err := listingsService.ExpirePublished(ctx, cfg.Listings.PublishedTTL)
		if err != nil {
			logger.Error("listing expiry sweep failed", zap.Error(err))
			return
		}
		logger.Info("listing expiry sweep finished", zap.Int64("archived", archived))
	})
	if err != nil {
		logger.Fatal("Failed to schedule listing expiry", zap.Error(err))
	}

	scheduler.Start()
	logger.Info("Workers started",
		zap.String("probe_schedule", cfg.Verification.ProbeSchedule),
		zap.String("expiry_schedule", cfg.Listings.ExpirySchedule))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Stopping workers...")
	<-scheduler.Stop().Done()
	logger.Info("Workers exiting")
}
