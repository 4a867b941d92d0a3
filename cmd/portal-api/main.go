package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tanaestate/portal-backend/internal/admin"
	"tanaestate/portal-backend/internal/auth"
	"tanaestate/portal-backend/internal/config"
	"tanaestate/portal-backend/internal/listings"
	"tanaestate/portal-backend/internal/middleware"
	"tanaestate/portal-backend/internal/notifications"
	"tanaestate/portal-backend/internal/verification"
	"tanaestate/portal-backend/pkg/storage"
)

func main() {
	// Load .env if present, real env vars still win
	godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	if cfg.Security.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	// Connect to database
	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	// Listings ride gorm on top of the same connection pool
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to initialize orm", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(&listings.Listing{}); err != nil {
		logger.Fatal("Failed to migrate listings schema", zap.Error(err))
	}

	// Object storage for uploaded certificate files, optional
	var archive storage.S3Client
	if s3Client, err := storage.NewS3Client(context.Background(), cfg.Storage.Region); err == nil {
		archive = s3Client
	} else {
		logger.Warn("Object storage unavailable, uploads will not be archived", zap.Error(err))
	}

	// Verification client: real service or local demo generator
	var verifyClient verification.Client
	if cfg.Verification.DemoMode() {
		logger.Warn("VERIFICATION_API_URL not set, running verification in DEMO MODE with generated results")
		verifyClient = verification.NewMockClient()
	} else {
		verifyClient = verification.NewHTTPClient(
			cfg.Verification.BaseURL,
			cfg.Verification.RequestTimeout,
			cfg.Verification.HealthTimeout,
		)
	}

	hub := notifications.NewHub(logger)
	defer hub.Close()

	submitLimiter := middleware.NewRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window)

	// Auth
	authRepo := auth.NewRepository(db)
	authService := auth.NewService(authRepo, cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	authHandler := auth.NewHandler(authService, logger)

	// Verification
	verificationRepo := verification.NewRepository(db)
	verificationService := verification.NewService(verification.ServiceOptions{
		Repo:      verificationRepo,
		Client:    verifyClient,
		Validator: verification.NewFileValidator(nil, 0),
		Limiter:   submitLimiter,
		Notifier:  hub,
		Archive:   archive,
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
		Logger:    logger,
	})
	verificationHandler := verification.NewHandler(verificationService, logger)

	// Listings
	listingsRepo := listings.NewRepository(gormDB)
	listingsService := listings.NewService(listingsRepo, hub, logger)
	listingsHandler := listings.NewHandler(listingsService, logger)

	// Admin review
	adminRepo := admin.NewRepository(db)
	adminService := admin.NewService(adminRepo, verificationRepo, authRepo, logger)
	adminHandler := admin.NewHandler(adminService, logger)

	notificationsHandler := notifications.NewHandler(hub, logger)

	// Setup Router
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	api := router.Group("/api/v1")
	{
		// Login and register get their own limiter to slow brute force
		authLimiter := middleware.NewRateLimiter(30, time.Minute)
		authGroup := api.Group("")
		authGroup.Use(middleware.RateLimit(authLimiter, logger))
		authHandler.RegisterRoutes(authGroup)

		verificationGroup := api.Group("")
		verificationGroup.Use(auth.RequireAuth(authService))
		verificationHandler.RegisterRoutes(verificationGroup)

		listingsHandler.RegisterRoutes(api, authService)
		adminHandler.RegisterRoutes(api, authService)
		notificationsHandler.RegisterRoutes(api, authService)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":      "healthy",
			"demo_mode":   verifyClient.DemoMode(),
			"connections": hub.ConnectionCount(),
			"timestamp":   time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("addr", cfg.Server.GetServerAddr()),
		zap.Bool("demo_mode", verifyClient.DemoMode()))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func newLogger(level string) *zap.Logger {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
