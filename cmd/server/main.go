package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/electroegy/electroegy-backend/config"
	"github.com/electroegy/electroegy-backend/internal/app/controller"
	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/internal/app/service"
	"github.com/electroegy/electroegy-backend/internal/db"
	"github.com/electroegy/electroegy-backend/internal/middleware"
	"github.com/electroegy/electroegy-backend/internal/router"
	"github.com/electroegy/electroegy-backend/internal/scheduler"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"github.com/electroegy/electroegy-backend/pkg/mail"
	"github.com/electroegy/electroegy-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting ElectroEgy Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs the token blacklist and the two-factor login codes
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to connect to Redis", err)
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	mailer := mail.NewSender(cfg.SMTP)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	resetRepo := repository.NewPasswordResetRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	reviewRepo := repository.NewReviewRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	wishlistRepo := repository.NewWishlistRepository(db.GetDB())

	// Initialize services
	twoFactorService := service.NewTwoFactorService(
		userRepo,
		mailer,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	authService := service.NewAuthService(
		userRepo,
		twoFactorService,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	resetService := service.NewPasswordResetService(resetRepo, userRepo, mailer, cfg.Server.BaseURL)
	productService := service.NewProductService(productRepo, orderRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(orderRepo, userRepo, mailer, db.GetDB())
	reviewService := service.NewReviewService(reviewRepo, orderRepo, productRepo, db.GetDB())
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo)

	// Initialize controllers
	authController := controller.NewAuthController(authService, resetService, twoFactorService)
	productController := controller.NewProductController(productService, reviewService)
	cartController := controller.NewCartController(cartService)
	orderController := controller.NewOrderController(orderService)
	reviewController := controller.NewReviewController(reviewService)
	wishlistController := controller.NewWishlistController(wishlistService)
	exportController := controller.NewExportController(productService, orderService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, true)

	// Housekeeping: expired reset tokens and stale cart items
	cleanupScheduler := scheduler.NewCleanupScheduler(resetRepo, cartRepo, cfg.Scheduler.CleanupSpec)
	if err := cleanupScheduler.Start(); err != nil {
		logger.Fatal("Failed to start cleanup scheduler", err)
	}
	defer cleanupScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		cartController,
		orderController,
		reviewController,
		wishlistController,
		exportController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
