package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/velastore/velastore-backend/config"
	"github.com/velastore/velastore-backend/internal/app/controller"
	"github.com/velastore/velastore-backend/internal/app/repository"
	"github.com/velastore/velastore-backend/internal/app/service"
	"github.com/velastore/velastore-backend/internal/db"
	"github.com/velastore/velastore-backend/internal/router"
	"github.com/velastore/velastore-backend/internal/scheduler"
	"github.com/velastore/velastore-backend/internal/websocket"
	"github.com/velastore/velastore-backend/pkg/logger"
	"github.com/velastore/velastore-backend/pkg/payment/stripe"
	"github.com/velastore/velastore-backend/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       "info",
		Format:      logFormat,
		EnableColor: cfg.Server.Environment == "development",
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	if err := redis.Init(&cfg.Redis); err != nil {
		// token revocation degrades gracefully without Redis
		logger.Warn("Redis unavailable, continuing without token revocation", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer redis.Close()

	stripeClient, err := stripe.NewClient(stripe.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		BaseURL:       cfg.Stripe.BaseURL,
		Currency:      cfg.Stripe.Currency,
		SuccessURL:    cfg.Stripe.SuccessURL,
		CancelURL:     cfg.Stripe.CancelURL,
	})
	if err != nil {
		logger.Fatal("Failed to create payment client", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	database := db.GetDB()
	userRepo := repository.NewUserRepository(database)
	productRepo := repository.NewProductRepository(database)
	cartRepo := repository.NewCartRepository(database)
	orderRepo := repository.NewOrderRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)

	notificationService := service.NewNotificationService(notificationRepo, hub)
	authService := service.NewAuthService(userRepo, cfg.JWT)
	productService := service.NewProductService(productRepo)
	cartService := service.NewCartService(database, cartRepo, productRepo)
	checkoutService := service.NewCheckoutService(database, cartRepo, orderRepo, userRepo, stripeClient)
	paymentService := service.NewPaymentService(database, orderRepo, stripeClient, notificationService, cfg.Stripe.WebhookSecret)
	orderService := service.NewOrderService(database, orderRepo, notificationService)

	paymentScheduler := scheduler.NewPaymentScheduler(paymentService, cfg.Stripe.ReconcileEvery, cfg.Stripe.PendingMaxAge)
	if err := paymentScheduler.Start(); err != nil {
		logger.Fatal("Failed to start payment scheduler", err)
	}
	defer paymentScheduler.Stop()

	engine := router.Setup(cfg, router.Controllers{
		Auth:         controller.NewAuthController(authService),
		Product:      controller.NewProductController(productService),
		Cart:         controller.NewCartController(cartService),
		Order:        controller.NewOrderController(orderService),
		Payment:      controller.NewPaymentController(checkoutService, paymentService),
		Notification: controller.NewNotificationController(notificationService, hub),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: engine,
	}

	go func() {
		logger.Info("Server starting", map[string]interface{}{
			"port":        cfg.Server.Port,
			"environment": cfg.Server.Environment,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", err)
	}
	logger.Info("Server stopped")
}
