package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"magician-server/internal/config"
	"magician-server/internal/handler"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wiring
	container, err := config.NewContainer(ctx)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}
	defer container.Close()

	authMiddleware := handler.NewAuthMiddleware(
		container.AuthService,
		container.Logger,
	)
	rateLimiter := handler.NewRateLimiter(
		container.Config.GetGenerationRatePerMinute(),
		container.Config.GetGenerationRateBurst(),
		container.Logger,
	)

	// Router
	router := handler.NewRouter(handler.Routes{
		Auth:           handler.NewAuthHandler(container.EntitlementGate, container.Logger),
		Generation:     handler.NewGenerationHandler(container.GenerationService, container.Logger),
		Billing:        handler.NewBillingHandler(container.BillingService, container.EntitlementGate, container.Logger),
		Webhook:        handler.NewWebhookHandler(container.BillingGateway, container.LedgerSync, container.Logger),
		AuthMiddleware: authMiddleware.Middleware,
		RateLimit:      rateLimiter.Middleware,
		RequestLogger:  handler.RequestLogger(container.Logger),
		AllowedOrigins: container.Config.GetAllowedOrigins(),
	})

	// start server
	server := &http.Server{
		Addr:              ":" + container.Config.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()

	container.Logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Graceful shutdown failed", err)
		_ = server.Close()
	}

	container.Logger.Info("Server exited")
}
