package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/yashashwi-s/VirtualTradingPlatform/configs"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/database"
	deliveryhttp "github.com/yashashwi-s/VirtualTradingPlatform/internal/delivery/http"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/infra"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/repository"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/service"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/usecase"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg := configs.Load()

	ctx := context.Background()

	// Initialize database
	db, err := infra.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	strategyRepo := repository.NewStrategyRepository(db)
	executionRepo := repository.NewStrategyExecutionRepository(db)
	ledger := repository.NewLedger(db)

	// Initialize services
	quoteService := service.NewMarketQuoteService(cfg.MarketData.BaseURL, cfg.MarketData.APIKey, cfg.MarketData.QuoteTTL)
	valuationService := service.NewValuationService(ledger, quoteService)
	executionEngine := service.NewExecutionEngine(ledger, quoteService, valuationService)

	// Initialize usecases
	tradingService := usecase.NewTradingService(
		executionEngine,
		valuationService,
		portfolioRepo,
		positionRepo,
		tradeRepo,
		cfg.Trading.StartingCash,
	)
	strategyService := usecase.NewStrategyService(
		strategyRepo,
		executionRepo,
		tradeRepo,
		positionRepo,
		portfolioRepo,
		executionEngine,
		quoteService,
	)

	// Start the scheduler (strategy sweep + portfolio revaluation)
	scheduler := infra.NewScheduler(strategyService, valuationService, portfolioRepo)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Initialize HTTP server
	e := echo.New()
	e.HideBanner = true

	deliveryhttp.SetupRoutes(e, &deliveryhttp.RouterConfig{
		AuthHandler:      deliveryhttp.NewAuthHandler(userRepo, tradingService),
		PortfolioHandler: deliveryhttp.NewPortfolioHandler(tradingService),
		TradingHandler:   deliveryhttp.NewTradingHandler(tradingService),
		StrategyHandler:  deliveryhttp.NewStrategyHandler(strategyService, strategyRepo),
		MarketHandler:    deliveryhttp.NewMarketHandler(quoteService),
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Virtual trading platform starting on %s", addr)
	log.Printf("Environment: %s", cfg.Server.Env)
	log.Printf("Starting cash balance: $%s", cfg.Trading.StartingCash)

	// Run server in goroutine
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("[OK] Server exited gracefully")
}
