package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	custommiddleware "github.com/yashashwi-s/VirtualTradingPlatform/internal/middleware"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	AuthHandler      *AuthHandler
	PortfolioHandler *PortfolioHandler
	TradingHandler   *TradingHandler
	StrategyHandler  *StrategyHandler
	MarketHandler    *MarketHandler
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	// Middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return SuccessResponse(c, map[string]interface{}{
			"status":  "healthy",
			"service": "virtual-trading-api",
		})
	})

	// API group
	api := e.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/register", config.AuthHandler.Register)
		auth.POST("/login", config.AuthHandler.Login)
		auth.POST("/logout", config.AuthHandler.Logout)
	}
	api.GET("/auth/me", config.AuthHandler.Me, custommiddleware.AuthMiddleware)

	// Webhook signal intake (public, HMAC-authenticated per strategy)
	api.POST("/strategies/:id/webhook", config.StrategyHandler.Webhook)

	// Portfolio routes (protected)
	portfolios := api.Group("/portfolios", custommiddleware.AuthMiddleware)
	{
		portfolios.POST("", config.PortfolioHandler.Create)
		portfolios.GET("", config.PortfolioHandler.List)
		portfolios.GET("/:id/summary", config.PortfolioHandler.GetSummary)
		portfolios.GET("/:id/positions", config.PortfolioHandler.GetPositions)
	}

	// Trading routes (protected)
	trades := api.Group("/trades", custommiddleware.AuthMiddleware)
	{
		trades.POST("", config.TradingHandler.PlaceOrder)
		trades.GET("", config.TradingHandler.ListTrades)
		trades.GET("/:id", config.TradingHandler.GetTrade)
	}

	// Strategy routes (protected)
	strategies := api.Group("/strategies", custommiddleware.AuthMiddleware)
	{
		strategies.POST("", config.StrategyHandler.Create)
		strategies.GET("", config.StrategyHandler.List)
		strategies.GET("/:id", config.StrategyHandler.Get)
		strategies.PUT("/:id", config.StrategyHandler.Update)
		strategies.DELETE("/:id", config.StrategyHandler.Delete)
		strategies.POST("/:id/activate", config.StrategyHandler.Activate)
		strategies.POST("/:id/pause", config.StrategyHandler.Pause)
		strategies.POST("/:id/stop", config.StrategyHandler.Stop)
		strategies.POST("/:id/execute", config.StrategyHandler.Execute)
		strategies.GET("/:id/executions", config.StrategyHandler.GetExecutions)
		strategies.GET("/:id/performance", config.StrategyHandler.GetPerformance)
	}

	// Market data routes (protected)
	market := api.Group("/market", custommiddleware.AuthMiddleware)
	{
		market.GET("/quote/:symbol", config.MarketHandler.GetQuote)
		market.GET("/search", config.MarketHandler.Search)
	}
}
