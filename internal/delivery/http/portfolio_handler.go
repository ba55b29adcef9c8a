package http

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/delivery/http/dto"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/middleware"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/usecase"
)

// PortfolioHandler handles portfolio-related requests
type PortfolioHandler struct {
	tradingService *usecase.TradingService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(tradingService *usecase.TradingService) *PortfolioHandler {
	return &PortfolioHandler{
		tradingService: tradingService,
	}
}

// Create creates an additional portfolio for the user
// POST /api/portfolios
func (h *PortfolioHandler) Create(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var req dto.CreatePortfolioRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	portfolio, err := h.tradingService.CreatePortfolio(c.Request().Context(), userID, req.Name)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return CreatedResponse(c, portfolio)
}

// List returns all portfolios of the user
// GET /api/portfolios
func (h *PortfolioHandler) List(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	portfolios, err := h.tradingService.GetPortfolios(c.Request().Context(), userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, portfolios)
}

// GetSummary revalues a portfolio and returns the snapshot with positions
// and performance aggregates
// GET /api/portfolios/:id/summary
func (h *PortfolioHandler) GetSummary(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	portfolioID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid portfolio ID")
	}

	snapshot, err := h.tradingService.GetPortfolioSummary(c.Request().Context(), userID, portfolioID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, snapshot)
}

// GetPositions returns the open positions of a portfolio
// GET /api/portfolios/:id/positions
func (h *PortfolioHandler) GetPositions(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	portfolioID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid portfolio ID")
	}

	positions, err := h.tradingService.GetPositions(c.Request().Context(), userID, portfolioID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, positions)
}
