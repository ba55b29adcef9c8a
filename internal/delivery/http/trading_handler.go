package http

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/delivery/http/dto"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/middleware"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/usecase"
)

// TradingHandler handles order placement and trade history requests
type TradingHandler struct {
	tradingService *usecase.TradingService
}

// NewTradingHandler creates a new TradingHandler
func NewTradingHandler(tradingService *usecase.TradingService) *TradingHandler {
	return &TradingHandler{
		tradingService: tradingService,
	}
}

// PlaceOrder places a market order against one of the user's portfolios.
// A business rejection (insufficient funds or shares) is a successful
// response carrying the rejected outcome, not an HTTP error.
// POST /api/trades
func (h *TradingHandler) PlaceOrder(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var req dto.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	portfolioID, err := uuid.Parse(req.PortfolioID)
	if err != nil {
		return BadRequestResponse(c, "Invalid portfolio ID")
	}

	result, err := h.tradingService.PlaceOrder(c.Request().Context(), userID, usecase.PlaceOrderInput{
		PortfolioID: portfolioID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Quantity:    req.Quantity,
		Price:       req.Price,
	})
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, orderOutput(result))
}

// ListTrades returns the user's trade history, newest first
// GET /api/trades
func (h *TradingHandler) ListTrades(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	trades, err := h.tradingService.GetTrades(c.Request().Context(), userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, trades)
}

// GetTrade returns one trade by ID
// GET /api/trades/:id
func (h *TradingHandler) GetTrade(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	tradeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid trade ID")
	}

	trade, err := h.tradingService.GetTrade(c.Request().Context(), userID, tradeID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, trade)
}

func orderOutput(result *domain.FillResult) *dto.OrderOutput {
	out := &dto.OrderOutput{
		TradeID:  result.Trade.ID.String(),
		Symbol:   result.Trade.Symbol,
		Side:     result.Trade.Side,
		Quantity: result.Trade.Quantity,
		Status:   result.Trade.Status,
		Filled:   result.Filled,
	}

	if result.Filled {
		price := result.Price
		out.FillPrice = &price
		if result.Trade.Side == domain.SideSell {
			pnl := result.RealizedPnL
			out.RealizedPnL = &pnl
		}
	} else {
		out.RejectReason = result.Reason
	}

	return out
}
