package http

import (
	"github.com/labstack/echo/v4"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/service"
)

// MarketHandler handles market data requests
type MarketHandler struct {
	quotes *service.MarketQuoteService
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(quotes *service.MarketQuoteService) *MarketHandler {
	return &MarketHandler{
		quotes: quotes,
	}
}

// GetQuote returns the current quote for a symbol
// GET /api/market/quote/:symbol
func (h *MarketHandler) GetQuote(c echo.Context) error {
	quote, err := h.quotes.GetQuote(c.Request().Context(), c.Param("symbol"))
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, quote)
}

// Search looks up symbols by keywords
// GET /api/market/search?q=...
func (h *MarketHandler) Search(c echo.Context) error {
	keywords := c.QueryParam("q")
	if keywords == "" {
		return BadRequestResponse(c, "Query parameter q is required")
	}

	matches, err := h.quotes.SearchSymbols(c.Request().Context(), keywords)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, matches)
}
