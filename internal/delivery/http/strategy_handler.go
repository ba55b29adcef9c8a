package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/delivery/http/dto"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/middleware"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/usecase"
)

// signatureHeader carries the webhook HMAC, as "sha256=<hex digest>"
const signatureHeader = "X-Signature"

// StrategyHandler handles strategy lifecycle, signal, and performance requests
type StrategyHandler struct {
	strategyService *usecase.StrategyService
	strategyRepo    domain.StrategyRepository
}

// NewStrategyHandler creates a new StrategyHandler
func NewStrategyHandler(strategyService *usecase.StrategyService, strategyRepo domain.StrategyRepository) *StrategyHandler {
	return &StrategyHandler{
		strategyService: strategyService,
		strategyRepo:    strategyRepo,
	}
}

// Create creates a new strategy in DRAFT
// POST /api/strategies
func (h *StrategyHandler) Create(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var req dto.CreateStrategyRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	portfolioID, err := uuid.Parse(req.PortfolioID)
	if err != nil {
		return BadRequestResponse(c, "Invalid portfolio ID")
	}

	strategy, err := h.strategyService.CreateStrategy(c.Request().Context(), userID, usecase.CreateStrategyInput{
		Name:              req.Name,
		Description:       req.Description,
		StrategyType:      req.StrategyType,
		PortfolioID:       portfolioID,
		CapitalAllocation: req.CapitalAllocation,
		MaxPositionSize:   req.MaxPositionSize,
		WebhookSecret:     req.WebhookSecret,
		Parameters:        req.Parameters,
	})
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return CreatedResponse(c, strategy)
}

// List returns all strategies of the user
// GET /api/strategies
func (h *StrategyHandler) List(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	strategies, err := h.strategyService.GetStrategies(c.Request().Context(), userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, strategies)
}

// Get returns one strategy by ID
// GET /api/strategies/:id
func (h *StrategyHandler) Get(c echo.Context) error {
	userID, strategyID, err := h.userAndStrategyID(c)
	if err != nil {
		return err
	}

	strategy, err := h.strategyService.GetStrategy(c.Request().Context(), userID, strategyID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, strategy)
}

// Update applies partial updates to a strategy
// PUT /api/strategies/:id
func (h *StrategyHandler) Update(c echo.Context) error {
	userID, strategyID, err := h.userAndStrategyID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateStrategyRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	strategy, err := h.strategyService.UpdateStrategy(c.Request().Context(), userID, strategyID, usecase.UpdateStrategyInput{
		Name:              req.Name,
		Description:       req.Description,
		CapitalAllocation: req.CapitalAllocation,
		MaxPositionSize:   req.MaxPositionSize,
		WebhookSecret:     req.WebhookSecret,
		Parameters:        req.Parameters,
	})
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, strategy)
}

// Delete removes a strategy
// DELETE /api/strategies/:id
func (h *StrategyHandler) Delete(c echo.Context) error {
	userID, strategyID, err := h.userAndStrategyID(c)
	if err != nil {
		return err
	}

	if err := h.strategyService.DeleteStrategy(c.Request().Context(), userID, strategyID); err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, map[string]string{"message": "Strategy deleted"})
}

// Activate moves a strategy to ACTIVE
// POST /api/strategies/:id/activate
func (h *StrategyHandler) Activate(c echo.Context) error {
	return h.changeStatus(c, domain.StrategyStatusActive)
}

// Pause moves a strategy to PAUSED
// POST /api/strategies/:id/pause
func (h *StrategyHandler) Pause(c echo.Context) error {
	return h.changeStatus(c, domain.StrategyStatusPaused)
}

// Stop moves a strategy to STOPPED, its terminal state
// POST /api/strategies/:id/stop
func (h *StrategyHandler) Stop(c echo.Context) error {
	return h.changeStatus(c, domain.StrategyStatusStopped)
}

func (h *StrategyHandler) changeStatus(c echo.Context, target string) error {
	userID, strategyID, err := h.userAndStrategyID(c)
	if err != nil {
		return err
	}

	strategy, err := h.strategyService.ChangeStatus(c.Request().Context(), userID, strategyID, target)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, strategy)
}

// Execute processes a manually triggered signal against the user's strategy
// POST /api/strategies/:id/execute
func (h *StrategyHandler) Execute(c echo.Context) error {
	userID, strategyID, err := h.userAndStrategyID(c)
	if err != nil {
		return err
	}

	var signal domain.Signal
	if err := c.Bind(&signal); err != nil {
		return BadRequestResponse(c, "Invalid signal payload")
	}
	signal.Action = strings.ToUpper(signal.Action)

	execution, err := h.strategyService.HandleUserSignal(c.Request().Context(), userID, strategyID, signal)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, execution)
}

// Webhook receives an external signal for a strategy. The request is
// authenticated by an HMAC-SHA256 of the raw body keyed with the strategy's
// webhook secret, not by a user session.
// POST /api/strategies/:id/webhook
func (h *StrategyHandler) Webhook(c echo.Context) error {
	strategyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid strategy ID")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return BadRequestResponse(c, "Failed to read request body")
	}

	strategy, err := h.strategyRepo.GetByID(c.Request().Context(), strategyID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	if strategy.StrategyType != domain.StrategyTypeWebhook {
		return BadRequestResponse(c, "Strategy does not accept webhook signals")
	}
	if strategy.WebhookSecret == nil || *strategy.WebhookSecret == "" {
		return UnauthorizedResponse(c, "Webhook is not configured for this strategy")
	}
	if !verifySignature(body, c.Request().Header.Get(signatureHeader), *strategy.WebhookSecret) {
		return UnauthorizedResponse(c, "Invalid webhook signature")
	}

	var signal domain.Signal
	if err := json.Unmarshal(body, &signal); err != nil {
		return BadRequestResponse(c, "Invalid signal payload")
	}
	signal.Action = strings.ToUpper(signal.Action)

	execution, err := h.strategyService.HandleSignal(c.Request().Context(), strategyID, signal)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, execution)
}

// GetExecutions returns the signal history of a strategy
// GET /api/strategies/:id/executions
func (h *StrategyHandler) GetExecutions(c echo.Context) error {
	userID, strategyID, err := h.userAndStrategyID(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	executions, err := h.strategyService.GetExecutions(c.Request().Context(), userID, strategyID, limit)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, executions)
}

// GetPerformance returns the performance report of a strategy
// GET /api/strategies/:id/performance
func (h *StrategyHandler) GetPerformance(c echo.Context) error {
	userID, strategyID, err := h.userAndStrategyID(c)
	if err != nil {
		return err
	}

	performance, err := h.strategyService.GetPerformance(c.Request().Context(), userID, strategyID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, performance)
}

func (h *StrategyHandler) userAndStrategyID(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, UnauthorizedResponse(c, "Not authenticated")
	}

	strategyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, BadRequestResponse(c, "Invalid strategy ID")
	}

	return userID, strategyID, nil
}

// verifySignature checks the HMAC-SHA256 of the raw body against the
// "sha256=<hex>" header value in constant time.
func verifySignature(body []byte, header, secret string) bool {
	digest, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}

	provided, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return hmac.Equal(provided, mac.Sum(nil))
}
