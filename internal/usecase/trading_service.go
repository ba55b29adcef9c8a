package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/service"
)

// TradingService handles user-facing order placement and portfolio views
type TradingService struct {
	engine        *service.ExecutionEngine
	valuation     *service.ValuationService
	portfolioRepo domain.PortfolioRepository
	positionRepo  domain.PositionRepository
	tradeRepo     domain.TradeRepository
	startingCash  decimal.Decimal
}

// NewTradingService creates a new TradingService
func NewTradingService(
	engine *service.ExecutionEngine,
	valuation *service.ValuationService,
	portfolioRepo domain.PortfolioRepository,
	positionRepo domain.PositionRepository,
	tradeRepo domain.TradeRepository,
	startingCash decimal.Decimal,
) *TradingService {
	return &TradingService{
		engine:        engine,
		valuation:     valuation,
		portfolioRepo: portfolioRepo,
		positionRepo:  positionRepo,
		tradeRepo:     tradeRepo,
		startingCash:  startingCash,
	}
}

// PlaceOrderInput carries one order request from the transport layer
type PlaceOrderInput struct {
	PortfolioID uuid.UUID
	Symbol      string
	Side        string
	Quantity    int64
	Price       decimal.Decimal
}

// PlaceOrder creates a pending trade for the user and executes it
// immediately. The returned FillResult carries the structured outcome,
// including the rejection reason when the order bounced.
func (ts *TradingService) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*domain.FillResult, error) {
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", domain.ErrInvalidOrder)
	}
	if input.Side != domain.SideBuy && input.Side != domain.SideSell {
		return nil, fmt.Errorf("side must be BUY or SELL: %w", domain.ErrInvalidOrder)
	}
	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required: %w", domain.ErrInvalidOrder)
	}

	if _, err := ts.ownedPortfolio(ctx, userID, input.PortfolioID); err != nil {
		return nil, err
	}

	trade := &domain.Trade{
		ID:          uuid.New(),
		UserID:      userID,
		PortfolioID: input.PortfolioID,
		Symbol:      symbol,
		Side:        input.Side,
		Quantity:    input.Quantity,
		Price:       input.Price,
		TotalAmount: input.Price.Mul(decimal.NewFromInt(input.Quantity)),
		Status:      domain.TradeStatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	if err := ts.tradeRepo.Save(ctx, trade); err != nil {
		return nil, err
	}

	result, err := ts.engine.Execute(ctx, trade)
	if err != nil {
		// Quote or store failure: the trade stays PENDING for the caller's
		// retry policy.
		return nil, err
	}

	return result, nil
}

// GetTrades retrieves all trades of the user, newest first
func (ts *TradingService) GetTrades(ctx context.Context, userID uuid.UUID) ([]*domain.Trade, error) {
	return ts.tradeRepo.GetByUserID(ctx, userID)
}

// GetTrade retrieves one trade, scoped to the user
func (ts *TradingService) GetTrade(ctx context.Context, userID, tradeID uuid.UUID) (*domain.Trade, error) {
	trade, err := ts.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return trade, nil
}

// CreatePortfolio creates a portfolio seeded with the configured starting
// cash balance
func (ts *TradingService) CreatePortfolio(ctx context.Context, userID uuid.UUID, name string) (*domain.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Default Portfolio"
	}

	portfolio := &domain.Portfolio{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		CashBalance: ts.startingCash,
		TotalValue:  ts.startingCash,
		CreatedAt:   time.Now().UTC(),
	}

	if err := ts.portfolioRepo.Create(ctx, portfolio); err != nil {
		return nil, err
	}

	return portfolio, nil
}

// GetPortfolios retrieves all portfolios of the user
func (ts *TradingService) GetPortfolios(ctx context.Context, userID uuid.UUID) ([]*domain.Portfolio, error) {
	return ts.portfolioRepo.GetByUserID(ctx, userID)
}

// GetPositions retrieves the positions of one portfolio, scoped to the user
func (ts *TradingService) GetPositions(ctx context.Context, userID, portfolioID uuid.UUID) ([]*domain.Position, error) {
	if _, err := ts.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	return ts.positionRepo.GetByPortfolioID(ctx, portfolioID)
}

// GetPortfolioSummary revalues the portfolio and returns the refreshed
// snapshot with its performance aggregates
func (ts *TradingService) GetPortfolioSummary(ctx context.Context, userID, portfolioID uuid.UUID) (*domain.PortfolioSnapshot, error) {
	if _, err := ts.ownedPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	return ts.valuation.Revalue(ctx, portfolioID)
}

func (ts *TradingService) ownedPortfolio(ctx context.Context, userID, portfolioID uuid.UUID) (*domain.Portfolio, error) {
	portfolio, err := ts.portfolioRepo.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if portfolio.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return portfolio, nil
}
