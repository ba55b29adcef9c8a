package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/service"
)

var oneHundred = decimal.NewFromInt(100)

// StrategyService owns the strategy lifecycle and translates incoming
// signals into orders. Signals from every source (manual trigger, webhook,
// scheduler) converge on HandleSignal, so sizing and accounting behave the
// same regardless of where a signal originated.
type StrategyService struct {
	strategyRepo  domain.StrategyRepository
	executionRepo domain.StrategyExecutionRepository
	tradeRepo     domain.TradeRepository
	positionRepo  domain.PositionRepository
	portfolioRepo domain.PortfolioRepository
	engine        *service.ExecutionEngine
	quotes        domain.QuoteSource
}

// NewStrategyService creates a new StrategyService
func NewStrategyService(
	strategyRepo domain.StrategyRepository,
	executionRepo domain.StrategyExecutionRepository,
	tradeRepo domain.TradeRepository,
	positionRepo domain.PositionRepository,
	portfolioRepo domain.PortfolioRepository,
	engine *service.ExecutionEngine,
	quotes domain.QuoteSource,
) *StrategyService {
	return &StrategyService{
		strategyRepo:  strategyRepo,
		executionRepo: executionRepo,
		tradeRepo:     tradeRepo,
		positionRepo:  positionRepo,
		portfolioRepo: portfolioRepo,
		engine:        engine,
		quotes:        quotes,
	}
}

// CreateStrategyInput carries a strategy creation request
type CreateStrategyInput struct {
	Name              string
	Description       string
	StrategyType      string
	PortfolioID       uuid.UUID
	CapitalAllocation decimal.Decimal
	MaxPositionSize   float64
	WebhookSecret     *string
	Parameters        map[string]any
}

// UpdateStrategyInput carries mutable strategy fields; nil means unchanged
type UpdateStrategyInput struct {
	Name              *string
	Description       *string
	CapitalAllocation *decimal.Decimal
	MaxPositionSize   *float64
	WebhookSecret     *string
	Parameters        map[string]any
}

// CreateStrategy creates a strategy in DRAFT against a portfolio the user owns
func (s *StrategyService) CreateStrategy(ctx context.Context, userID uuid.UUID, input CreateStrategyInput) (*domain.Strategy, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("strategy name is required: %w", domain.ErrInvalidOrder)
	}
	switch input.StrategyType {
	case domain.StrategyTypeManual, domain.StrategyTypeAlgorithmic, domain.StrategyTypeWebhook:
	default:
		return nil, fmt.Errorf("unknown strategy type %q: %w", input.StrategyType, domain.ErrInvalidOrder)
	}
	if input.CapitalAllocation.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("capital allocation must be positive: %w", domain.ErrInvalidOrder)
	}
	if input.MaxPositionSize <= 0 || input.MaxPositionSize > 1 {
		input.MaxPositionSize = 0.1
	}
	if input.Parameters == nil {
		input.Parameters = map[string]any{}
	}

	portfolio, err := s.portfolioRepo.GetByID(ctx, input.PortfolioID)
	if err != nil {
		return nil, err
	}
	if portfolio.UserID != userID {
		return nil, domain.ErrNotFound
	}

	strategy := &domain.Strategy{
		ID:                uuid.New(),
		UserID:            userID,
		PortfolioID:       input.PortfolioID,
		Name:              strings.TrimSpace(input.Name),
		Description:       input.Description,
		StrategyType:      input.StrategyType,
		Status:            domain.StrategyStatusDraft,
		CapitalAllocation: input.CapitalAllocation,
		MaxPositionSize:   input.MaxPositionSize,
		WebhookSecret:     input.WebhookSecret,
		Parameters:        input.Parameters,
		TotalReturn:       decimal.Zero,
		CurrentDrawdown:   decimal.Zero,
		MaxDrawdown:       decimal.Zero,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.strategyRepo.Create(ctx, strategy); err != nil {
		return nil, err
	}

	return strategy, nil
}

// GetStrategy retrieves one strategy, scoped to the user
func (s *StrategyService) GetStrategy(ctx context.Context, userID, strategyID uuid.UUID) (*domain.Strategy, error) {
	return s.strategyRepo.GetByIDForUser(ctx, userID, strategyID)
}

// GetStrategies retrieves all strategies of the user
func (s *StrategyService) GetStrategies(ctx context.Context, userID uuid.UUID) ([]*domain.Strategy, error) {
	return s.strategyRepo.GetByUserID(ctx, userID)
}

// UpdateStrategy applies partial updates to a strategy the user owns.
// Status is not touched here; lifecycle changes go through ChangeStatus.
func (s *StrategyService) UpdateStrategy(ctx context.Context, userID, strategyID uuid.UUID, input UpdateStrategyInput) (*domain.Strategy, error) {
	strategy, err := s.strategyRepo.GetByIDForUser(ctx, userID, strategyID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		strategy.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		strategy.Description = *input.Description
	}
	if input.CapitalAllocation != nil && input.CapitalAllocation.GreaterThan(decimal.Zero) {
		strategy.CapitalAllocation = *input.CapitalAllocation
	}
	if input.MaxPositionSize != nil && *input.MaxPositionSize > 0 && *input.MaxPositionSize <= 1 {
		strategy.MaxPositionSize = *input.MaxPositionSize
	}
	if input.WebhookSecret != nil {
		strategy.WebhookSecret = input.WebhookSecret
	}
	if input.Parameters != nil {
		strategy.Parameters = input.Parameters
	}

	if err := s.strategyRepo.Update(ctx, strategy); err != nil {
		return nil, err
	}

	return strategy, nil
}

// ChangeStatus moves a strategy through its lifecycle, enforcing the
// allowed transitions
func (s *StrategyService) ChangeStatus(ctx context.Context, userID, strategyID uuid.UUID, target string) (*domain.Strategy, error) {
	strategy, err := s.strategyRepo.GetByIDForUser(ctx, userID, strategyID)
	if err != nil {
		return nil, err
	}

	if strategy.Status == target {
		return strategy, nil
	}
	if !strategy.CanTransitionTo(target) {
		return nil, fmt.Errorf("cannot move strategy from %s to %s: %w", strategy.Status, target, domain.ErrInvalidTransition)
	}

	strategy.Status = target
	if err := s.strategyRepo.Update(ctx, strategy); err != nil {
		return nil, err
	}

	return strategy, nil
}

// DeleteStrategy removes a strategy the user owns
func (s *StrategyService) DeleteStrategy(ctx context.Context, userID, strategyID uuid.UUID) error {
	return s.strategyRepo.Delete(ctx, userID, strategyID)
}

// HandleUserSignal processes a manually triggered signal after verifying
// the caller owns the strategy
func (s *StrategyService) HandleUserSignal(ctx context.Context, userID, strategyID uuid.UUID, signal domain.Signal) (*domain.StrategyExecution, error) {
	if _, err := s.strategyRepo.GetByIDForUser(ctx, userID, strategyID); err != nil {
		return nil, err
	}
	return s.HandleSignal(ctx, strategyID, signal)
}

// HandleSignal is the single entry point for signals from all sources. It
// records an execution row for every signal received against an ACTIVE
// strategy, translates BUY/SELL signals into an order, runs it through the
// execution engine, and stamps the outcome back onto the row. Translation
// failures (no price, rejection) are captured on the execution record, not
// returned as errors; only infrastructure failures propagate.
func (s *StrategyService) HandleSignal(ctx context.Context, strategyID uuid.UUID, signal domain.Signal) (*domain.StrategyExecution, error) {
	strategy, err := s.strategyRepo.GetByID(ctx, strategyID)
	if err != nil {
		return nil, err
	}
	if strategy.Status != domain.StrategyStatusActive {
		return nil, fmt.Errorf("strategy %s has status %s: %w", strategy.ID, strategy.Status, domain.ErrStrategyNotActive)
	}

	switch signal.Action {
	case domain.SignalActionBuy, domain.SignalActionSell, domain.SignalActionHold:
	default:
		return nil, fmt.Errorf("unknown signal action %q: %w", signal.Action, domain.ErrInvalidOrder)
	}

	symbol := strings.ToUpper(strings.TrimSpace(signal.Symbol))
	if symbol == "" && signal.Action != domain.SignalActionHold {
		return nil, fmt.Errorf("signal symbol is required: %w", domain.ErrInvalidOrder)
	}

	now := time.Now().UTC()
	signalTime := now
	if signal.Timestamp != nil {
		signalTime = *signal.Timestamp
	}
	strength := signal.SignalStrength
	if strength <= 0 || strength > 1 {
		strength = 1
	}
	if signal.Metadata == nil {
		signal.Metadata = map[string]any{}
	}

	execution := &domain.StrategyExecution{
		ID:             uuid.New(),
		StrategyID:     strategy.ID,
		SignalType:     signal.Action,
		Symbol:         symbol,
		SignalStrength: strength,
		SignalData:     signal.Metadata,
		SignalTime:     signalTime,
		CreatedAt:      now,
	}
	if err := s.executionRepo.Save(ctx, execution); err != nil {
		return nil, err
	}

	if signal.Action == domain.SignalActionHold {
		return s.resolve(ctx, execution, nil)
	}

	price, err := s.resolvePrice(ctx, symbol, signal)
	if err != nil {
		return s.resolve(ctx, execution, err)
	}

	quantity := resolveQuantity(strategy, signal, price)
	execution.Quantity = quantity
	execution.Price = price

	trade := &domain.Trade{
		ID:          uuid.New(),
		UserID:      strategy.UserID,
		PortfolioID: strategy.PortfolioID,
		StrategyID:  &strategy.ID,
		Symbol:      symbol,
		Side:        signal.Action,
		Quantity:    quantity,
		Price:       price,
		TotalAmount: price.Mul(decimal.NewFromInt(quantity)),
		Status:      domain.TradeStatusPending,
		CreatedAt:   now,
	}
	if err := s.tradeRepo.Save(ctx, trade); err != nil {
		return nil, err
	}
	execution.TradeID = &trade.ID

	result, err := s.engine.Execute(ctx, trade)
	if err != nil {
		return s.resolve(ctx, execution, err)
	}

	if !result.Filled {
		return s.resolve(ctx, execution, fmt.Errorf("trade rejected: %s", result.Reason))
	}

	execution.Executed = true
	if _, err := s.resolve(ctx, execution, nil); err != nil {
		return nil, err
	}

	if err := s.recordOutcome(ctx, strategy, trade, result); err != nil {
		log.Printf("WARNING: failed to update metrics for strategy %s: %v", strategy.ID, err)
	}

	return execution, nil
}

// GetExecutions retrieves the execution history of a strategy the user owns
func (s *StrategyService) GetExecutions(ctx context.Context, userID, strategyID uuid.UUID, limit int) ([]*domain.StrategyExecution, error) {
	if _, err := s.strategyRepo.GetByIDForUser(ctx, userID, strategyID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.executionRepo.GetByStrategyID(ctx, strategyID, limit)
}

// StrategyPerformance aggregates the counters a strategy accumulates as its
// signals resolve
type StrategyPerformance struct {
	StrategyID         uuid.UUID       `json:"strategy_id"`
	Name               string          `json:"name"`
	Status             string          `json:"status"`
	TotalTrades        int             `json:"total_trades"`
	WinningTrades      int             `json:"winning_trades"`
	LosingTrades       int             `json:"losing_trades"`
	WinRate            decimal.Decimal `json:"win_rate"`
	TotalReturn        decimal.Decimal `json:"total_return"`
	TotalReturnPercent decimal.Decimal `json:"total_return_percent"`
	AverageWin         decimal.Decimal `json:"average_win"`
	CurrentDrawdown    decimal.Decimal `json:"current_drawdown"`
	MaxDrawdown        decimal.Decimal `json:"max_drawdown"`
	LastExecutedAt     *time.Time      `json:"last_executed_at,omitempty"`
	RecentTrades       []*domain.Trade `json:"recent_trades"`
}

// GetPerformance builds the performance report for a strategy the user owns
func (s *StrategyService) GetPerformance(ctx context.Context, userID, strategyID uuid.UUID) (*StrategyPerformance, error) {
	strategy, err := s.strategyRepo.GetByIDForUser(ctx, userID, strategyID)
	if err != nil {
		return nil, err
	}

	recent, err := s.tradeRepo.GetByStrategyID(ctx, strategyID, 10)
	if err != nil {
		return nil, err
	}

	perf := &StrategyPerformance{
		StrategyID:      strategy.ID,
		Name:            strategy.Name,
		Status:          strategy.Status,
		TotalTrades:     strategy.TotalTrades,
		WinningTrades:   strategy.WinningTrades,
		LosingTrades:    strategy.TotalTrades - strategy.WinningTrades,
		WinRate:         decimal.Zero,
		TotalReturn:     strategy.TotalReturn,
		CurrentDrawdown: strategy.CurrentDrawdown,
		MaxDrawdown:     strategy.MaxDrawdown,
		AverageWin:      decimal.Zero,
		LastExecutedAt:  strategy.LastExecutedAt,
		RecentTrades:    recent,
	}

	if strategy.TotalTrades > 0 {
		perf.WinRate = decimal.NewFromInt(int64(strategy.WinningTrades)).
			Div(decimal.NewFromInt(int64(strategy.TotalTrades))).
			Mul(oneHundred).Round(2)
	}
	if strategy.WinningTrades > 0 && strategy.TotalReturn.GreaterThan(decimal.Zero) {
		perf.AverageWin = strategy.TotalReturn.Div(decimal.NewFromInt(int64(strategy.WinningTrades))).Round(2)
	}
	if strategy.CapitalAllocation.GreaterThan(decimal.Zero) {
		perf.TotalReturnPercent = strategy.TotalReturn.Div(strategy.CapitalAllocation).Mul(oneHundred).Round(2)
	}

	return perf, nil
}

// resolvePrice picks the execution reference price: the signal's own price
// when present, otherwise the current market quote.
func (s *StrategyService) resolvePrice(ctx context.Context, symbol string, signal domain.Signal) (decimal.Decimal, error) {
	if signal.Price != nil && signal.Price.GreaterThan(decimal.Zero) {
		return *signal.Price, nil
	}

	quote, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("no price for %s: %w", symbol, domain.ErrPriceUnavailable)
	}

	return quote.Price, nil
}

// resolveQuantity sizes the order: an explicit quantity wins, then a
// percentage of the allocated capital, then the strategy's max position
// size as the default. Sized quantities floor to whole shares with a
// minimum of one.
func resolveQuantity(strategy *domain.Strategy, signal domain.Signal, price decimal.Decimal) int64 {
	if signal.Quantity != nil && *signal.Quantity > 0 {
		return *signal.Quantity
	}

	fraction := strategy.MaxPositionSize
	if signal.Percentage != nil && *signal.Percentage > 0 {
		fraction = *signal.Percentage / 100
	}

	budget := strategy.CapitalAllocation.Mul(decimal.NewFromFloat(fraction))
	quantity := budget.Div(price).IntPart()
	if quantity < 1 {
		quantity = 1
	}

	return quantity
}

// resolve stamps the outcome fields onto the execution row exactly once.
// A translation failure is carried in the row's error message and the
// execution is still returned to the caller.
func (s *StrategyService) resolve(ctx context.Context, execution *domain.StrategyExecution, cause error) (*domain.StrategyExecution, error) {
	now := time.Now().UTC()
	execution.ExecutedAt = &now
	if cause != nil {
		message := cause.Error()
		execution.ErrorMessage = &message
	}

	if err := s.executionRepo.Resolve(ctx, execution); err != nil {
		return nil, err
	}

	return execution, nil
}

// recordOutcome folds one filled trade into the strategy's performance
// counters. Realized P&L exists only on sells; the drawdown accumulator
// grows with realized losses and recovers with realized gains, and the max
// drawdown keeps the high-water mark of that accumulator.
func (s *StrategyService) recordOutcome(ctx context.Context, strategy *domain.Strategy, trade *domain.Trade, result *domain.FillResult) error {
	now := time.Now().UTC()
	strategy.TotalTrades++
	strategy.LastExecutedAt = &now

	if trade.Side == domain.SideSell {
		realized := result.RealizedPnL
		strategy.TotalReturn = strategy.TotalReturn.Add(realized)

		if realized.GreaterThan(decimal.Zero) {
			strategy.WinningTrades++
			strategy.CurrentDrawdown = decimal.Max(decimal.Zero, strategy.CurrentDrawdown.Sub(realized))
		} else {
			strategy.CurrentDrawdown = strategy.CurrentDrawdown.Add(realized.Neg())
			if strategy.CurrentDrawdown.GreaterThan(strategy.MaxDrawdown) {
				strategy.MaxDrawdown = strategy.CurrentDrawdown
			}
		}
	}

	return s.strategyRepo.UpdateMetrics(ctx, strategy)
}

// EvaluateAlgorithmicStrategies runs one scheduler pass over every ACTIVE
// algorithmic strategy. Failures are logged per strategy so one broken
// strategy cannot starve the rest of the sweep.
func (s *StrategyService) EvaluateAlgorithmicStrategies(ctx context.Context) {
	strategies, err := s.strategyRepo.GetActiveByType(ctx, domain.StrategyTypeAlgorithmic)
	if err != nil {
		log.Printf("ERROR: failed to list algorithmic strategies: %v", err)
		return
	}

	for _, strategy := range strategies {
		if err := s.evaluateThresholdRule(ctx, strategy); err != nil {
			log.Printf("ERROR: evaluation failed for strategy %s (%s): %v", strategy.Name, strategy.ID, err)
		}
	}
}

// evaluateThresholdRule implements the built-in price threshold rule:
// enter when the price drops to buy_below and no position is open, exit
// the whole position when the price reaches sell_above.
func (s *StrategyService) evaluateThresholdRule(ctx context.Context, strategy *domain.Strategy) error {
	symbol, _ := strategy.Parameters["symbol"].(string)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil
	}

	quote, err := s.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return err
	}
	price := quote.Price

	if buyBelow, ok := paramDecimal(strategy.Parameters, "buy_below"); ok && price.LessThanOrEqual(buyBelow) {
		_, err := s.positionRepo.GetBySymbol(ctx, strategy.PortfolioID, symbol)
		if err == nil {
			// Already holding, the rule enters at most once.
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		_, err = s.HandleSignal(ctx, strategy.ID, domain.Signal{
			Action:   domain.SignalActionBuy,
			Symbol:   symbol,
			Price:    &price,
			Metadata: map[string]any{"source": "scheduler", "rule": "buy_below"},
		})
		return err
	}

	if sellAbove, ok := paramDecimal(strategy.Parameters, "sell_above"); ok && price.GreaterThanOrEqual(sellAbove) {
		position, err := s.positionRepo.GetBySymbol(ctx, strategy.PortfolioID, symbol)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		quantity := position.Quantity
		_, err = s.HandleSignal(ctx, strategy.ID, domain.Signal{
			Action:   domain.SignalActionSell,
			Symbol:   symbol,
			Quantity: &quantity,
			Price:    &price,
			Metadata: map[string]any{"source": "scheduler", "rule": "sell_above"},
		})
		return err
	}

	return nil
}

// paramDecimal reads a numeric threshold from the parameters bag. JSONB
// numbers come back as float64; strings are accepted for callers that quote
// their numbers.
func paramDecimal(params map[string]any, key string) (decimal.Decimal, bool) {
	raw, ok := params[key]
	if !ok {
		return decimal.Zero, false
	}

	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}
