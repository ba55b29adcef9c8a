package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/service"
)

type strategyFixture struct {
	service  *StrategyService
	strategy *domain.Strategy
	ledger   *memLedger
	quotes   *fakeQuotes
	trades   *fakeTradeRepo
	execs    *fakeExecutionRepo
	repo     *fakeStrategyRepo
	userID   uuid.UUID
}

func newStrategyFixture(t *testing.T, cash string, positions ...*domain.Position) *strategyFixture {
	t.Helper()

	userID := uuid.New()
	portfolio := &domain.Portfolio{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        "Test Portfolio",
		CashBalance: decimal.RequireFromString(cash),
		TotalValue:  decimal.RequireFromString(cash),
		CreatedAt:   time.Now().UTC(),
	}
	for _, p := range positions {
		p.PortfolioID = portfolio.ID
	}

	strategy := &domain.Strategy{
		ID:                uuid.New(),
		UserID:            userID,
		PortfolioID:       portfolio.ID,
		Name:              "Test Strategy",
		StrategyType:      domain.StrategyTypeWebhook,
		Status:            domain.StrategyStatusActive,
		CapitalAllocation: decimal.NewFromInt(10000),
		MaxPositionSize:   0.1,
		TotalReturn:       decimal.Zero,
		CurrentDrawdown:   decimal.Zero,
		MaxDrawdown:       decimal.Zero,
		CreatedAt:         time.Now().UTC(),
	}

	ledger := newMemLedger(portfolio, positions...)
	quotes := &fakeQuotes{prices: make(map[string]decimal.Decimal)}
	valuation := service.NewValuationService(ledger, quotes)
	engine := service.NewExecutionEngine(ledger, quotes, valuation)

	trades := &fakeTradeRepo{}
	execs := &fakeExecutionRepo{}
	repo := newFakeStrategyRepo(strategy)

	svc := NewStrategyService(
		repo,
		execs,
		trades,
		&fakePositionRepo{ledger: ledger},
		newFakePortfolioRepo(portfolio),
		engine,
		quotes,
	)

	return &strategyFixture{
		service:  svc,
		strategy: strategy,
		ledger:   ledger,
		quotes:   quotes,
		trades:   trades,
		execs:    execs,
		repo:     repo,
		userID:   userID,
	}
}

func heldPosition(symbol string, quantity int64, avgCost string) *domain.Position {
	position := &domain.Position{
		ID:          uuid.New(),
		Symbol:      symbol,
		Quantity:    quantity,
		AverageCost: decimal.RequireFromString(avgCost),
		CreatedAt:   time.Now().UTC(),
	}
	position.Reprice(position.AverageCost)
	return position
}

func intPtr(v int64) *int64 { return &v }

func floatPtr(v float64) *float64 { return &v }

func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestHandleSignalSizesByPercentage(t *testing.T) {
	f := newStrategyFixture(t, "100000")
	f.quotes.prices["AAPL"] = decimal.RequireFromString("20")

	execution, err := f.service.HandleSignal(context.Background(), f.strategy.ID, domain.Signal{
		Action:     domain.SignalActionBuy,
		Symbol:     "AAPL",
		Percentage: floatPtr(50),
	})
	require.NoError(t, err)

	// 50% of the 10000 allocation at $20 buys 250 shares
	require.True(t, execution.Executed)
	require.EqualValues(t, 250, execution.Quantity)
	requireDecimal(t, "20", execution.Price)
	require.NotNil(t, execution.TradeID)

	require.Len(t, f.trades.trades, 1)
	trade := f.trades.trades[0]
	require.EqualValues(t, 250, trade.Quantity)
	require.Equal(t, domain.TradeStatusExecuted, trade.Status)
	require.Equal(t, f.strategy.ID, *trade.StrategyID)
}

func TestHandleSignalExplicitQuantityWins(t *testing.T) {
	f := newStrategyFixture(t, "100000")
	f.quotes.prices["AAPL"] = decimal.RequireFromString("20")

	execution, err := f.service.HandleSignal(context.Background(), f.strategy.ID, domain.Signal{
		Action:     domain.SignalActionBuy,
		Symbol:     "AAPL",
		Quantity:   intPtr(7),
		Percentage: floatPtr(50),
	})
	require.NoError(t, err)
	require.EqualValues(t, 7, execution.Quantity)
}

func TestHandleSignalDefaultsToMaxPositionSize(t *testing.T) {
	f := newStrategyFixture(t, "100000")
	f.quotes.prices["AAPL"] = decimal.RequireFromString("20")

	execution, err := f.service.HandleSignal(context.Background(), f.strategy.ID, domain.Signal{
		Action: domain.SignalActionBuy,
		Symbol: "AAPL",
	})
	require.NoError(t, err)

	// 10% of the 10000 allocation at $20 buys 50 shares
	require.EqualValues(t, 50, execution.Quantity)
}

func TestHandleSignalSizesAtLeastOneShare(t *testing.T) {
	f := newStrategyFixture(t, "100000")
	f.quotes.prices["AAPL"] = decimal.RequireFromString("5000")

	execution, err := f.service.HandleSignal(context.Background(), f.strategy.ID, domain.Signal{
		Action:     domain.SignalActionBuy,
		Symbol:     "AAPL",
		Percentage: floatPtr(1),
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, execution.Quantity)
}

func TestHandleSignalUsesSignalPriceForSizing(t *testing.T) {
	f := newStrategyFixture(t, "100000")
	// Quote would disagree; the signal's own price wins for sizing
	f.quotes.prices["AAPL"] = decimal.RequireFromString("40")

	execution, err := f.service.HandleSignal(context.Background(), f.strategy.ID, domain.Signal{
		Action:     domain.SignalActionBuy,
		Symbol:     "AAPL",
		Price:      decPtr("20"),
		Percentage: floatPtr(50),
	})
	require.NoError(t, err)
	require.EqualValues(t, 250, execution.Quantity)
	requireDecimal(t, "20", execution.Price)
}

func TestHandleSignalHoldRecordsNoTrade(t *testing.T) {
	f := newStrategyFixture(t, "100000")

	execution, err := f.service.HandleSignal(context.Background(), f.strategy.ID, domain.Signal{
		Action: domain.SignalActionHold,
		Symbol: "AAPL",
	})
	require.NoError(t, err)

	require.False(t, execution.Executed)
	require.Nil(t, execution.TradeID)
	require.Nil(t, execution.ErrorMessage)
	require.NotNil(t, execution.ExecutedAt)
	require.Empty(t, f.trades.trades)
	require.Len(t, f.execs.executions, 1)
}

func TestHandleSignalInactiveStrategy(t *testing.T) {
	f := newStrategyFixture(t, "100000")
	f.strategy.Status = domain.StrategyStatusDraft

	_, err := f.service.HandleSignal(context.Background(), f.strategy.ID, domain.Signal{
		Action: domain.SignalActionBuy,
		Symbol: "AAPL",
	})
	require.ErrorIs(t, err, domain.ErrStrategyNotActive)
	require.Empty(t, f.execs.executions)
}

func TestHandleSignalUnknownAction(t *testing.T) {
	f := newStrategyFixture(t, "100000")

	_, err := f.service.HandleSignal(context.Background(), f.strategy.ID, domain.Signal{
		Action: "SHORT",
		Symbol: "AAPL",
	})
	require.ErrorIs(t, err, domain.ErrInvalidOrder)
}

func TestHandleSignalPriceUnavailableRecordedOnExecution(t *testing.T) {
	f := newStrategyFixture(t, "100000")
	f.quotes.err = domain.ErrQuoteUnavailable

	execution, err := f.service.HandleSignal(context.Background(), f.strategy.ID, domain.Signal{
		Action: domain.SignalActionBuy,
		Symbol: "AAPL",
	})
	require.NoError(t, err)

	require.False(t, execution.Executed)
	require.NotNil(t, execution.ErrorMessage)
	require.Empty(t, f.trades.trades)
}

func TestHandleSignalRejectionRecordedOnExecution(t *testing.T) {
	f := newStrategyFixture(t, "100")
	f.quotes.prices["AAPL"] = decimal.RequireFromString("20")

	execution, err := f.service.HandleSignal(context.Background(), f.strategy.ID, domain.Signal{
		Action:   domain.SignalActionBuy,
		Symbol:   "AAPL",
		Quantity: intPtr(50),
	})
	require.NoError(t, err)

	require.False(t, execution.Executed)
	require.NotNil(t, execution.ErrorMessage)
	require.Contains(t, *execution.ErrorMessage, domain.RejectInsufficientFunds)

	// The rejected trade is recorded, and counters are untouched
	require.Len(t, f.trades.trades, 1)
	require.Equal(t, domain.TradeStatusRejected, f.trades.trades[0].Status)
	require.Zero(t, f.strategy.TotalTrades)
}

func TestHandleSignalWinningSellUpdatesCounters(t *testing.T) {
	f := newStrategyFixture(t, "1000", heldPosition("AAPL", 10, "50"))
	f.quotes.prices["AAPL"] = decimal.RequireFromString("60")

	execution, err := f.service.HandleSignal(context.Background(), f.strategy.ID, domain.Signal{
		Action:   domain.SignalActionSell,
		Symbol:   "AAPL",
		Quantity: intPtr(10),
	})
	require.NoError(t, err)
	require.True(t, execution.Executed)

	require.Equal(t, 1, f.strategy.TotalTrades)
	require.Equal(t, 1, f.strategy.WinningTrades)
	requireDecimal(t, "100", f.strategy.TotalReturn)
	requireDecimal(t, "0", f.strategy.CurrentDrawdown)
	requireDecimal(t, "0", f.strategy.MaxDrawdown)
	require.NotNil(t, f.strategy.LastExecutedAt)
}

func TestHandleSignalLosingSellTracksDrawdown(t *testing.T) {
	f := newStrategyFixture(t, "1000", heldPosition("AAPL", 10, "50"))
	f.quotes.prices["AAPL"] = decimal.RequireFromString("40")

	_, err := f.service.HandleSignal(context.Background(), f.strategy.ID, domain.Signal{
		Action:   domain.SignalActionSell,
		Symbol:   "AAPL",
		Quantity: intPtr(10),
	})
	require.NoError(t, err)

	require.Equal(t, 1, f.strategy.TotalTrades)
	require.Zero(t, f.strategy.WinningTrades)
	requireDecimal(t, "-100", f.strategy.TotalReturn)
	requireDecimal(t, "100", f.strategy.CurrentDrawdown)
	requireDecimal(t, "100", f.strategy.MaxDrawdown)
}

func TestHandleSignalBuyCountsTradeWithoutReturn(t *testing.T) {
	f := newStrategyFixture(t, "100000")
	f.quotes.prices["AAPL"] = decimal.RequireFromString("20")

	_, err := f.service.HandleSignal(context.Background(), f.strategy.ID, domain.Signal{
		Action:   domain.SignalActionBuy,
		Symbol:   "AAPL",
		Quantity: intPtr(5),
	})
	require.NoError(t, err)

	require.Equal(t, 1, f.strategy.TotalTrades)
	require.Zero(t, f.strategy.WinningTrades)
	requireDecimal(t, "0", f.strategy.TotalReturn)
}

func TestHandleUserSignalRequiresOwnership(t *testing.T) {
	f := newStrategyFixture(t, "100000")
	f.quotes.prices["AAPL"] = decimal.RequireFromString("20")

	_, err := f.service.HandleUserSignal(context.Background(), uuid.New(), f.strategy.ID, domain.Signal{
		Action: domain.SignalActionBuy,
		Symbol: "AAPL",
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChangeStatusTransitions(t *testing.T) {
	f := newStrategyFixture(t, "100000")
	f.strategy.Status = domain.StrategyStatusDraft

	strategy, err := f.service.ChangeStatus(context.Background(), f.userID, f.strategy.ID, domain.StrategyStatusActive)
	require.NoError(t, err)
	require.Equal(t, domain.StrategyStatusActive, strategy.Status)

	strategy, err = f.service.ChangeStatus(context.Background(), f.userID, f.strategy.ID, domain.StrategyStatusPaused)
	require.NoError(t, err)
	require.Equal(t, domain.StrategyStatusPaused, strategy.Status)

	strategy, err = f.service.ChangeStatus(context.Background(), f.userID, f.strategy.ID, domain.StrategyStatusStopped)
	require.NoError(t, err)
	require.Equal(t, domain.StrategyStatusStopped, strategy.Status)

	// STOPPED is terminal
	_, err = f.service.ChangeStatus(context.Background(), f.userID, f.strategy.ID, domain.StrategyStatusActive)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestChangeStatusInvalidTransition(t *testing.T) {
	f := newStrategyFixture(t, "100000")
	f.strategy.Status = domain.StrategyStatusDraft

	_, err := f.service.ChangeStatus(context.Background(), f.userID, f.strategy.ID, domain.StrategyStatusPaused)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCreateStrategyRequiresOwnedPortfolio(t *testing.T) {
	f := newStrategyFixture(t, "100000")

	_, err := f.service.CreateStrategy(context.Background(), uuid.New(), CreateStrategyInput{
		Name:              "Other User",
		StrategyType:      domain.StrategyTypeManual,
		PortfolioID:       f.strategy.PortfolioID,
		CapitalAllocation: decimal.NewFromInt(1000),
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateStrategyStartsInDraft(t *testing.T) {
	f := newStrategyFixture(t, "100000")

	strategy, err := f.service.CreateStrategy(context.Background(), f.userID, CreateStrategyInput{
		Name:              "Momentum",
		StrategyType:      domain.StrategyTypeAlgorithmic,
		PortfolioID:       f.strategy.PortfolioID,
		CapitalAllocation: decimal.NewFromInt(5000),
		MaxPositionSize:   0.25,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StrategyStatusDraft, strategy.Status)
	require.Equal(t, 0.25, strategy.MaxPositionSize)
}

func TestGetPerformanceAggregates(t *testing.T) {
	f := newStrategyFixture(t, "1000", heldPosition("AAPL", 10, "50"))
	f.quotes.prices["AAPL"] = decimal.RequireFromString("60")

	_, err := f.service.HandleSignal(context.Background(), f.strategy.ID, domain.Signal{
		Action:   domain.SignalActionSell,
		Symbol:   "AAPL",
		Quantity: intPtr(10),
	})
	require.NoError(t, err)

	perf, err := f.service.GetPerformance(context.Background(), f.userID, f.strategy.ID)
	require.NoError(t, err)

	require.Equal(t, 1, perf.TotalTrades)
	require.Equal(t, 1, perf.WinningTrades)
	requireDecimal(t, "100", perf.WinRate)
	requireDecimal(t, "100", perf.TotalReturn)
	requireDecimal(t, "100", perf.AverageWin)
	requireDecimal(t, "1", perf.TotalReturnPercent)
	require.Len(t, perf.RecentTrades, 1)
}

func TestEvaluateThresholdRuleBuysBelow(t *testing.T) {
	f := newStrategyFixture(t, "100000")
	f.strategy.StrategyType = domain.StrategyTypeAlgorithmic
	f.strategy.Parameters = map[string]any{
		"symbol":     "AAPL",
		"buy_below":  float64(100),
		"sell_above": float64(200),
	}
	f.quotes.prices["AAPL"] = decimal.RequireFromString("90")

	f.service.EvaluateAlgorithmicStrategies(context.Background())

	require.Len(t, f.trades.trades, 1)
	require.Equal(t, domain.SideBuy, f.trades.trades[0].Side)
	require.Equal(t, domain.TradeStatusExecuted, f.trades.trades[0].Status)
}

func TestEvaluateThresholdRuleEntersOnce(t *testing.T) {
	f := newStrategyFixture(t, "100000", heldPosition("AAPL", 10, "90"))
	f.strategy.StrategyType = domain.StrategyTypeAlgorithmic
	f.strategy.Parameters = map[string]any{
		"symbol":    "AAPL",
		"buy_below": float64(100),
	}
	f.quotes.prices["AAPL"] = decimal.RequireFromString("90")

	f.service.EvaluateAlgorithmicStrategies(context.Background())

	require.Empty(t, f.trades.trades)
}

func TestEvaluateThresholdRuleSellsAboveWholePosition(t *testing.T) {
	f := newStrategyFixture(t, "1000", heldPosition("AAPL", 10, "150"))
	f.strategy.StrategyType = domain.StrategyTypeAlgorithmic
	f.strategy.Parameters = map[string]any{
		"symbol":     "AAPL",
		"buy_below":  float64(100),
		"sell_above": float64(200),
	}
	f.quotes.prices["AAPL"] = decimal.RequireFromString("210")

	f.service.EvaluateAlgorithmicStrategies(context.Background())

	require.Len(t, f.trades.trades, 1)
	trade := f.trades.trades[0]
	require.Equal(t, domain.SideSell, trade.Side)
	require.EqualValues(t, 10, trade.Quantity)
	require.Equal(t, domain.TradeStatusExecuted, trade.Status)
}

func TestEvaluateSkipsStrategiesWithoutSymbol(t *testing.T) {
	f := newStrategyFixture(t, "100000")
	f.strategy.StrategyType = domain.StrategyTypeAlgorithmic
	f.strategy.Parameters = map[string]any{"buy_below": float64(100)}

	f.service.EvaluateAlgorithmicStrategies(context.Background())

	require.Empty(t, f.trades.trades)
}
