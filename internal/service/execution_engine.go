package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
)

// ExecutionEngine fills pending trades against the current market price,
// mutating cash and position state inside a per-portfolio atomic section.
// It owns the accounting invariants: cash never goes negative, positions
// never go negative, and average cost is the weighted average of the buys
// that built the current quantity.
type ExecutionEngine struct {
	ledger    domain.Ledger
	quotes    domain.QuoteSource
	valuation *ValuationService
}

// NewExecutionEngine creates a new ExecutionEngine
func NewExecutionEngine(ledger domain.Ledger, quotes domain.QuoteSource, valuation *ValuationService) *ExecutionEngine {
	return &ExecutionEngine{
		ledger:    ledger,
		quotes:    quotes,
		valuation: valuation,
	}
}

// Execute runs one pending trade to a terminal outcome. Business rejections
// (insufficient funds/shares) return a non-filled FillResult with the trade
// marked REJECTED; a missing quote returns ErrQuoteUnavailable and leaves
// the trade PENDING for the caller's retry policy to decide.
func (e *ExecutionEngine) Execute(ctx context.Context, trade *domain.Trade) (*domain.FillResult, error) {
	if trade.Status != domain.TradeStatusPending {
		return nil, fmt.Errorf("trade %s has status %s, want PENDING: %w", trade.ID, trade.Status, domain.ErrInvalidOrder)
	}
	if trade.Quantity <= 0 {
		return nil, fmt.Errorf("trade %s has non-positive quantity %d: %w", trade.ID, trade.Quantity, domain.ErrInvalidOrder)
	}
	if trade.Side != domain.SideBuy && trade.Side != domain.SideSell {
		return nil, fmt.Errorf("trade %s has unknown side %q: %w", trade.ID, trade.Side, domain.ErrInvalidOrder)
	}

	quote, err := e.quotes.GetQuote(ctx, trade.Symbol)
	if err != nil {
		return nil, fmt.Errorf("cannot price trade %s: %w", trade.ID, err)
	}

	result := &domain.FillResult{
		Trade: trade,
		Price: quote.Price,
	}

	err = e.ledger.WithPortfolioLock(ctx, trade.PortfolioID, func(tx domain.LedgerTx) error {
		portfolio, err := tx.GetPortfolio(ctx, trade.PortfolioID)
		if err != nil {
			return err
		}

		if trade.Side == domain.SideBuy {
			return e.applyBuy(ctx, tx, portfolio, trade, quote.Price, result)
		}
		return e.applySell(ctx, tx, portfolio, trade, quote.Price, result)
	})
	if err != nil {
		return nil, err
	}

	if result.Filled {
		// Refresh valuation before returning so the caller's next summary
		// read reflects this fill.
		if _, err := e.valuation.Revalue(ctx, trade.PortfolioID); err != nil {
			log.Printf("WARNING: post-fill revaluation failed for portfolio %s: %v", trade.PortfolioID, err)
		}
	}

	return result, nil
}

func (e *ExecutionEngine) applyBuy(ctx context.Context, tx domain.LedgerTx, portfolio *domain.Portfolio, trade *domain.Trade, price decimal.Decimal, result *domain.FillResult) error {
	qty := decimal.NewFromInt(trade.Quantity)
	required := price.Mul(qty)

	if portfolio.CashBalance.LessThan(required) {
		return e.reject(ctx, tx, trade, domain.RejectInsufficientFunds, result)
	}

	position, err := tx.GetPosition(ctx, trade.PortfolioID, trade.Symbol)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		position = &domain.Position{
			ID:          uuid.New(),
			PortfolioID: trade.PortfolioID,
			Symbol:      trade.Symbol,
			Quantity:    trade.Quantity,
			AverageCost: price,
			CreatedAt:   time.Now().UTC(),
		}
	case err != nil:
		return err
	default:
		oldQty := decimal.NewFromInt(position.Quantity)
		newQty := position.Quantity + trade.Quantity
		position.AverageCost = position.AverageCost.Mul(oldQty).Add(required).Div(decimal.NewFromInt(newQty))
		position.Quantity = newQty
	}
	position.Reprice(price)

	if err := tx.UpsertPosition(ctx, position); err != nil {
		return err
	}

	newCash := portfolio.CashBalance.Sub(required)
	if err := e.settle(ctx, tx, trade, newCash, result); err != nil {
		return err
	}

	return nil
}

func (e *ExecutionEngine) applySell(ctx context.Context, tx domain.LedgerTx, portfolio *domain.Portfolio, trade *domain.Trade, price decimal.Decimal, result *domain.FillResult) error {
	position, err := tx.GetPosition(ctx, trade.PortfolioID, trade.Symbol)
	if errors.Is(err, domain.ErrNotFound) {
		return e.reject(ctx, tx, trade, domain.RejectInsufficientShares, result)
	}
	if err != nil {
		return err
	}
	if position.Quantity < trade.Quantity {
		return e.reject(ctx, tx, trade, domain.RejectInsufficientShares, result)
	}

	qty := decimal.NewFromInt(trade.Quantity)
	proceeds := price.Mul(qty)
	result.RealizedPnL = price.Sub(position.AverageCost).Mul(qty)

	remaining := position.Quantity - trade.Quantity
	if remaining == 0 {
		if err := tx.DeletePosition(ctx, position.ID); err != nil {
			return err
		}
	} else {
		// Selling never changes cost basis, only quantity and the derived
		// market fields.
		position.Quantity = remaining
		position.Reprice(price)
		if err := tx.UpsertPosition(ctx, position); err != nil {
			return err
		}
	}

	newCash := portfolio.CashBalance.Add(proceeds)
	if err := e.settle(ctx, tx, trade, newCash, result); err != nil {
		return err
	}

	return nil
}

// settle recomputes portfolio totals from the mutated position set, marks
// the trade executed, and records the outcome on the result. Runs inside
// the portfolio lock.
func (e *ExecutionEngine) settle(ctx context.Context, tx domain.LedgerTx, trade *domain.Trade, newCash decimal.Decimal, result *domain.FillResult) error {
	positions, err := tx.GetPositions(ctx, trade.PortfolioID)
	if err != nil {
		return err
	}

	total := newCash
	for _, position := range positions {
		total = total.Add(position.MarketValue)
	}

	if err := tx.UpdatePortfolioBalances(ctx, trade.PortfolioID, newCash, total); err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := tx.UpdateTradeStatus(ctx, trade.ID, domain.TradeStatusExecuted, nil, &now); err != nil {
		return err
	}

	trade.Status = domain.TradeStatusExecuted
	trade.ExecutedAt = &now
	result.Filled = true

	return nil
}

// reject marks the trade terminally rejected. The rejection itself is the
// only write that commits; cash and positions are untouched.
func (e *ExecutionEngine) reject(ctx context.Context, tx domain.LedgerTx, trade *domain.Trade, reason string, result *domain.FillResult) error {
	if err := tx.UpdateTradeStatus(ctx, trade.ID, domain.TradeStatusRejected, &reason, nil); err != nil {
		return err
	}

	trade.Status = domain.TradeStatusRejected
	trade.RejectReason = &reason
	result.Filled = false
	result.Reason = reason

	log.Printf("Trade %s rejected: %s %d %s @ %s (%s)",
		trade.ID, trade.Side, trade.Quantity, trade.Symbol, result.Price, reason)

	return nil
}
