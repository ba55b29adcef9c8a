package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Portfolio holds a user's virtual cash balance and its open positions.
// Cash and total value are only mutated by the execution engine and the
// valuation engine, inside a per-portfolio lock.
type Portfolio struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Name        string          `json:"name"`
	CashBalance decimal.Decimal `json:"cash_balance"`
	TotalValue  decimal.Decimal `json:"total_value"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// Position is an open holding in a portfolio. Quantity is always > 0: a
// position sold down to zero is deleted, not kept at zero.
type Position struct {
	ID            uuid.UUID       `json:"id"`
	PortfolioID   uuid.UUID       `json:"portfolio_id"`
	Symbol        string          `json:"symbol"`
	Quantity      int64           `json:"quantity"`
	AverageCost   decimal.Decimal `json:"average_cost"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}

// Reprice refreshes the derived fields from a new market price, keeping the
// invariants market_value == quantity * current_price and
// unrealized_pnl == (current_price - average_cost) * quantity.
func (p *Position) Reprice(price decimal.Decimal) {
	qty := decimal.NewFromInt(p.Quantity)
	p.CurrentPrice = price
	p.MarketValue = price.Mul(qty)
	p.UnrealizedPnL = price.Sub(p.AverageCost).Mul(qty)
}

// CostBasis returns average_cost * quantity.
func (p *Position) CostBasis() decimal.Decimal {
	return p.AverageCost.Mul(decimal.NewFromInt(p.Quantity))
}

// PortfolioPerformance aggregates cost/value/gain-loss across all positions
// of one portfolio.
type PortfolioPerformance struct {
	TotalCost            decimal.Decimal `json:"total_cost"`
	TotalMarketValue     decimal.Decimal `json:"total_market_value"`
	TotalGainLoss        decimal.Decimal `json:"total_gain_loss"`
	TotalGainLossPercent decimal.Decimal `json:"total_gain_loss_percent"`
}

// PortfolioSnapshot is the result of a valuation run: the repriced portfolio,
// its positions, and the derived performance aggregates.
type PortfolioSnapshot struct {
	Portfolio   *Portfolio            `json:"portfolio"`
	Positions   []*Position           `json:"positions"`
	Performance *PortfolioPerformance `json:"performance"`
}
