package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade is a buy/sell order against a portfolio. A trade is immutable once
// executed, except for the status/executed_at pair which is set atomically
// with the fill.
type Trade struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	PortfolioID  uuid.UUID       `json:"portfolio_id"`
	StrategyID   *uuid.UUID      `json:"strategy_id,omitempty"`
	Symbol       string          `json:"symbol"`
	Side         string          `json:"side"`
	Quantity     int64           `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       string          `json:"status"`
	RejectReason *string         `json:"reject_reason,omitempty"`
	ExecutedAt   *time.Time      `json:"executed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TradeSide constants
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// TradeStatus constants. REJECTED is terminal: an order bounced for
// insufficient funds/shares is never retried as submitted.
const (
	TradeStatusPending   = "PENDING"
	TradeStatusExecuted  = "EXECUTED"
	TradeStatusRejected  = "REJECTED"
	TradeStatusCancelled = "CANCELLED"
)

// Rejection reason codes recorded on terminally rejected trades.
const (
	RejectInsufficientFunds  = "INSUFFICIENT_FUNDS"
	RejectInsufficientShares = "INSUFFICIENT_SHARES"
)

// FillResult is the structured outcome of running a trade through the
// execution engine.
type FillResult struct {
	Trade       *Trade          `json:"trade"`
	Filled      bool            `json:"filled"`
	Reason      string          `json:"reason,omitempty"` // rejection reason code when not filled
	Price       decimal.Decimal `json:"price"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"` // SELL fills only: (fill - avg cost) * qty
}
