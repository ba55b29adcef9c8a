package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Strategy is a rule set that emits trading signals against one portfolio.
// Capital allocation is a ring-fenced notional budget for position sizing,
// not escrowed cash.
type Strategy struct {
	ID                uuid.UUID       `json:"id"`
	UserID            uuid.UUID       `json:"user_id"`
	PortfolioID       uuid.UUID       `json:"portfolio_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	StrategyType      string          `json:"strategy_type"`
	Status            string          `json:"status"`
	CapitalAllocation decimal.Decimal `json:"capital_allocation"`
	MaxPositionSize   float64         `json:"max_position_size"` // fraction of allocation per symbol
	WebhookSecret     *string         `json:"-"`                 // never exposed in API responses
	Parameters        map[string]any  `json:"parameters"`

	// Performance counters, updated only by the signal translator after each
	// order outcome.
	TotalTrades     int             `json:"total_trades"`
	WinningTrades   int             `json:"winning_trades"`
	TotalReturn     decimal.Decimal `json:"total_return"`
	CurrentDrawdown decimal.Decimal `json:"current_drawdown"`
	MaxDrawdown     decimal.Decimal `json:"max_drawdown"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	LastExecutedAt *time.Time `json:"last_executed_at,omitempty"`
}

// StrategyType constants
const (
	StrategyTypeManual      = "MANUAL"
	StrategyTypeAlgorithmic = "ALGORITHMIC"
	StrategyTypeWebhook     = "WEBHOOK"
)

// StrategyStatus constants
const (
	StrategyStatusDraft   = "DRAFT"
	StrategyStatusActive  = "ACTIVE"
	StrategyStatusPaused  = "PAUSED"
	StrategyStatusStopped = "STOPPED"
)

// CanTransitionTo reports whether the lifecycle allows moving to the target
// status: DRAFT -> ACTIVE, ACTIVE <-> PAUSED, anything -> STOPPED. STOPPED is
// terminal.
func (s *Strategy) CanTransitionTo(target string) bool {
	if s.Status == StrategyStatusStopped {
		return false
	}
	switch target {
	case StrategyStatusStopped:
		return true
	case StrategyStatusActive:
		return s.Status == StrategyStatusDraft || s.Status == StrategyStatusPaused
	case StrategyStatusPaused:
		return s.Status == StrategyStatusActive
	default:
		return false
	}
}

// Signal actions
const (
	SignalActionBuy  = "BUY"
	SignalActionSell = "SELL"
	SignalActionHold = "HOLD"
)

// Signal is one instruction emitted by a strategy (manually, on a schedule,
// or via webhook). The known fields are typed; anything else the emitter
// wants to attach rides in the opaque Metadata map.
type Signal struct {
	Action         string           `json:"action"`
	Symbol         string           `json:"symbol"`
	Quantity       *int64           `json:"quantity,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Percentage     *float64         `json:"percentage,omitempty"` // position size as % of allocated capital
	SignalStrength float64          `json:"signal_strength"`
	Metadata       map[string]any   `json:"metadata,omitempty"`
	Timestamp      *time.Time       `json:"timestamp,omitempty"`
}

// StrategyExecution records the outcome of one received signal. It is
// immutable after creation except for the executed/trade-id/error/timestamp
// fields, stamped once when the derived order resolves.
type StrategyExecution struct {
	ID             uuid.UUID       `json:"id"`
	StrategyID     uuid.UUID       `json:"strategy_id"`
	SignalType     string          `json:"signal_type"`
	Symbol         string          `json:"symbol"`
	Quantity       int64           `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	SignalStrength float64         `json:"signal_strength"`
	SignalData     map[string]any  `json:"signal_data"`
	Executed       bool            `json:"executed"`
	TradeID        *uuid.UUID      `json:"trade_id,omitempty"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
	SignalTime     time.Time       `json:"signal_timestamp"`
	ExecutedAt     *time.Time      `json:"executed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
