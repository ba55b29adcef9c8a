package dto

import (
	"github.com/shopspring/decimal"
)

// CreateStrategyRequest represents the strategy creation payload
type CreateStrategyRequest struct {
	Name              string          `json:"name" validate:"required"`
	Description       string          `json:"description"`
	StrategyType      string          `json:"strategy_type" validate:"required"`
	PortfolioID       string          `json:"portfolio_id" validate:"required"`
	CapitalAllocation decimal.Decimal `json:"capital_allocation" validate:"required"`
	MaxPositionSize   float64         `json:"max_position_size"`
	WebhookSecret     *string         `json:"webhook_secret,omitempty"`
	Parameters        map[string]any  `json:"parameters,omitempty"`
}

// UpdateStrategyRequest represents the strategy update payload; omitted
// fields are left unchanged
type UpdateStrategyRequest struct {
	Name              *string          `json:"name,omitempty"`
	Description       *string          `json:"description,omitempty"`
	CapitalAllocation *decimal.Decimal `json:"capital_allocation,omitempty"`
	MaxPositionSize   *float64         `json:"max_position_size,omitempty"`
	WebhookSecret     *string          `json:"webhook_secret,omitempty"`
	Parameters        map[string]any   `json:"parameters,omitempty"`
}
