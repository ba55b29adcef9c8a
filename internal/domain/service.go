package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time market price for a symbol.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent string          `json:"change_percent"`
	AsOf          time.Time       `json:"as_of"`
}

// QuoteSource supplies current market prices. Implementations may cache;
// a failed or timed-out fetch surfaces as ErrQuoteUnavailable.
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}
