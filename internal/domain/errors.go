package domain

import "errors"

// Error taxonomy surfaced by the core. Transient failures
// (ErrQuoteUnavailable, ErrStoreUnavailable) may be retried by the caller;
// business rejections (ErrInsufficientFunds, ErrInsufficientShares) are
// terminal for the order as submitted.
var (
	ErrQuoteUnavailable   = errors.New("quote unavailable")
	ErrPriceUnavailable   = errors.New("price unavailable")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrStrategyNotActive  = errors.New("strategy not active")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrNotFound           = errors.New("not found")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrInvalidTransition  = errors.New("invalid status transition")
)
