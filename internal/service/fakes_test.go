package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
)

// fakeQuotes serves quotes from a fixed price table.
type fakeQuotes struct {
	prices map[string]decimal.Decimal
	err    error
	calls  int
}

func (q *fakeQuotes) GetQuote(_ context.Context, symbol string) (*domain.Quote, error) {
	q.calls++
	if q.err != nil {
		return nil, q.err
	}
	price, ok := q.prices[symbol]
	if !ok {
		return nil, domain.ErrQuoteUnavailable
	}
	return &domain.Quote{Symbol: symbol, Price: price, AsOf: time.Now().UTC()}, nil
}

type tradeStatusUpdate struct {
	status       string
	rejectReason *string
	executedAt   *time.Time
}

// fakeLedger is an in-memory Ledger over a single portfolio. Each locked
// section runs against a copy of the state and commits it back only when
// the callback succeeds, mirroring the transactional contract.
type fakeLedger struct {
	portfolio    *domain.Portfolio
	positions    map[string]*domain.Position
	tradeUpdates map[uuid.UUID]tradeStatusUpdate
	lockCount    int
}

func newFakeLedger(portfolio *domain.Portfolio, positions ...*domain.Position) *fakeLedger {
	bySymbol := make(map[string]*domain.Position)
	for _, p := range positions {
		bySymbol[p.Symbol] = p
	}
	return &fakeLedger{
		portfolio:    portfolio,
		positions:    bySymbol,
		tradeUpdates: make(map[uuid.UUID]tradeStatusUpdate),
	}
}

func (l *fakeLedger) WithPortfolioLock(_ context.Context, portfolioID uuid.UUID, fn func(tx domain.LedgerTx) error) error {
	if l.portfolio == nil || l.portfolio.ID != portfolioID {
		return domain.ErrNotFound
	}
	l.lockCount++

	portfolioCopy := *l.portfolio
	positionsCopy := make(map[string]*domain.Position, len(l.positions))
	for symbol, p := range l.positions {
		copied := *p
		positionsCopy[symbol] = &copied
	}

	tx := &fakeLedgerTx{
		portfolio:    &portfolioCopy,
		positions:    positionsCopy,
		tradeUpdates: make(map[uuid.UUID]tradeStatusUpdate),
	}

	if err := fn(tx); err != nil {
		return err
	}

	l.portfolio = tx.portfolio
	l.positions = tx.positions
	for id, update := range tx.tradeUpdates {
		l.tradeUpdates[id] = update
	}

	return nil
}

type fakeLedgerTx struct {
	portfolio    *domain.Portfolio
	positions    map[string]*domain.Position
	tradeUpdates map[uuid.UUID]tradeStatusUpdate
}

func (t *fakeLedgerTx) GetPortfolio(_ context.Context, portfolioID uuid.UUID) (*domain.Portfolio, error) {
	if t.portfolio.ID != portfolioID {
		return nil, domain.ErrNotFound
	}
	return t.portfolio, nil
}

func (t *fakeLedgerTx) UpdatePortfolioBalances(_ context.Context, portfolioID uuid.UUID, cash, total decimal.Decimal) error {
	if t.portfolio.ID != portfolioID {
		return domain.ErrNotFound
	}
	t.portfolio.CashBalance = cash
	t.portfolio.TotalValue = total
	return nil
}

func (t *fakeLedgerTx) GetPosition(_ context.Context, _ uuid.UUID, symbol string) (*domain.Position, error) {
	position, ok := t.positions[symbol]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return position, nil
}

func (t *fakeLedgerTx) GetPositions(_ context.Context, _ uuid.UUID) ([]*domain.Position, error) {
	positions := make([]*domain.Position, 0, len(t.positions))
	for _, p := range t.positions {
		positions = append(positions, p)
	}
	return positions, nil
}

func (t *fakeLedgerTx) UpsertPosition(_ context.Context, position *domain.Position) error {
	t.positions[position.Symbol] = position
	return nil
}

func (t *fakeLedgerTx) DeletePosition(_ context.Context, positionID uuid.UUID) error {
	for symbol, p := range t.positions {
		if p.ID == positionID {
			delete(t.positions, symbol)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (t *fakeLedgerTx) UpdateTradeStatus(_ context.Context, tradeID uuid.UUID, status string, rejectReason *string, executedAt *time.Time) error {
	t.tradeUpdates[tradeID] = tradeStatusUpdate{status: status, rejectReason: rejectReason, executedAt: executedAt}
	return nil
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}
