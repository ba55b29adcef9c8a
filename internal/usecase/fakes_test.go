package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
)

type fakeQuotes struct {
	prices map[string]decimal.Decimal
	err    error
}

func (q *fakeQuotes) GetQuote(_ context.Context, symbol string) (*domain.Quote, error) {
	if q.err != nil {
		return nil, q.err
	}
	price, ok := q.prices[symbol]
	if !ok {
		return nil, domain.ErrQuoteUnavailable
	}
	return &domain.Quote{Symbol: symbol, Price: price, AsOf: time.Now().UTC()}, nil
}

// memLedger is an in-memory single-portfolio ledger with commit-on-success
// semantics.
type memLedger struct {
	portfolio *domain.Portfolio
	positions map[string]*domain.Position
}

func newMemLedger(portfolio *domain.Portfolio, positions ...*domain.Position) *memLedger {
	bySymbol := make(map[string]*domain.Position)
	for _, p := range positions {
		bySymbol[p.Symbol] = p
	}
	return &memLedger{portfolio: portfolio, positions: bySymbol}
}

func (l *memLedger) WithPortfolioLock(_ context.Context, portfolioID uuid.UUID, fn func(tx domain.LedgerTx) error) error {
	if l.portfolio == nil || l.portfolio.ID != portfolioID {
		return domain.ErrNotFound
	}

	portfolioCopy := *l.portfolio
	positionsCopy := make(map[string]*domain.Position, len(l.positions))
	for symbol, p := range l.positions {
		copied := *p
		positionsCopy[symbol] = &copied
	}

	tx := &memLedgerTx{portfolio: &portfolioCopy, positions: positionsCopy}
	if err := fn(tx); err != nil {
		return err
	}

	l.portfolio = tx.portfolio
	l.positions = tx.positions
	return nil
}

type memLedgerTx struct {
	portfolio *domain.Portfolio
	positions map[string]*domain.Position
}

func (t *memLedgerTx) GetPortfolio(_ context.Context, portfolioID uuid.UUID) (*domain.Portfolio, error) {
	if t.portfolio.ID != portfolioID {
		return nil, domain.ErrNotFound
	}
	return t.portfolio, nil
}

func (t *memLedgerTx) UpdatePortfolioBalances(_ context.Context, _ uuid.UUID, cash, total decimal.Decimal) error {
	t.portfolio.CashBalance = cash
	t.portfolio.TotalValue = total
	return nil
}

func (t *memLedgerTx) GetPosition(_ context.Context, _ uuid.UUID, symbol string) (*domain.Position, error) {
	position, ok := t.positions[symbol]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return position, nil
}

func (t *memLedgerTx) GetPositions(_ context.Context, _ uuid.UUID) ([]*domain.Position, error) {
	positions := make([]*domain.Position, 0, len(t.positions))
	for _, p := range t.positions {
		positions = append(positions, p)
	}
	return positions, nil
}

func (t *memLedgerTx) UpsertPosition(_ context.Context, position *domain.Position) error {
	t.positions[position.Symbol] = position
	return nil
}

func (t *memLedgerTx) DeletePosition(_ context.Context, positionID uuid.UUID) error {
	for symbol, p := range t.positions {
		if p.ID == positionID {
			delete(t.positions, symbol)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (t *memLedgerTx) UpdateTradeStatus(_ context.Context, _ uuid.UUID, _ string, _ *string, _ *time.Time) error {
	return nil
}

type fakePortfolioRepo struct {
	portfolios map[uuid.UUID]*domain.Portfolio
}

func newFakePortfolioRepo(portfolios ...*domain.Portfolio) *fakePortfolioRepo {
	r := &fakePortfolioRepo{portfolios: make(map[uuid.UUID]*domain.Portfolio)}
	for _, p := range portfolios {
		r.portfolios[p.ID] = p
	}
	return r
}

func (r *fakePortfolioRepo) Create(_ context.Context, portfolio *domain.Portfolio) error {
	r.portfolios[portfolio.ID] = portfolio
	return nil
}

func (r *fakePortfolioRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	portfolio, ok := r.portfolios[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return portfolio, nil
}

func (r *fakePortfolioRepo) GetByUserID(_ context.Context, userID uuid.UUID) ([]*domain.Portfolio, error) {
	var out []*domain.Portfolio
	for _, p := range r.portfolios {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePortfolioRepo) GetAllIDs(_ context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range r.portfolios {
		ids = append(ids, id)
	}
	return ids, nil
}

// fakePositionRepo reads from the ledger's committed state.
type fakePositionRepo struct {
	ledger *memLedger
}

func (r *fakePositionRepo) GetByPortfolioID(_ context.Context, portfolioID uuid.UUID) ([]*domain.Position, error) {
	if r.ledger.portfolio == nil || r.ledger.portfolio.ID != portfolioID {
		return nil, nil
	}
	var out []*domain.Position
	for _, p := range r.ledger.positions {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePositionRepo) GetBySymbol(_ context.Context, portfolioID uuid.UUID, symbol string) (*domain.Position, error) {
	if r.ledger.portfolio == nil || r.ledger.portfolio.ID != portfolioID {
		return nil, domain.ErrNotFound
	}
	position, ok := r.ledger.positions[symbol]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return position, nil
}

type fakeTradeRepo struct {
	trades []*domain.Trade
}

func (r *fakeTradeRepo) Save(_ context.Context, trade *domain.Trade) error {
	r.trades = append(r.trades, trade)
	return nil
}

func (r *fakeTradeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Trade, error) {
	for _, t := range r.trades {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeTradeRepo) GetByUserID(_ context.Context, userID uuid.UUID) ([]*domain.Trade, error) {
	var out []*domain.Trade
	for _, t := range r.trades {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTradeRepo) GetByStrategyID(_ context.Context, strategyID uuid.UUID, limit int) ([]*domain.Trade, error) {
	var out []*domain.Trade
	for _, t := range r.trades {
		if t.StrategyID != nil && *t.StrategyID == strategyID && t.Status == domain.TradeStatusExecuted {
			out = append(out, t)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeStrategyRepo struct {
	strategies map[uuid.UUID]*domain.Strategy
}

func newFakeStrategyRepo(strategies ...*domain.Strategy) *fakeStrategyRepo {
	r := &fakeStrategyRepo{strategies: make(map[uuid.UUID]*domain.Strategy)}
	for _, s := range strategies {
		r.strategies[s.ID] = s
	}
	return r
}

func (r *fakeStrategyRepo) Create(_ context.Context, strategy *domain.Strategy) error {
	r.strategies[strategy.ID] = strategy
	return nil
}

func (r *fakeStrategyRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Strategy, error) {
	strategy, ok := r.strategies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return strategy, nil
}

func (r *fakeStrategyRepo) GetByIDForUser(_ context.Context, userID, id uuid.UUID) (*domain.Strategy, error) {
	strategy, ok := r.strategies[id]
	if !ok || strategy.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return strategy, nil
}

func (r *fakeStrategyRepo) GetByUserID(_ context.Context, userID uuid.UUID) ([]*domain.Strategy, error) {
	var out []*domain.Strategy
	for _, s := range r.strategies {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStrategyRepo) GetActiveByType(_ context.Context, strategyType string) ([]*domain.Strategy, error) {
	var out []*domain.Strategy
	for _, s := range r.strategies {
		if s.Status == domain.StrategyStatusActive && s.StrategyType == strategyType {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStrategyRepo) Update(_ context.Context, strategy *domain.Strategy) error {
	if _, ok := r.strategies[strategy.ID]; !ok {
		return domain.ErrNotFound
	}
	r.strategies[strategy.ID] = strategy
	return nil
}

func (r *fakeStrategyRepo) UpdateMetrics(_ context.Context, strategy *domain.Strategy) error {
	if _, ok := r.strategies[strategy.ID]; !ok {
		return domain.ErrNotFound
	}
	r.strategies[strategy.ID] = strategy
	return nil
}

func (r *fakeStrategyRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	strategy, ok := r.strategies[id]
	if !ok || strategy.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.strategies, id)
	return nil
}

type fakeExecutionRepo struct {
	executions []*domain.StrategyExecution
}

func (r *fakeExecutionRepo) Save(_ context.Context, execution *domain.StrategyExecution) error {
	r.executions = append(r.executions, execution)
	return nil
}

func (r *fakeExecutionRepo) Resolve(_ context.Context, execution *domain.StrategyExecution) error {
	for i, e := range r.executions {
		if e.ID == execution.ID {
			r.executions[i] = execution
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeExecutionRepo) GetByStrategyID(_ context.Context, strategyID uuid.UUID, limit int) ([]*domain.StrategyExecution, error) {
	var out []*domain.StrategyExecution
	for _, e := range r.executions {
		if e.StrategyID == strategyID {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}
