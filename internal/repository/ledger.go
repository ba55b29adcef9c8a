package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
)

// lockTimeout bounds a whole locked section: acquiring the row lock, the
// callback's reads/writes, and the commit. A portfolio transaction that
// cannot finish inside this window surfaces as ErrStoreUnavailable instead
// of hanging.
const lockTimeout = 10 * time.Second

// LedgerImpl implements the Ledger interface on PostgreSQL. Per-portfolio
// serialization is a serializable transaction plus a row lock on the
// portfolio: two orders against the same portfolio queue on the FOR UPDATE,
// orders against different portfolios proceed concurrently.
type LedgerImpl struct {
	db *pgxpool.Pool
}

// NewLedger creates a new Ledger
func NewLedger(db *pgxpool.Pool) domain.Ledger {
	return &LedgerImpl{db: db}
}

// WithPortfolioLock runs fn with exclusive access to the portfolio's rows.
// All writes commit atomically when fn returns nil and are discarded on any
// error.
func (l *LedgerImpl) WithPortfolioLock(ctx context.Context, portfolioID uuid.UUID, fn func(tx domain.LedgerTx) error) error {
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin portfolio transaction: %w", domain.ErrStoreUnavailable)
	}
	defer tx.Rollback(ctx)

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM portfolios WHERE id = $1 FOR UPDATE`, portfolioID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock portfolio %s: %w", portfolioID, domain.ErrStoreUnavailable)
	}

	if err := fn(&ledgerTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit portfolio transaction: %w", domain.ErrStoreUnavailable)
	}

	return nil
}

// ledgerTx is the transactional view handed to WithPortfolioLock callbacks.
type ledgerTx struct {
	tx pgx.Tx
}

// GetPortfolio reads the locked portfolio row
func (t *ledgerTx) GetPortfolio(ctx context.Context, portfolioID uuid.UUID) (*domain.Portfolio, error) {
	query := `
		SELECT id, user_id, name, cash_balance, total_value, created_at, updated_at
		FROM portfolios
		WHERE id = $1
	`

	portfolio := &domain.Portfolio{}
	err := t.tx.QueryRow(ctx, query, portfolioID).Scan(
		&portfolio.ID,
		&portfolio.UserID,
		&portfolio.Name,
		&portfolio.CashBalance,
		&portfolio.TotalValue,
		&portfolio.CreatedAt,
		&portfolio.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio in transaction: %w", err)
	}

	return portfolio, nil
}

// UpdatePortfolioBalances writes cash balance and total value
func (t *ledgerTx) UpdatePortfolioBalances(ctx context.Context, portfolioID uuid.UUID, cash, total decimal.Decimal) error {
	query := `
		UPDATE portfolios
		SET cash_balance = $1,
		    total_value = $2,
		    updated_at = $3
		WHERE id = $4
	`

	_, err := t.tx.Exec(ctx, query, cash, total, time.Now().UTC(), portfolioID)
	if err != nil {
		return fmt.Errorf("failed to update portfolio balances: %w", err)
	}

	return nil
}

// GetPosition reads the position for one symbol, or ErrNotFound
func (t *ledgerTx) GetPosition(ctx context.Context, portfolioID uuid.UUID, symbol string) (*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE portfolio_id = $1 AND symbol = $2`
	return scanPosition(t.tx.QueryRow(ctx, query, portfolioID, symbol))
}

// GetPositions reads all positions of the portfolio
func (t *ledgerTx) GetPositions(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE portfolio_id = $1 ORDER BY symbol ASC`

	rows, err := t.tx.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions in transaction: %w", err)
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// UpsertPosition inserts or fully updates a position row
func (t *ledgerTx) UpsertPosition(ctx context.Context, position *domain.Position) error {
	query := `
		INSERT INTO positions (
			id, portfolio_id, symbol, quantity, average_cost,
			current_price, market_value, unrealized_pnl, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (portfolio_id, symbol) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    average_cost = EXCLUDED.average_cost,
		    current_price = EXCLUDED.current_price,
		    market_value = EXCLUDED.market_value,
		    unrealized_pnl = EXCLUDED.unrealized_pnl,
		    updated_at = NOW()
	`

	_, err := t.tx.Exec(ctx, query,
		position.ID,
		position.PortfolioID,
		position.Symbol,
		position.Quantity,
		position.AverageCost,
		position.CurrentPrice,
		position.MarketValue,
		position.UnrealizedPnL,
		position.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}

	return nil
}

// DeletePosition removes a position whose quantity reached zero
func (t *ledgerTx) DeletePosition(ctx context.Context, positionID uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM positions WHERE id = $1`, positionID)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}

	return nil
}

// UpdateTradeStatus sets status, rejection reason, and execution time
func (t *ledgerTx) UpdateTradeStatus(ctx context.Context, tradeID uuid.UUID, status string, rejectReason *string, executedAt *time.Time) error {
	query := `
		UPDATE trades
		SET status = $1,
		    reject_reason = $2,
		    executed_at = $3
		WHERE id = $4
	`

	_, err := t.tx.Exec(ctx, query, status, rejectReason, executedAt, tradeID)
	if err != nil {
		return fmt.Errorf("failed to update trade status: %w", err)
	}

	return nil
}
