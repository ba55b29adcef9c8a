package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
)

// TradeRepositoryImpl implements the TradeRepository interface
type TradeRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewTradeRepository creates a new TradeRepository
func NewTradeRepository(db *pgxpool.Pool) domain.TradeRepository {
	return &TradeRepositoryImpl{db: db}
}

const tradeColumns = `id, user_id, portfolio_id, strategy_id, symbol, side, quantity, price, total_amount, status, reject_reason, executed_at, created_at`

// Save creates a new trade
func (r *TradeRepositoryImpl) Save(ctx context.Context, trade *domain.Trade) error {
	query := `
		INSERT INTO trades (
			id, user_id, portfolio_id, strategy_id, symbol, side,
			quantity, price, total_amount, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.Exec(ctx, query,
		trade.ID,
		trade.UserID,
		trade.PortfolioID,
		trade.StrategyID,
		trade.Symbol,
		trade.Side,
		trade.Quantity,
		trade.Price,
		trade.TotalAmount,
		trade.Status,
		trade.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}

	return nil
}

// GetByID retrieves a trade by ID
func (r *TradeRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`
	return scanTrade(r.db.QueryRow(ctx, query, id))
}

// GetByUserID retrieves all trades placed by a user, newest first
func (r *TradeRepositoryImpl) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades by user ID: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// GetByStrategyID retrieves executed trades attributed to a strategy,
// most recently executed first
func (r *TradeRepositoryImpl) GetByStrategyID(ctx context.Context, strategyID uuid.UUID, limit int) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE strategy_id = $1 AND status = 'EXECUTED'
		ORDER BY executed_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, strategyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades by strategy ID: %w", err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

func collectTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

func scanTrade(row pgx.Row) (*domain.Trade, error) {
	trade := &domain.Trade{}
	err := row.Scan(
		&trade.ID,
		&trade.UserID,
		&trade.PortfolioID,
		&trade.StrategyID,
		&trade.Symbol,
		&trade.Side,
		&trade.Quantity,
		&trade.Price,
		&trade.TotalAmount,
		&trade.Status,
		&trade.RejectReason,
		&trade.ExecutedAt,
		&trade.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan trade: %w", err)
	}

	return trade, nil
}
