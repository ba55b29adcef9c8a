package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
)

// StrategyRepositoryImpl implements the StrategyRepository interface
type StrategyRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewStrategyRepository creates a new StrategyRepository
func NewStrategyRepository(db *pgxpool.Pool) domain.StrategyRepository {
	return &StrategyRepositoryImpl{db: db}
}

const strategyColumns = `id, user_id, portfolio_id, name, description, strategy_type, status,
		capital_allocation, max_position_size, webhook_secret, parameters,
		total_trades, winning_trades, total_return, current_drawdown, max_drawdown,
		created_at, updated_at, last_executed_at`

// Create creates a new strategy
func (r *StrategyRepositoryImpl) Create(ctx context.Context, strategy *domain.Strategy) error {
	query := `
		INSERT INTO strategies (
			id, user_id, portfolio_id, name, description, strategy_type, status,
			capital_allocation, max_position_size, webhook_secret, parameters, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := r.db.Exec(ctx, query,
		strategy.ID,
		strategy.UserID,
		strategy.PortfolioID,
		strategy.Name,
		strategy.Description,
		strategy.StrategyType,
		strategy.Status,
		strategy.CapitalAllocation,
		strategy.MaxPositionSize,
		strategy.WebhookSecret,
		strategy.Parameters,
		strategy.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create strategy: %w", err)
	}

	return nil
}

// GetByID retrieves a strategy by ID without ownership scoping. This is the
// system access path used by the webhook intake and the scheduler.
func (r *StrategyRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Strategy, error) {
	query := `SELECT ` + strategyColumns + ` FROM strategies WHERE id = $1`
	return scanStrategy(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUser retrieves a strategy only if the user owns it
func (r *StrategyRepositoryImpl) GetByIDForUser(ctx context.Context, userID, id uuid.UUID) (*domain.Strategy, error) {
	query := `SELECT ` + strategyColumns + ` FROM strategies WHERE id = $1 AND user_id = $2`
	return scanStrategy(r.db.QueryRow(ctx, query, id, userID))
}

// GetByUserID retrieves all strategies of a user, newest first
func (r *StrategyRepositoryImpl) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Strategy, error) {
	query := `SELECT ` + strategyColumns + ` FROM strategies WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategies by user ID: %w", err)
	}
	defer rows.Close()

	return collectStrategies(rows)
}

// GetActiveByType retrieves all ACTIVE strategies of the given type
func (r *StrategyRepositoryImpl) GetActiveByType(ctx context.Context, strategyType string) ([]*domain.Strategy, error) {
	query := `SELECT ` + strategyColumns + ` FROM strategies WHERE status = 'ACTIVE' AND strategy_type = $1`

	rows, err := r.db.Query(ctx, query, strategyType)
	if err != nil {
		return nil, fmt.Errorf("failed to query active strategies: %w", err)
	}
	defer rows.Close()

	return collectStrategies(rows)
}

// Update persists mutable strategy fields
func (r *StrategyRepositoryImpl) Update(ctx context.Context, strategy *domain.Strategy) error {
	query := `
		UPDATE strategies
		SET name = $1,
		    description = $2,
		    status = $3,
		    capital_allocation = $4,
		    max_position_size = $5,
		    webhook_secret = $6,
		    parameters = $7,
		    updated_at = $8
		WHERE id = $9
	`

	now := time.Now().UTC()
	tag, err := r.db.Exec(ctx, query,
		strategy.Name,
		strategy.Description,
		strategy.Status,
		strategy.CapitalAllocation,
		strategy.MaxPositionSize,
		strategy.WebhookSecret,
		strategy.Parameters,
		now,
		strategy.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	strategy.UpdatedAt = &now

	return nil
}

// UpdateMetrics persists the running performance counters
func (r *StrategyRepositoryImpl) UpdateMetrics(ctx context.Context, strategy *domain.Strategy) error {
	query := `
		UPDATE strategies
		SET total_trades = $1,
		    winning_trades = $2,
		    total_return = $3,
		    current_drawdown = $4,
		    max_drawdown = $5,
		    last_executed_at = $6
		WHERE id = $7
	`

	_, err := r.db.Exec(ctx, query,
		strategy.TotalTrades,
		strategy.WinningTrades,
		strategy.TotalReturn,
		strategy.CurrentDrawdown,
		strategy.MaxDrawdown,
		strategy.LastExecutedAt,
		strategy.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update strategy metrics: %w", err)
	}

	return nil
}

// Delete removes a strategy owned by the user
func (r *StrategyRepositoryImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM strategies WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func collectStrategies(rows pgx.Rows) ([]*domain.Strategy, error) {
	var strategies []*domain.Strategy
	for rows.Next() {
		strategy, err := scanStrategy(rows)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, strategy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating strategies: %w", err)
	}

	return strategies, nil
}

func scanStrategy(row pgx.Row) (*domain.Strategy, error) {
	strategy := &domain.Strategy{}
	err := row.Scan(
		&strategy.ID,
		&strategy.UserID,
		&strategy.PortfolioID,
		&strategy.Name,
		&strategy.Description,
		&strategy.StrategyType,
		&strategy.Status,
		&strategy.CapitalAllocation,
		&strategy.MaxPositionSize,
		&strategy.WebhookSecret,
		&strategy.Parameters,
		&strategy.TotalTrades,
		&strategy.WinningTrades,
		&strategy.TotalReturn,
		&strategy.CurrentDrawdown,
		&strategy.MaxDrawdown,
		&strategy.CreatedAt,
		&strategy.UpdatedAt,
		&strategy.LastExecutedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan strategy: %w", err)
	}

	return strategy, nil
}
