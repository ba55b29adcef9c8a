package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
)

// StrategyExecutionRepositoryImpl implements the StrategyExecutionRepository interface
type StrategyExecutionRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewStrategyExecutionRepository creates a new StrategyExecutionRepository
func NewStrategyExecutionRepository(db *pgxpool.Pool) domain.StrategyExecutionRepository {
	return &StrategyExecutionRepositoryImpl{db: db}
}

// Save creates a new execution record
func (r *StrategyExecutionRepositoryImpl) Save(ctx context.Context, execution *domain.StrategyExecution) error {
	query := `
		INSERT INTO strategy_executions (
			id, strategy_id, signal_type, symbol, quantity, price,
			signal_strength, signal_data, executed, signal_timestamp, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.Exec(ctx, query,
		execution.ID,
		execution.StrategyID,
		execution.SignalType,
		execution.Symbol,
		execution.Quantity,
		execution.Price,
		execution.SignalStrength,
		execution.SignalData,
		execution.Executed,
		execution.SignalTime,
		execution.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save strategy execution: %w", err)
	}

	return nil
}

// Resolve stamps the outcome fields once the derived order resolves
func (r *StrategyExecutionRepositoryImpl) Resolve(ctx context.Context, execution *domain.StrategyExecution) error {
	query := `
		UPDATE strategy_executions
		SET quantity = $1,
		    price = $2,
		    executed = $3,
		    trade_id = $4,
		    error_message = $5,
		    executed_at = $6
		WHERE id = $7
	`

	_, err := r.db.Exec(ctx, query,
		execution.Quantity,
		execution.Price,
		execution.Executed,
		execution.TradeID,
		execution.ErrorMessage,
		execution.ExecutedAt,
		execution.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve strategy execution: %w", err)
	}

	return nil
}

// GetByStrategyID retrieves executions for a strategy, newest first
func (r *StrategyExecutionRepositoryImpl) GetByStrategyID(ctx context.Context, strategyID uuid.UUID, limit int) ([]*domain.StrategyExecution, error) {
	query := `
		SELECT id, strategy_id, signal_type, symbol, quantity, price,
		       signal_strength, signal_data, executed, trade_id, error_message,
		       signal_timestamp, executed_at, created_at
		FROM strategy_executions
		WHERE strategy_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, strategyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategy executions: %w", err)
	}
	defer rows.Close()

	var executions []*domain.StrategyExecution
	for rows.Next() {
		execution := &domain.StrategyExecution{}
		err := rows.Scan(
			&execution.ID,
			&execution.StrategyID,
			&execution.SignalType,
			&execution.Symbol,
			&execution.Quantity,
			&execution.Price,
			&execution.SignalStrength,
			&execution.SignalData,
			&execution.Executed,
			&execution.TradeID,
			&execution.ErrorMessage,
			&execution.SignalTime,
			&execution.ExecutedAt,
			&execution.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan strategy execution: %w", err)
		}
		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating strategy executions: %w", err)
	}

	return executions, nil
}
