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

// PositionRepositoryImpl implements the read-only PositionRepository
// interface. All position writes go through the ledger transaction.
type PositionRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewPositionRepository creates a new PositionRepository
func NewPositionRepository(db *pgxpool.Pool) domain.PositionRepository {
	return &PositionRepositoryImpl{db: db}
}

const positionColumns = `id, portfolio_id, symbol, quantity, average_cost, current_price, market_value, unrealized_pnl, created_at, updated_at`

// GetByPortfolioID retrieves all positions of a portfolio
func (r *PositionRepositoryImpl) GetByPortfolioID(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE portfolio_id = $1 ORDER BY symbol ASC`

	rows, err := r.db.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions by portfolio ID: %w", err)
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

// GetBySymbol retrieves the position for one symbol, or ErrNotFound
func (r *PositionRepositoryImpl) GetBySymbol(ctx context.Context, portfolioID uuid.UUID, symbol string) (*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE portfolio_id = $1 AND symbol = $2`

	position, err := scanPosition(r.db.QueryRow(ctx, query, portfolioID, symbol))
	if err != nil {
		return nil, err
	}

	return position, nil
}

func scanPosition(row pgx.Row) (*domain.Position, error) {
	position := &domain.Position{}
	err := row.Scan(
		&position.ID,
		&position.PortfolioID,
		&position.Symbol,
		&position.Quantity,
		&position.AverageCost,
		&position.CurrentPrice,
		&position.MarketValue,
		&position.UnrealizedPnL,
		&position.CreatedAt,
		&position.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}

	return position, nil
}
