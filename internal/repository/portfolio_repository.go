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

// PortfolioRepositoryImpl implements the PortfolioRepository interface
type PortfolioRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewPortfolioRepository creates a new PortfolioRepository
func NewPortfolioRepository(db *pgxpool.Pool) domain.PortfolioRepository {
	return &PortfolioRepositoryImpl{db: db}
}

// Create creates a new portfolio
func (r *PortfolioRepositoryImpl) Create(ctx context.Context, portfolio *domain.Portfolio) error {
	query := `
		INSERT INTO portfolios (id, user_id, name, cash_balance, total_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		portfolio.ID,
		portfolio.UserID,
		portfolio.Name,
		portfolio.CashBalance,
		portfolio.TotalValue,
		portfolio.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}

	return nil
}

// GetByID retrieves a portfolio by ID
func (r *PortfolioRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	query := `
		SELECT id, user_id, name, cash_balance, total_value, created_at, updated_at
		FROM portfolios
		WHERE id = $1
	`

	portfolio := &domain.Portfolio{}
	err := r.db.QueryRow(ctx, query, id).Scan(
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
		return nil, fmt.Errorf("failed to get portfolio by ID: %w", err)
	}

	return portfolio, nil
}

// GetByUserID retrieves all portfolios owned by a user
func (r *PortfolioRepositoryImpl) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Portfolio, error) {
	query := `
		SELECT id, user_id, name, cash_balance, total_value, created_at, updated_at
		FROM portfolios
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios by user ID: %w", err)
	}
	defer rows.Close()

	var portfolios []*domain.Portfolio
	for rows.Next() {
		portfolio := &domain.Portfolio{}
		err := rows.Scan(
			&portfolio.ID,
			&portfolio.UserID,
			&portfolio.Name,
			&portfolio.CashBalance,
			&portfolio.TotalValue,
			&portfolio.CreatedAt,
			&portfolio.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, portfolio)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return portfolios, nil
}

// GetAllIDs retrieves every portfolio ID, for the revaluation sweep
func (r *PortfolioRepositoryImpl) GetAllIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM portfolios ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio IDs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio IDs: %w", err)
	}

	return ids, nil
}
