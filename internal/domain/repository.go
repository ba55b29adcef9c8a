package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// PortfolioRepository defines read/create access to portfolios. Balance
// mutations go through the Ledger, never through this interface.
type PortfolioRepository interface {
	// Create creates a new portfolio
	Create(ctx context.Context, portfolio *Portfolio) error

	// GetByID retrieves a portfolio by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Portfolio, error)

	// GetByUserID retrieves all portfolios owned by a user
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*Portfolio, error)

	// GetAllIDs retrieves every portfolio ID, for the revaluation sweep
	GetAllIDs(ctx context.Context) ([]uuid.UUID, error)
}

// PositionRepository defines read access to positions outside the ledger
// lock (listings, strategy sizing). Writes happen inside a LedgerTx.
type PositionRepository interface {
	// GetByPortfolioID retrieves all positions of a portfolio
	GetByPortfolioID(ctx context.Context, portfolioID uuid.UUID) ([]*Position, error)

	// GetBySymbol retrieves the position for one symbol, or ErrNotFound
	GetBySymbol(ctx context.Context, portfolioID uuid.UUID, symbol string) (*Position, error)
}

// TradeRepository defines the interface for trade (order) records
type TradeRepository interface {
	// Save creates a new trade
	Save(ctx context.Context, trade *Trade) error

	// GetByID retrieves a trade by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Trade, error)

	// GetByUserID retrieves all trades placed by a user, newest first
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*Trade, error)

	// GetByStrategyID retrieves executed trades attributed to a strategy,
	// most recently executed first
	GetByStrategyID(ctx context.Context, strategyID uuid.UUID, limit int) ([]*Trade, error)
}

// StrategyRepository defines the interface for strategy data operations.
// GetByID is the system access path (webhooks, scheduler); user-facing
// lookups must go through GetByIDForUser.
type StrategyRepository interface {
	// Create creates a new strategy
	Create(ctx context.Context, strategy *Strategy) error

	// GetByID retrieves a strategy by ID without ownership scoping
	GetByID(ctx context.Context, id uuid.UUID) (*Strategy, error)

	// GetByIDForUser retrieves a strategy only if the user owns it
	GetByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Strategy, error)

	// GetByUserID retrieves all strategies of a user, newest first
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*Strategy, error)

	// GetActiveByType retrieves all ACTIVE strategies of the given type
	GetActiveByType(ctx context.Context, strategyType string) ([]*Strategy, error)

	// Update persists mutable strategy fields (name, status, allocation, ...)
	Update(ctx context.Context, strategy *Strategy) error

	// UpdateMetrics persists the running performance counters
	UpdateMetrics(ctx context.Context, strategy *Strategy) error

	// Delete removes a strategy owned by the user
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// StrategyExecutionRepository records signal outcomes
type StrategyExecutionRepository interface {
	// Save creates a new execution record
	Save(ctx context.Context, execution *StrategyExecution) error

	// Resolve stamps the outcome fields once the derived order resolves
	Resolve(ctx context.Context, execution *StrategyExecution) error

	// GetByStrategyID retrieves executions for a strategy, newest first
	GetByStrategyID(ctx context.Context, strategyID uuid.UUID, limit int) ([]*StrategyExecution, error)
}

// Ledger serializes all mutations of one portfolio's cash/position/order
// state. WithPortfolioLock runs fn with exclusive access to the portfolio's
// rows, committing atomically on success and discarding every write when fn
// returns an error.
type Ledger interface {
	WithPortfolioLock(ctx context.Context, portfolioID uuid.UUID, fn func(tx LedgerTx) error) error
}

// LedgerTx is the transactional view handed to WithPortfolioLock callbacks.
type LedgerTx interface {
	// GetPortfolio reads the locked portfolio row
	GetPortfolio(ctx context.Context, portfolioID uuid.UUID) (*Portfolio, error)

	// UpdatePortfolioBalances writes cash balance and total value
	UpdatePortfolioBalances(ctx context.Context, portfolioID uuid.UUID, cash, total decimal.Decimal) error

	// GetPosition reads the position for one symbol, or ErrNotFound
	GetPosition(ctx context.Context, portfolioID uuid.UUID, symbol string) (*Position, error)

	// GetPositions reads all positions of the portfolio
	GetPositions(ctx context.Context, portfolioID uuid.UUID) ([]*Position, error)

	// UpsertPosition inserts or fully updates a position row
	UpsertPosition(ctx context.Context, position *Position) error

	// DeletePosition removes a position (quantity reached zero)
	DeletePosition(ctx context.Context, positionID uuid.UUID) error

	// UpdateTradeStatus sets status, rejection reason, and execution time
	UpdateTradeStatus(ctx context.Context, tradeID uuid.UUID, status string, rejectReason *string, executedAt *time.Time) error
}
