package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// ValuationService marks every open position of a portfolio to the current
// market price and keeps the portfolio total consistent with cash plus
// holdings. It runs under the same per-portfolio lock as the execution
// engine so a revaluation never races a fill.
type ValuationService struct {
	ledger domain.Ledger
	quotes domain.QuoteSource
}

// NewValuationService creates a new ValuationService
func NewValuationService(ledger domain.Ledger, quotes domain.QuoteSource) *ValuationService {
	return &ValuationService{
		ledger: ledger,
		quotes: quotes,
	}
}

// Revalue refreshes every position from the latest quotes and returns the
// resulting snapshot. Quote refresh is best-effort per symbol: a symbol
// whose fetch fails keeps its last known price rather than failing the
// whole run.
func (s *ValuationService) Revalue(ctx context.Context, portfolioID uuid.UUID) (*domain.PortfolioSnapshot, error) {
	var snapshot *domain.PortfolioSnapshot

	err := s.ledger.WithPortfolioLock(ctx, portfolioID, func(tx domain.LedgerTx) error {
		portfolio, err := tx.GetPortfolio(ctx, portfolioID)
		if err != nil {
			return err
		}

		positions, err := tx.GetPositions(ctx, portfolioID)
		if err != nil {
			return err
		}

		totalCost := decimal.Zero
		totalMarketValue := decimal.Zero

		for _, position := range positions {
			price := position.CurrentPrice
			quote, err := s.quotes.GetQuote(ctx, position.Symbol)
			if err != nil {
				log.Printf("WARNING: no fresh quote for %s, keeping last price %s: %v",
					position.Symbol, price, err)
			} else {
				price = quote.Price
			}

			position.Reprice(price)
			if err := tx.UpsertPosition(ctx, position); err != nil {
				return err
			}

			totalCost = totalCost.Add(position.CostBasis())
			totalMarketValue = totalMarketValue.Add(position.MarketValue)
		}

		totalValue := portfolio.CashBalance.Add(totalMarketValue)
		if err := tx.UpdatePortfolioBalances(ctx, portfolioID, portfolio.CashBalance, totalValue); err != nil {
			return err
		}
		portfolio.TotalValue = totalValue

		gainLoss := totalMarketValue.Sub(totalCost)
		gainLossPercent := decimal.Zero
		if totalCost.GreaterThan(decimal.Zero) {
			gainLossPercent = gainLoss.Div(totalCost).Mul(oneHundred).Round(2)
		}

		snapshot = &domain.PortfolioSnapshot{
			Portfolio: portfolio,
			Positions: positions,
			Performance: &domain.PortfolioPerformance{
				TotalCost:            totalCost,
				TotalMarketValue:     totalMarketValue,
				TotalGainLoss:        gainLoss,
				TotalGainLossPercent: gainLossPercent,
			},
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}
