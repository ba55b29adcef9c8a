package infra

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/service"
	"github.com/yashashwi-s/VirtualTradingPlatform/internal/usecase"
)

// Scheduler manages scheduled tasks: the algorithmic strategy sweep and the
// periodic portfolio revaluation
type Scheduler struct {
	cron            *cron.Cron
	strategyService *usecase.StrategyService
	valuation       *service.ValuationService
	portfolioRepo   domain.PortfolioRepository
}

// NewScheduler creates a new scheduler
func NewScheduler(strategyService *usecase.StrategyService, valuation *service.ValuationService, portfolioRepo domain.PortfolioRepository) *Scheduler {
	return &Scheduler{
		cron:            cron.New(),
		strategyService: strategyService,
		valuation:       valuation,
		portfolioRepo:   portfolioRepo,
	}
}

// Start registers the recurring jobs and starts the scheduler
func (s *Scheduler) Start() error {
	log.Println("Starting scheduler...")

	// Evaluate ACTIVE algorithmic strategies every minute
	_, err := s.cron.AddFunc("*/1 * * * *", func() {
		ctx := context.Background()
		s.strategyService.EvaluateAlgorithmicStrategies(ctx)
	})
	if err != nil {
		return err
	}

	// Revalue every portfolio every 5 minutes so stored totals stay close
	// to the market even when nobody is looking
	_, err = s.cron.AddFunc("*/5 * * * *", func() {
		ctx := context.Background()
		s.revalueAllPortfolios(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Println("[OK] Scheduler started successfully")
	log.Println("[OK] Jobs: strategy sweep every 1m, portfolio revaluation every 5m")

	return nil
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	s.cron.Stop()
	log.Println("[OK] Scheduler stopped")
}

func (s *Scheduler) revalueAllPortfolios(ctx context.Context) {
	ids, err := s.portfolioRepo.GetAllIDs(ctx)
	if err != nil {
		log.Printf("ERROR: failed to list portfolios for revaluation: %v", err)
		return
	}

	for _, id := range ids {
		if _, err := s.valuation.Revalue(ctx, id); err != nil {
			log.Printf("ERROR: revaluation failed for portfolio %s: %v", id, err)
		}
	}
}
