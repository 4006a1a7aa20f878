// Package jobs runs read-only scheduled reports over the store.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"butik/backend/internal/domain"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Source is the slice of the service the reports need.
type Source interface {
	Dashboard(ctx context.Context) (domain.DashboardStats, error)
	LowStock(ctx context.Context, threshold int) ([]domain.Product, error)
}

type Scheduler struct {
	sched             *cron.Cron
	source            Source
	lowStockThreshold int
	timeout           time.Duration
	logger            *zap.Logger
}

func NewScheduler(source Source, lowStockThreshold int, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		sched:             cron.New(cron.WithLocation(time.UTC), cron.WithParser(cronParser)),
		source:            source,
		lowStockThreshold: lowStockThreshold,
		timeout:           30 * time.Second,
		logger:            logger,
	}
}

// Register adds the digest and low-stock report on the given schedule.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.sched.AddFunc(spec, s.RunDigest); err != nil {
		return fmt.Errorf("schedule digest %q: %w", spec, err)
	}
	if _, err := s.sched.AddFunc(spec, s.RunLowStock); err != nil {
		return fmt.Errorf("schedule low stock %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Stop waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.sched.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) RunDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	stats, err := s.source.Dashboard(ctx)
	if err != nil {
		s.logger.Error("daily digest failed", zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.String("total_revenue", stats.TotalRevenue.String()),
		zap.String("total_profit", stats.TotalProfit.String()),
		zap.Int("units_sold", stats.TotalUnitsSold),
		zap.String("best_seller", stats.BestSeller.Name),
	}
	if n := len(stats.WeeklyProfit); n > 0 {
		latest := stats.WeeklyProfit[n-1]
		fields = append(fields, zap.String("week", latest.Week), zap.String("week_profit", latest.Profit.String()))
	}
	s.logger.Info("daily digest", fields...)
}

func (s *Scheduler) RunLowStock() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	low, err := s.source.LowStock(ctx, s.lowStockThreshold)
	if err != nil {
		s.logger.Error("low stock report failed", zap.Error(err))
		return
	}
	for _, p := range low {
		s.logger.Warn("low stock",
			zap.String("product_id", p.ID),
			zap.String("name", p.Name),
			zap.Int("quantity", p.Quantity),
			zap.Int("threshold", s.lowStockThreshold))
	}
}
