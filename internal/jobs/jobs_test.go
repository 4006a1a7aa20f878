package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"butik/backend/internal/domain"
)

type fakeSource struct {
	stats     domain.DashboardStats
	low       []domain.Product
	err       error
	threshold int
}

func (f *fakeSource) Dashboard(_ context.Context) (domain.DashboardStats, error) {
	return f.stats, f.err
}

func (f *fakeSource) LowStock(_ context.Context, threshold int) ([]domain.Product, error) {
	f.threshold = threshold
	return f.low, f.err
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestRunDigestLogsTotals(t *testing.T) {
	logger, logs := observed()
	src := &fakeSource{stats: domain.DashboardStats{
		TotalRevenue:   decimal.NewFromInt(7500),
		TotalProfit:    decimal.NewFromInt(4500),
		TotalUnitsSold: 3,
		BestSeller:     domain.BestSeller{Name: "Hoodie"},
		WeeklyProfit:   []domain.WeeklyProfit{{Week: "2024-05-06", Profit: decimal.NewFromInt(4500)}},
	}}

	NewScheduler(src, 10, logger).RunDigest()

	entries := logs.FilterMessage("daily digest").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "4500", ctx["total_profit"])
	assert.Equal(t, "Hoodie", ctx["best_seller"])
	assert.Equal(t, "2024-05-06", ctx["week"])
}

func TestRunLowStockWarnsPerProduct(t *testing.T) {
	logger, logs := observed()
	src := &fakeSource{low: []domain.Product{
		{ID: "prod-1", Name: "Tee", Quantity: 0},
		{ID: "prod-2", Name: "Hoodie", Quantity: 4},
	}}

	NewScheduler(src, 5, logger).RunLowStock()

	assert.Equal(t, 5, src.threshold)
	assert.Equal(t, 2, logs.FilterMessage("low stock").Len())
}

func TestJobsLogSourceErrors(t *testing.T) {
	logger, logs := observed()
	src := &fakeSource{err: errors.New("storage offline")}
	s := NewScheduler(src, 5, logger)

	s.RunDigest()
	s.RunLowStock()

	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestRegisterRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&fakeSource{}, 5, nil)
	assert.Error(t, s.Register("every full moon"))
	assert.NoError(t, s.Register("@daily"))
	assert.NoError(t, s.Register("0 30 7 * * *"))
}
