package service

import (
	"context"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"

	"butik/backend/internal/domain"
	"butik/backend/internal/store"
	"butik/backend/internal/xid"
)

// Import replaces both lists with a browser export. Rows that cannot be
// repaired are skipped and counted. Money is rounded to cents, profit is
// recomputed and frozen sale profit is kept as exported.
func (s *Service) Import(ctx context.Context, req domain.ImportRequest) (domain.ImportResult, error) {
	today := s.clock.Now().UTC().Format(domain.DateLayout)
	result := domain.ImportResult{}

	seenProducts := make(map[string]struct{}, len(req.Products))
	products := make([]domain.Product, 0, len(req.Products))
	for _, p := range req.Products {
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		p.BuyPrice = p.BuyPrice.Round(domain.MoneyPlaces)
		p.SellPrice = p.SellPrice.Round(domain.MoneyPlaces)
		if p.Name == "" || !domain.IsCategory(p.Category) || !p.BuyPrice.IsPositive() || !p.SellPrice.IsPositive() || p.Quantity < 0 {
			result.Skipped++
			continue
		}
		if p.ID == "" {
			p.ID = xid.New("prod")
		}
		if _, dup := seenProducts[p.ID]; dup {
			result.Skipped++
			continue
		}
		seenProducts[p.ID] = struct{}{}

		p.AddedDate = normalizeDate(p.AddedDate, today)
		if strings.TrimSpace(p.Image) == "" {
			p.Image = store.PlaceholderImage(len(products))
		}
		p.RecomputeProfit()
		products = append(products, p)
	}

	seenSales := make(map[string]struct{}, len(req.Sales))
	sales := make([]domain.Sale, 0, len(req.Sales))
	for _, in := range req.Sales {
		at, err := dateparse.ParseIn(strings.TrimSpace(in.SaleDate), time.UTC)
		method := strings.TrimSpace(in.PaymentMethod)
		if err != nil || in.QuantitySold < 1 || strings.TrimSpace(in.ProductID) == "" || !isPaymentMethod(method) {
			result.Skipped++
			continue
		}
		sale := domain.Sale{
			ID:            strings.TrimSpace(in.ID),
			ProductID:     strings.TrimSpace(in.ProductID),
			QuantitySold:  in.QuantitySold,
			CustomerName:  strings.TrimSpace(in.CustomerName),
			CustomerPhone: strings.TrimSpace(in.CustomerPhone),
			PaymentMethod: method,
			SaleDate:      at.UTC(),
			TotalProfit:   in.TotalProfit.Round(domain.MoneyPlaces),
		}
		if sale.ID == "" {
			sale.ID = xid.New("sale")
		}
		if _, dup := seenSales[sale.ID]; dup {
			result.Skipped++
			continue
		}
		seenSales[sale.ID] = struct{}{}
		sales = append(sales, sale)
	}

	if err := s.repo.ReplaceAll(ctx, products, sales); err != nil {
		return domain.ImportResult{}, err
	}

	result.Products = len(products)
	result.Sales = len(sales)
	s.logAudit(ctx, "import", "", zap.Int("products", result.Products), zap.Int("sales", result.Sales), zap.Int("skipped", result.Skipped))
	return result, nil
}

func normalizeDate(raw string, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	parsed, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return fallback
	}
	return parsed.UTC().Format(domain.DateLayout)
}

func isPaymentMethod(method string) bool {
	return method == domain.PaymentCash || method == domain.PaymentCard
}
