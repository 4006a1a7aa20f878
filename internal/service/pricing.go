package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"butik/backend/internal/domain"
)

const salesHistoryLimit = 20

func (s *Service) PricingEnabled() bool {
	return s.advisor.Enabled()
}

func (s *Service) SuggestPrice(ctx context.Context, in domain.PricingSuggestionInput) (domain.PricingSuggestion, error) {
	return s.advisor.Suggest(ctx, in)
}

// SuggestPriceForProduct asks for a suggestion using the stored product and a
// plain-text summary of its recorded sales.
func (s *Service) SuggestPriceForProduct(ctx context.Context, id string) (domain.PricingSuggestion, error) {
	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.PricingSuggestion{}, err
	}
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.PricingSuggestion{}, err
	}

	return s.advisor.Suggest(ctx, domain.PricingSuggestionInput{
		ProductName:   product.Name,
		Category:      product.Category,
		BuyPrice:      product.BuyPrice,
		SellPrice:     product.SellPrice,
		Quantity:      product.Quantity,
		Color:         product.Color,
		Size:          product.Size,
		ProfitMargin:  product.MarginRatio(),
		PastSalesData: salesHistory(*product, sales),
	})
}

// salesHistory renders the most recent sales of one product, newest first.
func salesHistory(product domain.Product, sales []domain.Sale) string {
	own := make([]domain.Sale, 0)
	for _, sale := range sales {
		if sale.ProductID == product.ID {
			own = append(own, sale)
		}
	}
	if len(own) == 0 {
		return fmt.Sprintf("No sales recorded yet for %s since %s.", product.Name, product.AddedDate)
	}

	slices.SortStableFunc(own, func(a, b domain.Sale) int {
		return b.SaleDate.Compare(a.SaleDate)
	})

	units := 0
	for _, sale := range own {
		units += sale.QuantitySold
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d units sold across %d sales. Current sell price %s.\n", units, len(own), product.SellPrice.String())
	for i, sale := range own {
		if i == salesHistoryLimit {
			fmt.Fprintf(&b, "... %d older sales omitted\n", len(own)-salesHistoryLimit)
			break
		}
		fmt.Fprintf(&b, "%s: %d units, profit %s, paid by %s\n",
			sale.SaleDate.UTC().Format(domain.DateLayout),
			sale.QuantitySold,
			sale.TotalProfit.String(),
			sale.PaymentMethod)
	}
	return strings.TrimRight(b.String(), "\n")
}
