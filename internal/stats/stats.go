// Package stats derives dashboard figures from the product and sale lists.
// Every function is pure and tolerates sales whose product no longer exists.
package stats

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"butik/backend/internal/domain"
)

// TotalRevenue prices every sale at the referenced product's current sell
// price. Sales of deleted products contribute nothing.
func TotalRevenue(products []domain.Product, sales []domain.Sale) decimal.Decimal {
	byID := indexProducts(products)
	total := decimal.Zero
	for _, sale := range sales {
		p, ok := byID[sale.ProductID]
		if !ok {
			continue
		}
		total = total.Add(p.SellPrice.Mul(decimal.NewFromInt(int64(sale.QuantitySold))))
	}
	return total
}

func TotalProfit(sales []domain.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.TotalProfit)
	}
	return total
}

func TotalUnitsSold(sales []domain.Sale) int {
	units := 0
	for _, sale := range sales {
		units += sale.QuantitySold
	}
	return units
}

// NoBestSeller is reported when nothing in the product list has sold.
func NoBestSeller() domain.BestSeller {
	return domain.BestSeller{Name: domain.NotAvailable, Profit: decimal.Zero}
}

// BestSeller ranks products by units sold. Ties go to the product that comes
// first in the list.
func BestSeller(products []domain.Product, sales []domain.Sale) domain.BestSeller {
	units := make(map[string]int, len(products))
	profit := make(map[string]decimal.Decimal, len(products))
	for _, sale := range sales {
		units[sale.ProductID] += sale.QuantitySold
		profit[sale.ProductID] = profit[sale.ProductID].Add(sale.TotalProfit)
	}

	best := NoBestSeller()
	for _, p := range products {
		sold := units[p.ID]
		if sold == 0 || sold <= best.UnitsSold {
			continue
		}
		best = domain.BestSeller{
			ProductID: p.ID,
			Name:      p.Name,
			UnitsSold: sold,
			Profit:    profit[p.ID],
		}
	}
	return best
}

// WeekStart returns 00:00 UTC of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

// WeeklyProfit buckets frozen sale profit into Monday-aligned UTC weeks,
// oldest first. Only weeks with at least one sale appear.
func WeeklyProfit(sales []domain.Sale) []domain.WeeklyProfit {
	buckets := make(map[string]decimal.Decimal)
	for _, sale := range sales {
		week := WeekStart(sale.SaleDate).Format(domain.DateLayout)
		buckets[week] = buckets[week].Add(sale.TotalProfit)
	}

	// ISO dates sort chronologically as strings.
	weeks := make([]string, 0, len(buckets))
	for week := range buckets {
		weeks = append(weeks, week)
	}
	slices.Sort(weeks)

	series := make([]domain.WeeklyProfit, 0, len(weeks))
	for _, week := range weeks {
		series = append(series, domain.WeeklyProfit{Week: week, Profit: buckets[week]})
	}
	return series
}

// RecentProducts returns up to n products, newest addedDate first. Products
// added on the same day keep their list order.
func RecentProducts(products []domain.Product, n int) []domain.Product {
	if n <= 0 {
		return []domain.Product{}
	}
	sorted := slices.Clone(products)
	slices.SortStableFunc(sorted, func(a, b domain.Product) int {
		return cmp.Compare(b.AddedDate, a.AddedDate)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	if sorted == nil {
		sorted = []domain.Product{}
	}
	return sorted
}

// LowStock lists products whose quantity is at or below threshold, lowest first.
func LowStock(products []domain.Product, threshold int) []domain.Product {
	low := make([]domain.Product, 0)
	for _, p := range products {
		if p.Quantity <= threshold {
			low = append(low, p)
		}
	}
	slices.SortStableFunc(low, func(a, b domain.Product) int {
		return cmp.Compare(a.Quantity, b.Quantity)
	})
	return low
}

func Dashboard(products []domain.Product, sales []domain.Sale) domain.DashboardStats {
	return domain.DashboardStats{
		TotalRevenue:   TotalRevenue(products, sales),
		TotalProfit:    TotalProfit(sales),
		TotalUnitsSold: TotalUnitsSold(sales),
		BestSeller:     BestSeller(products, sales),
		WeeklyProfit:   WeeklyProfit(sales),
		RecentProducts: RecentProducts(products, domain.RecentProductsLimit),
	}
}

func indexProducts(products []domain.Product) map[string]domain.Product {
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID
}
