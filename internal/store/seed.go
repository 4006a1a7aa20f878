package store

import (
	"github.com/shopspring/decimal"

	"butik/backend/internal/domain"
)

// SeedProducts is the starter catalogue written when no product list exists yet.
func SeedProducts() []domain.Product {
	seed := []domain.Product{
		seedProduct("prod-001", "Classic Black Tee", domain.CategoryTShirt, 8, 20, 150, "Black", "L", "2024-05-20"),
		seedProduct("prod-002", "Comfy Blue Hoodie", domain.CategoryHoodie, 25, 55, 80, "Blue", "M", "2024-05-18"),
		seedProduct("prod-003", "Slim Fit Gray Pants", domain.CategoryPants, 30, 60, 60, "Gray", "32", "2024-05-15"),
		seedProduct("prod-004", "Plain White Tee", domain.CategoryTShirt, 7, 18, 200, "White", "S", "2024-05-12"),
		seedProduct("prod-005", "Street Style Red Hoodie", domain.CategoryHoodie, 28, 65, 45, "Red", "XL", "2024-05-10"),
		seedProduct("prod-006", "Everyday Black Pants", domain.CategoryPants, 22, 45, 70, "Black", "34", "2024-05-09"),
	}
	for i := range seed {
		seed[i].Image = PlaceholderImage(i)
	}
	return seed
}

func seedProduct(id, name, category string, buy, sell int64, qty int, color, size, added string) domain.Product {
	p := domain.Product{
		ID:        id,
		Name:      name,
		Category:  category,
		BuyPrice:  decimal.NewFromInt(buy),
		SellPrice: decimal.NewFromInt(sell),
		Quantity:  qty,
		Color:     color,
		Size:      size,
		AddedDate: added,
	}
	p.RecomputeProfit()
	return p
}
