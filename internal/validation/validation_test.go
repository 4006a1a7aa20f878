package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butik/backend/internal/domain"
)

func validProduct() domain.ProductInput {
	return domain.ProductInput{
		Name:      "Classic Tee",
		Category:  domain.CategoryTShirt,
		BuyPrice:  decimal.NewFromInt(8),
		SellPrice: decimal.NewFromInt(20),
		Quantity:  0,
		Color:     "Black",
		Size:      "L",
	}
}

func TestValidProductPasses(t *testing.T) {
	assert.NoError(t, New().Struct(validProduct()))
}

func TestProductRulesUseJSONNames(t *testing.T) {
	in := validProduct()
	in.Name = "T"
	in.Category = "Socks"
	in.BuyPrice = decimal.Zero
	in.SellPrice = decimal.NewFromFloat(-1.5)
	in.Quantity = -1
	in.Color = "R"
	in.Size = ""

	err := New().Struct(in)
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be at least 2 characters", verr.Fields["name"])
	assert.Equal(t, "must be one of: T-shirt, Hoodie, Pants", verr.Fields["category"])
	assert.Equal(t, "must be greater than 0", verr.Fields["buyPrice"])
	assert.Contains(t, verr.Fields, "sellPrice")
	assert.Equal(t, "must be 0 or more", verr.Fields["quantity"])
	assert.Contains(t, verr.Fields, "color")
	assert.Equal(t, "is required", verr.Fields["size"])
	assert.Contains(t, err.Error(), "buyPrice: must be greater than 0")
}

func TestFractionalPricesAreAccepted(t *testing.T) {
	in := validProduct()
	in.BuyPrice = decimal.RequireFromString("0.01")
	assert.NoError(t, New().Struct(in))
}

func TestSaleRules(t *testing.T) {
	err := New().Struct(domain.SaleRequest{
		ProductID:     "prod-1",
		QuantitySold:  0,
		CustomerName:  "A",
		CustomerPhone: "123",
		PaymentMethod: "Bitcoin",
	})
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be at least 1", verr.Fields["quantitySold"])
	assert.Equal(t, "must be at least 2 characters", verr.Fields["customerName"])
	assert.Equal(t, "must be at least 5 characters", verr.Fields["customerPhone"])
	assert.Equal(t, "must be one of: Cash, Card", verr.Fields["paymentMethod"])
	assert.NotContains(t, verr.Fields, "productId")
}

func TestPricingInputMarginBounds(t *testing.T) {
	in := domain.PricingSuggestionInput{
		ProductName:   "Hoodie",
		Category:      domain.CategoryHoodie,
		BuyPrice:      decimal.NewFromInt(25),
		SellPrice:     decimal.NewFromInt(55),
		Quantity:      1,
		Color:         "Blue",
		Size:          "M",
		ProfitMargin:  1.2,
		PastSalesData: "short",
	}
	err := New().Struct(in)
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be 1 or less", verr.Fields["profitMargin"])
	assert.Equal(t, "must be at least 10 characters", verr.Fields["pastSalesData"])
	assert.Len(t, verr.Fields, 2)
}
