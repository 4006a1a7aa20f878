package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butik/backend/internal/clock"
	"butik/backend/internal/domain"
	"butik/backend/internal/events"
	"butik/backend/internal/kv"
	"butik/backend/internal/pricing"
	"butik/backend/internal/store"
	"butik/backend/internal/store/memory"
)

type stubGenerator struct {
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return `{"suggestedPrice": 30, "profitTrendAnalysis": "up", "lowSellingWarning": "", "restockSuggestion": "none", "dailySmartTip": "smile"}`, nil
}

type testEnv struct {
	svc       *Service
	clock     *clock.FixedClock
	publisher *events.RecordingPublisher
	generator *stubGenerator
}

func newTestService(t *testing.T) testEnv {
	t.Helper()
	fixed := clock.NewFixed(time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC))
	repo, err := memory.New(context.Background(), kv.NewMemoryStorage(), memory.WithClock(fixed))
	require.NoError(t, err)

	gen := &stubGenerator{}
	publisher := &events.RecordingPublisher{}
	svc := New(repo, pricing.NewAdvisor(gen, nil, 0, nil),
		WithClock(fixed),
		WithPublisher(publisher),
	)
	return testEnv{svc: svc, clock: fixed, publisher: publisher, generator: gen}
}

func productInput(name string, buy, sell int64, qty int) domain.ProductInput {
	return domain.ProductInput{
		Name:      name,
		Category:  domain.CategoryHoodie,
		BuyPrice:  decimal.NewFromInt(buy),
		SellPrice: decimal.NewFromInt(sell),
		Quantity:  qty,
		Color:     "Blue",
		Size:      "M",
	}
}

func saleRequest(productID string, qty int) domain.SaleRequest {
	return domain.SaleRequest{
		ProductID:     productID,
		QuantitySold:  qty,
		CustomerName:  "Rina Putri",
		CustomerPhone: "0812345678",
		PaymentMethod: domain.PaymentCash,
	}
}

func TestCreateProductValidates(t *testing.T) {
	env := newTestService(t)

	in := productInput(" H ", 0, 10, 1)
	in.Image = "https://example.com/x.png"
	_, err := env.svc.CreateProduct(context.Background(), in)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "buyPrice")

	in = productInput("Hoodie", 10, 20, 1)
	in.Image = "https://example.com/x.png"
	_, err = env.svc.CreateProduct(context.Background(), in)
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "image")
}

func TestProductPricesAllowAtMostTwoDecimals(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	in := productInput("Linen Tee", 10, 20, 1)
	in.BuyPrice = decimal.RequireFromString("0.001")
	in.SellPrice = decimal.RequireFromString("20.005")
	_, err := env.svc.CreateProduct(ctx, in)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must have at most 2 decimal places", verr.Fields["buyPrice"])
	assert.Equal(t, "must have at most 2 decimal places", verr.Fields["sellPrice"])

	in.BuyPrice = decimal.RequireFromString("10.40")
	in.SellPrice = decimal.RequireFromString("20.05")
	created, err := env.svc.CreateProduct(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "9.65", created.Profit.String())

	_, err = env.svc.UpdateProduct(ctx, created.ID, domain.ProductInput{
		Name: "Linen Tee", Category: domain.CategoryTShirt, Color: "Blue", Size: "M",
		BuyPrice: decimal.RequireFromString("10.004"), SellPrice: decimal.NewFromInt(20), Quantity: 1,
	})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "buyPrice")
}

func TestCreateAndUpdateKeepProfitInvariant(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	created, err := env.svc.CreateProduct(ctx, productInput("  Comfy Hoodie ", 25, 55, 80))
	require.NoError(t, err)
	assert.Equal(t, "Comfy Hoodie", created.Name)
	assert.True(t, created.Profit.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "2024-05-06", created.AddedDate)

	updated, err := env.svc.UpdateProduct(ctx, created.ID, productInput("Comfy Hoodie", 25, 60, 80))
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.True(t, updated.Profit.Equal(decimal.NewFromInt(35)))
	assert.Equal(t, created.Image, updated.Image)
}

func TestUpdateUnknownProductIsNoop(t *testing.T) {
	env := newTestService(t)

	updated, err := env.svc.UpdateProduct(context.Background(), "prod-missing", productInput("Ghost", 1, 2, 1))
	assert.NoError(t, err)
	assert.Nil(t, updated)

	products, err := env.svc.ListProducts(context.Background(), domain.ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestRecordSaleScenario(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	created, err := env.svc.CreateProduct(ctx, productInput("Premium Hoodie", 1000, 2500, 10))
	require.NoError(t, err)

	resp, err := env.svc.RecordSale(ctx, saleRequest(created.ID, 3))
	require.NoError(t, err)
	assert.True(t, resp.Sale.TotalProfit.Equal(decimal.NewFromInt(4500)))
	assert.Equal(t, 7, resp.Product.Quantity)

	published := env.publisher.Events()
	require.Len(t, published, 1)
	assert.Equal(t, domain.EventSaleRecorded, published[0].Type)
	assert.Equal(t, resp.Sale.ID, published[0].Sale.ID)

	_, err = env.svc.UpdateProduct(ctx, created.ID, productInput("Premium Hoodie", 1000, 4000, 7))
	require.NoError(t, err)

	dash, err := env.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.True(t, dash.TotalProfit.Equal(decimal.NewFromInt(4500)))
	assert.True(t, dash.TotalRevenue.Equal(decimal.NewFromInt(12000)))
	assert.Equal(t, 3, dash.TotalUnitsSold)
	assert.Equal(t, "Premium Hoodie", dash.BestSeller.Name)
}

func TestRecordSaleRejections(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	created, err := env.svc.CreateProduct(ctx, productInput("Hoodie", 10, 20, 2))
	require.NoError(t, err)

	_, err = env.svc.RecordSale(ctx, saleRequest(created.ID, 3))
	assert.ErrorIs(t, err, store.ErrInsufficientStock)

	_, err = env.svc.RecordSale(ctx, saleRequest("prod-missing", 1))
	assert.ErrorIs(t, err, store.ErrNotFound)

	bad := saleRequest(created.ID, 1)
	bad.PaymentMethod = "Crypto"
	bad.CustomerPhone = "12"
	_, err = env.svc.RecordSale(ctx, bad)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "paymentMethod")
	assert.Contains(t, verr.Fields, "customerPhone")

	product, err := env.svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, product.Quantity)
	assert.Empty(t, env.publisher.Events())
}

func TestRecordSaleSurvivesPublisherFailure(t *testing.T) {
	env := newTestService(t)
	env.publisher.Err = errors.New("broker unreachable")
	ctx := context.Background()

	created, err := env.svc.CreateProduct(ctx, productInput("Hoodie", 10, 20, 2))
	require.NoError(t, err)

	_, err = env.svc.RecordSale(ctx, saleRequest(created.ID, 1))
	require.NoError(t, err)
	sales, err := env.svc.ListSales(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestListSalesNewestFirstWithDeletedProducts(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	keep, err := env.svc.CreateProduct(ctx, productInput("Keeper", 10, 20, 5))
	require.NoError(t, err)
	gone, err := env.svc.CreateProduct(ctx, productInput("Goner", 10, 20, 5))
	require.NoError(t, err)

	_, err = env.svc.RecordSale(ctx, saleRequest(gone.ID, 1))
	require.NoError(t, err)
	env.clock.Advance(time.Hour)
	_, err = env.svc.RecordSale(ctx, saleRequest(keep.ID, 2))
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteProduct(ctx, gone.ID))
	require.NoError(t, env.svc.DeleteProduct(ctx, gone.ID))

	views, err := env.svc.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Keeper", views[0].ProductName)
	assert.Equal(t, domain.CategoryHoodie, views[0].ProductCategory)
	assert.Equal(t, domain.UnknownProductName, views[1].ProductName)
	assert.Equal(t, domain.NotAvailable, views[1].ProductCategory)
	assert.Equal(t, gone.ID, views[1].ProductID)

	dash, err := env.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.True(t, dash.TotalProfit.Equal(decimal.NewFromInt(30)))
}

func TestListProductsFilterAndSort(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	mk := func(name, category string, qty int) {
		in := productInput(name, 1, 2, qty)
		in.Category = category
		_, err := env.svc.CreateProduct(ctx, in)
		require.NoError(t, err)
		env.clock.Advance(24 * time.Hour)
	}
	mk("Blue Hoodie", domain.CategoryHoodie, 5)
	mk("black tee", domain.CategoryTShirt, 50)
	mk("Cargo Pants", domain.CategoryPants, 1)
	mk("Red Hoodie", domain.CategoryHoodie, 9)

	names := func(ps []domain.Product) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}

	got, err := env.svc.ListProducts(ctx, domain.ProductFilter{Search: "HOODIE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Blue Hoodie", "Red Hoodie"}, names(got))

	got, err = env.svc.ListProducts(ctx, domain.ProductFilter{Category: domain.CategoryPants})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cargo Pants"}, names(got))

	got, err = env.svc.ListProducts(ctx, domain.ProductFilter{Category: "all", Sort: domain.SortByName})
	require.NoError(t, err)
	assert.Equal(t, []string{"black tee", "Blue Hoodie", "Cargo Pants", "Red Hoodie"}, names(got))

	got, err = env.svc.ListProducts(ctx, domain.ProductFilter{Sort: domain.SortByNewest})
	require.NoError(t, err)
	assert.Equal(t, "Red Hoodie", got[0].Name)

	got, err = env.svc.ListProducts(ctx, domain.ProductFilter{Sort: domain.SortByStock})
	require.NoError(t, err)
	assert.Equal(t, "Cargo Pants", got[0].Name)

	_, err = env.svc.ListProducts(ctx, domain.ProductFilter{Sort: "price"})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestLowStock(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	_, err := env.svc.CreateProduct(ctx, productInput("Plenty", 1, 2, 50))
	require.NoError(t, err)
	_, err = env.svc.CreateProduct(ctx, productInput("Scarce", 1, 2, 3))
	require.NoError(t, err)

	low, err := env.svc.LowStock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Scarce", low[0].Name)
}

func TestSuggestPriceForProductBuildsHistory(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	created, err := env.svc.CreateProduct(ctx, productInput("Comfy Hoodie", 25, 50, 10))
	require.NoError(t, err)
	_, err = env.svc.RecordSale(ctx, saleRequest(created.ID, 2))
	require.NoError(t, err)

	got, err := env.svc.SuggestPriceForProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.SuggestedPrice.Equal(decimal.NewFromInt(30)))

	require.Len(t, env.generator.prompts, 1)
	prompt := env.generator.prompts[0]
	assert.Contains(t, prompt, "Product Name: Comfy Hoodie")
	assert.Contains(t, prompt, "Profit Margin: 0.5")
	assert.Contains(t, prompt, "Quantity: 8")
	assert.Contains(t, prompt, "2 units sold across 1 sales")
	assert.Contains(t, prompt, "2024-05-06: 2 units, profit 50, paid by Cash")

	_, err = env.svc.SuggestPriceForProduct(ctx, "prod-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSalesHistoryWithoutSales(t *testing.T) {
	p := domain.Product{ID: "prod-1", Name: "Tee", AddedDate: "2024-05-01"}
	assert.Equal(t, "No sales recorded yet for Tee since 2024-05-01.", salesHistory(p, nil))
}

func TestSuggestPriceDisabled(t *testing.T) {
	repo, err := memory.New(context.Background(), kv.NewMemoryStorage())
	require.NoError(t, err)
	svc := New(repo, nil)
	assert.False(t, svc.PricingEnabled())

	_, err = svc.SuggestPrice(context.Background(), domain.PricingSuggestionInput{
		ProductName:   "Hoodie",
		Category:      domain.CategoryHoodie,
		BuyPrice:      decimal.NewFromInt(1),
		SellPrice:     decimal.NewFromInt(2),
		Quantity:      1,
		Color:         "Blue",
		Size:          "M",
		ProfitMargin:  0.5,
		PastSalesData: "sold plenty last week",
	})
	assert.ErrorIs(t, err, pricing.ErrSuggestionFailed)
}

func TestExportSalesCSV(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	created, err := env.svc.CreateProduct(ctx, productInput("Hoodie", 1000, 2500, 10))
	require.NoError(t, err)
	resp, err := env.svc.RecordSale(ctx, saleRequest(created.ID, 3))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, env.svc.ExportSalesCSV(ctx, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{
		"id", "saleDate", "productId", "productName", "quantitySold",
		"customerName", "customerPhone", "paymentMethod", "totalProfit",
	}, records[0])
	assert.Equal(t, []string{
		resp.Sale.ID, "2024-05-06T09:00:00Z", created.ID, "Hoodie", "3",
		"Rina Putri", "0812345678", "Cash", "4500",
	}, records[1])
}

func TestImportNormalizesRows(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	result, err := env.svc.Import(ctx, domain.ImportRequest{
		Products: []domain.Product{
			{ID: "prod-1", Name: "Tee", Category: domain.CategoryTShirt, BuyPrice: decimal.NewFromInt(5), SellPrice: decimal.NewFromInt(12), Quantity: 4, AddedDate: "May 3, 2024"},
			{ID: "prod-1", Name: "Duplicate", Category: domain.CategoryTShirt, BuyPrice: decimal.NewFromInt(5), SellPrice: decimal.NewFromInt(12)},
			{Name: "Socks", Category: "Socks", BuyPrice: decimal.NewFromInt(1), SellPrice: decimal.NewFromInt(2)},
			{Name: "Pants", Category: domain.CategoryPants, BuyPrice: decimal.NewFromInt(10), SellPrice: decimal.NewFromInt(30), Quantity: 2},
		},
		Sales: []domain.ImportSale{
			{ID: "sale-1", ProductID: "prod-1", QuantitySold: 2, PaymentMethod: "Card", SaleDate: "2024-05-20T10:15:00.000Z", TotalProfit: decimal.NewFromInt(14)},
			{ID: "sale-2", ProductID: "prod-1", QuantitySold: 1, SaleDate: "not a date"},
			{ID: "sale-3", ProductID: "prod-old", QuantitySold: 1, PaymentMethod: "Cash", SaleDate: "2024/05/21", TotalProfit: decimal.NewFromInt(3)},
			{ID: "sale-4", ProductID: "prod-1", QuantitySold: 1, PaymentMethod: "Bitcoin", SaleDate: "2024-05-22", TotalProfit: decimal.NewFromInt(7)},
			{ID: "sale-5", ProductID: "prod-1", QuantitySold: 1, SaleDate: "2024-05-22", TotalProfit: decimal.NewFromInt(7)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ImportResult{Products: 2, Sales: 2, Skipped: 5}, result)

	products, err := env.svc.ListProducts(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "2024-05-03", products[0].AddedDate)
	assert.True(t, products[0].Profit.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, "product-1", products[0].Image)
	assert.Equal(t, "2024-05-06", products[1].AddedDate)
	assert.Equal(t, "product-2", products[1].Image)

	views, err := env.svc.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "sale-3", views[0].ID)
	assert.Equal(t, domain.UnknownProductName, views[0].ProductName)
	assert.Equal(t, time.Date(2024, 5, 20, 10, 15, 0, 0, time.UTC), views[1].SaleDate)
	for _, v := range views {
		assert.Contains(t, []string{domain.PaymentCash, domain.PaymentCard}, v.PaymentMethod)
	}
}

func TestImportRoundsMoneyToCents(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	result, err := env.svc.Import(ctx, domain.ImportRequest{
		Products: []domain.Product{
			{ID: "prod-1", Name: "Tee", Category: domain.CategoryTShirt, BuyPrice: decimal.RequireFromString("10.004"), SellPrice: decimal.RequireFromString("20.005"), Quantity: 1},
			{ID: "prod-2", Name: "Dust", Category: domain.CategoryTShirt, BuyPrice: decimal.RequireFromString("0.001"), SellPrice: decimal.NewFromInt(2), Quantity: 1},
		},
		Sales: []domain.ImportSale{
			{ID: "sale-1", ProductID: "prod-1", QuantitySold: 1, PaymentMethod: "Cash", SaleDate: "2024-05-20", TotalProfit: decimal.RequireFromString("10.006")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ImportResult{Products: 1, Sales: 1, Skipped: 1}, result)

	product, err := env.svc.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "20.01", product.SellPrice.StringFixed(2))
	assert.Equal(t, "10", product.BuyPrice.String())
	assert.True(t, product.Profit.Equal(product.SellPrice.Sub(product.BuyPrice)))

	views, err := env.svc.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "10.01", views[0].TotalProfit.String())
}

func TestActorRoundTrip(t *testing.T) {
	ctx := WithActor(context.Background(), domain.Actor{Username: "owner"})
	actor, ok := ActorFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "owner", actor.Username)

	_, ok = ActorFromContext(context.Background())
	assert.False(t, ok)
}
