package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Persisted arrays and API payloads carry money as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	CategoryTShirt = "T-shirt"
	CategoryHoodie = "Hoodie"
	CategoryPants  = "Pants"
)

const (
	PaymentCash = "Cash"
	PaymentCard = "Card"
)

const (
	DateLayout            = "2006-01-02"
	PlaceholderImageCount = 6
	RecentProductsLimit   = 5
	UnknownProductName    = "Unknown Product"
	NotAvailable          = "N/A"
	MoneyPlaces           = 2
)

// IsMoneyAmount reports whether d fits in MoneyPlaces decimal places.
func IsMoneyAmount(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyPlaces))
}

var Categories = []string{CategoryTShirt, CategoryHoodie, CategoryPants}

func IsCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	BuyPrice  decimal.Decimal `json:"buyPrice"`
	SellPrice decimal.Decimal `json:"sellPrice"`
	Quantity  int             `json:"quantity"`
	Color     string          `json:"color"`
	Size      string          `json:"size"`
	Image     string          `json:"image"`
	Profit    decimal.Decimal `json:"profit"`
	AddedDate string          `json:"addedDate"`
}

// RecomputeProfit restores profit == sellPrice - buyPrice.
func (p *Product) RecomputeProfit() {
	p.Profit = p.SellPrice.Sub(p.BuyPrice)
}

// SaleProfit is the margin earned on qty units at the current prices.
func (p Product) SaleProfit(qty int) decimal.Decimal {
	return p.SellPrice.Sub(p.BuyPrice).Mul(decimal.NewFromInt(int64(qty)))
}

// MarginRatio is profit per unit over sell price, clamped to [0, 1].
func (p Product) MarginRatio() float64 {
	if !p.SellPrice.IsPositive() {
		return 0
	}
	ratio, _ := p.SellPrice.Sub(p.BuyPrice).Div(p.SellPrice).Round(4).Float64()
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

type Sale struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"productId"`
	QuantitySold  int             `json:"quantitySold"`
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone"`
	PaymentMethod string          `json:"paymentMethod"`
	SaleDate      time.Time       `json:"saleDate"`
	TotalProfit   decimal.Decimal `json:"totalProfit"`
}

type ProductInput struct {
	Name      string          `json:"name" validate:"required,min=2"`
	Category  string          `json:"category" validate:"required,oneof=T-shirt Hoodie Pants"`
	BuyPrice  decimal.Decimal `json:"buyPrice" validate:"gt=0"`
	SellPrice decimal.Decimal `json:"sellPrice" validate:"gt=0"`
	Quantity  int             `json:"quantity" validate:"gte=0"`
	Color     string          `json:"color" validate:"required,min=2"`
	Size      string          `json:"size" validate:"required,min=1"`
	Image     string          `json:"image,omitempty"`
}

type ProductFilter struct {
	Search   string
	Category string
	Sort     string
}

const (
	SortByName   = "name"
	SortByNewest = "newest"
	SortByStock  = "stock"
)

type SaleRequest struct {
	ProductID     string `json:"productId" validate:"required"`
	QuantitySold  int    `json:"quantitySold" validate:"min=1"`
	CustomerName  string `json:"customerName" validate:"required,min=2"`
	CustomerPhone string `json:"customerPhone" validate:"required,min=5"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=Cash Card"`
}

type SaleView struct {
	Sale
	ProductName     string `json:"productName"`
	ProductImage    string `json:"productImage"`
	ProductCategory string `json:"productCategory"`
}

type SaleResponse struct {
	Sale    Sale    `json:"sale"`
	Product Product `json:"product"`
}

type BestSeller struct {
	ProductID string          `json:"productId,omitempty"`
	Name      string          `json:"name"`
	UnitsSold int             `json:"unitsSold"`
	Profit    decimal.Decimal `json:"profit"`
}

type WeeklyProfit struct {
	Week   string          `json:"week"`
	Profit decimal.Decimal `json:"profit"`
}

type DashboardStats struct {
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalProfit    decimal.Decimal `json:"totalProfit"`
	TotalUnitsSold int             `json:"totalUnitsSold"`
	BestSeller     BestSeller      `json:"bestSeller"`
	WeeklyProfit   []WeeklyProfit  `json:"weeklyProfit"`
	RecentProducts []Product       `json:"recentProducts"`
}

type PricingSuggestionInput struct {
	ProductName   string          `json:"productName" validate:"required,min=2"`
	Category      string          `json:"category" validate:"required,oneof=T-shirt Hoodie Pants"`
	BuyPrice      decimal.Decimal `json:"buyPrice" validate:"gt=0"`
	SellPrice     decimal.Decimal `json:"sellPrice" validate:"gt=0"`
	Quantity      int             `json:"quantity" validate:"min=1"`
	Color         string          `json:"color" validate:"required,min=2"`
	Size          string          `json:"size" validate:"required,min=1"`
	ProfitMargin  float64         `json:"profitMargin" validate:"gte=0,lte=1"`
	PastSalesData string          `json:"pastSalesData" validate:"required,min=10"`
}

type PricingSuggestion struct {
	SuggestedPrice      decimal.Decimal `json:"suggestedPrice"`
	ProfitTrendAnalysis string          `json:"profitTrendAnalysis"`
	LowSellingWarning   string          `json:"lowSellingWarning"`
	RestockSuggestion   string          `json:"restockSuggestion"`
	DailySmartTip       string          `json:"dailySmartTip"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
}

// ImportSale accepts the sale date as free-form text from older exports.
type ImportSale struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"productId"`
	QuantitySold  int             `json:"quantitySold"`
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone"`
	PaymentMethod string          `json:"paymentMethod"`
	SaleDate      string          `json:"saleDate"`
	TotalProfit   decimal.Decimal `json:"totalProfit"`
}

type ImportRequest struct {
	Products []Product    `json:"products"`
	Sales    []ImportSale `json:"sales"`
}

type ImportResult struct {
	Products int `json:"products"`
	Sales    int `json:"sales"`
	Skipped  int `json:"skipped"`
}

const EventSaleRecorded = "sale.recorded"

type SaleEvent struct {
	Type       string    `json:"type"`
	Sale       Sale      `json:"sale"`
	OccurredAt time.Time `json:"occurredAt"`
}
