package store

import (
	"context"
	"errors"
	"strconv"

	"butik/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrInvalidSale       = errors.New("invalid sale")
)

// Repository owns the product and sale lists. Implementations assign ids,
// dates and derived money fields; callers pass validated input only.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListSales(ctx context.Context) ([]domain.Sale, error)
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	// RecordSale checks stock, appends the sale and decrements stock as one
	// unit of work.
	RecordSale(ctx context.Context, sale domain.Sale) (*domain.Sale, *domain.Product, error)
	ReplaceAll(ctx context.Context, products []domain.Product, sales []domain.Sale) error
}

// PlaceholderImage cycles through the bundled product images by list size.
func PlaceholderImage(existing int) string {
	if existing < 0 {
		existing = 0
	}
	return "product-" + strconv.Itoa(existing%domain.PlaceholderImageCount+1)
}
