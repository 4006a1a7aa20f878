package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"butik/backend/internal/clock"
	"butik/backend/internal/domain"
	"butik/backend/internal/kv"
	"butik/backend/internal/store"
	"butik/backend/internal/xid"
)

const (
	ProductsKey = "products"
	SalesKey    = "sales"
)

// Store keeps both lists in memory and mirrors every mutation to a kv.Storage.
// A failed write is logged and the in-memory state is kept.
type Store struct {
	mu       sync.RWMutex
	products []domain.Product
	sales    []domain.Sale
	storage  kv.Storage
	clock    clock.Clock
	logger   *zap.Logger
}

type Option func(*Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New loads whatever lists the storage already holds. Missing keys start empty.
func New(ctx context.Context, storage kv.Storage, opts ...Option) (*Store, error) {
	return open(ctx, storage, false, opts)
}

// NewSeeded is New, but writes the starter catalogue when no product list exists.
func NewSeeded(ctx context.Context, storage kv.Storage, opts ...Option) (*Store, error) {
	return open(ctx, storage, true, opts)
}

func open(ctx context.Context, storage kv.Storage, seed bool, opts []Option) (*Store, error) {
	if storage == nil {
		storage = kv.NewMemoryStorage()
	}
	s := &Store{
		products: []domain.Product{},
		sales:    []domain.Sale{},
		storage:  storage,
		clock:    clock.RealClock{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	rawProducts, ok, err := storage.Get(ctx, ProductsKey)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ProductsKey, err)
	}
	switch {
	case ok:
		if err := json.Unmarshal(rawProducts, &s.products); err != nil {
			s.logger.Error("failed to decode stored products", zap.Error(err))
			s.products = []domain.Product{}
			if seed {
				s.products = store.SeedProducts()
				s.persist(ctx, ProductsKey, s.products)
			}
		}
	case seed:
		s.products = store.SeedProducts()
		s.persist(ctx, ProductsKey, s.products)
	}

	rawSales, ok, err := storage.Get(ctx, SalesKey)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", SalesKey, err)
	}
	if ok {
		if err := json.Unmarshal(rawSales, &s.sales); err != nil {
			s.logger.Error("failed to decode stored sales", zap.Error(err))
			s.sales = []domain.Sale{}
		}
	}
	if s.products == nil {
		s.products = []domain.Product{}
	}
	if s.sales == nil {
		s.sales = []domain.Sale{}
	}

	return s, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.products), nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, store.ErrNotFound
	}
	product := s.products[idx]
	return &product, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := checkProduct(product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product.ID = xid.New("prod")
	product.AddedDate = s.clock.Now().UTC().Format(domain.DateLayout)
	if strings.TrimSpace(product.Image) == "" {
		product.Image = store.PlaceholderImage(len(s.products))
	}
	product.RecomputeProfit()

	s.products = append(s.products, product)
	s.persist(ctx, ProductsKey, s.products)

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := checkProduct(product); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(product.ID)
	if idx < 0 {
		return nil, store.ErrNotFound
	}

	current := s.products[idx]
	if product.AddedDate == "" {
		product.AddedDate = current.AddedDate
	}
	if strings.TrimSpace(product.Image) == "" {
		product.Image = current.Image
	}
	product.RecomputeProfit()

	s.products[idx] = product
	s.persist(ctx, ProductsKey, s.products)

	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	s.products = slices.Delete(s.products, idx, idx+1)
	s.persist(ctx, ProductsKey, s.products)
	return nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.sales), nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.QuantitySold < 1 {
		return nil, store.ErrInvalidSale
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(sale.ProductID)
	if idx < 0 {
		return nil, fmt.Errorf("product %s: %w", sale.ProductID, store.ErrNotFound)
	}

	created := s.appendSale(sale, s.products[idx])
	s.persist(ctx, SalesKey, s.sales)
	return &created, nil
}

func (s *Store) RecordSale(ctx context.Context, sale domain.Sale) (*domain.Sale, *domain.Product, error) {
	if sale.QuantitySold < 1 {
		return nil, nil, store.ErrInvalidSale
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(sale.ProductID)
	if idx < 0 {
		return nil, nil, fmt.Errorf("product %s: %w", sale.ProductID, store.ErrNotFound)
	}
	product := s.products[idx]
	if sale.QuantitySold > product.Quantity {
		return nil, nil, fmt.Errorf("product %s has %d left: %w", product.ID, product.Quantity, store.ErrInsufficientStock)
	}

	created := s.appendSale(sale, product)
	product.Quantity -= sale.QuantitySold
	s.products[idx] = product

	s.persist(ctx, SalesKey, s.sales)
	s.persist(ctx, ProductsKey, s.products)

	updated := product
	return &created, &updated, nil
}

func (s *Store) ReplaceAll(ctx context.Context, products []domain.Product, sales []domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = slices.Clone(products)
	s.sales = slices.Clone(sales)
	if s.products == nil {
		s.products = []domain.Product{}
	}
	if s.sales == nil {
		s.sales = []domain.Sale{}
	}
	for i := range s.products {
		s.products[i].RecomputeProfit()
	}

	s.persist(ctx, ProductsKey, s.products)
	s.persist(ctx, SalesKey, s.sales)
	return nil
}

// appendSale freezes the sale's profit from the product's current margin.
// Caller holds the write lock.
func (s *Store) appendSale(sale domain.Sale, product domain.Product) domain.Sale {
	sale.ID = xid.New("sale")
	sale.SaleDate = s.clock.Now().UTC()
	sale.TotalProfit = product.SaleProfit(sale.QuantitySold)
	s.sales = append(s.sales, sale)
	return sale
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.products, func(p domain.Product) bool {
		return p.ID == id
	})
}

func (s *Store) persist(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("failed to encode list", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.storage.Set(ctx, key, payload); err != nil {
		s.logger.Error("failed to persist list", zap.String("key", key), zap.Error(err))
	}
}

func checkProduct(product domain.Product) error {
	if strings.TrimSpace(product.Name) == "" || !domain.IsCategory(product.Category) {
		return store.ErrInvalidProduct
	}
	if !product.BuyPrice.IsPositive() || !product.SellPrice.IsPositive() || product.Quantity < 0 {
		return store.ErrInvalidProduct
	}
	return nil
}
