package service

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"

	"butik/backend/internal/clock"
	"butik/backend/internal/domain"
	"butik/backend/internal/events"
	"butik/backend/internal/pricing"
	"butik/backend/internal/stats"
	"butik/backend/internal/store"
	"butik/backend/internal/validation"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo      store.Repository
	advisor   *pricing.Advisor
	publisher events.Publisher
	validator *validation.Validator
	clock     clock.Clock
	logger    *zap.Logger
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(repo store.Repository, advisor *pricing.Advisor, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		advisor:   advisor,
		publisher: events.NoopPublisher{},
		validator: validation.New(),
		clock:     clock.RealClock{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.advisor == nil {
		s.advisor = pricing.NewAdvisor(nil, nil, 0, s.logger)
	}
	return s
}

func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	filter.Search = strings.ToLower(strings.TrimSpace(filter.Search))
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Sort = strings.ToLower(strings.TrimSpace(filter.Sort))

	if filter.Category != "" && !strings.EqualFold(filter.Category, "all") && !domain.IsCategory(filter.Category) {
		return nil, validation.Field("category", "must be one of: T-shirt, Hoodie, Pants")
	}
	switch filter.Sort {
	case "", domain.SortByName, domain.SortByNewest, domain.SortByStock:
	default:
		return nil, validation.Field("sort", "must be one of: name, newest, stock")
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), filter.Search) {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(filter.Category, "all") && p.Category != filter.Category {
			continue
		}
		filtered = append(filtered, p)
	}

	switch filter.Sort {
	case domain.SortByName:
		slices.SortStableFunc(filtered, func(a, b domain.Product) int {
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case domain.SortByNewest:
		slices.SortStableFunc(filtered, func(a, b domain.Product) int {
			return cmp.Compare(b.AddedDate, a.AddedDate)
		})
	case domain.SortByStock:
		slices.SortStableFunc(filtered, func(a, b domain.Product) int {
			return cmp.Compare(a.Quantity, b.Quantity)
		})
	}
	return filtered, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	in = normalizeProductInput(in)
	if err := s.validateProductInput(in); err != nil {
		return domain.Product{}, err
	}

	created, err := s.repo.CreateProduct(ctx, productFromInput(in))
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", created.ID, zap.String("name", created.Name), zap.Int("quantity", created.Quantity))
	return *created, nil
}

// UpdateProduct replaces a product's editable fields. An unknown id changes
// nothing and yields (nil, nil).
func (s *Service) UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	in = normalizeProductInput(in)
	if err := s.validateProductInput(in); err != nil {
		return nil, err
	}

	product := productFromInput(in)
	product.ID = strings.TrimSpace(id)
	updated, err := s.repo.UpdateProduct(ctx, product)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Debug("update skipped for unknown product", zap.String("product_id", product.ID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "product_update", updated.ID, zap.String("sell_price", updated.SellPrice.String()), zap.Int("quantity", updated.Quantity))
	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "product_delete", id)
	return nil
}

// RecordSale validates the request, then writes the sale and the stock
// decrement together. A sale.recorded event follows; publishing problems are
// logged and never undo the sale.
func (s *Service) RecordSale(ctx context.Context, req domain.SaleRequest) (domain.SaleResponse, error) {
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if err := s.validator.Struct(req); err != nil {
		return domain.SaleResponse{}, err
	}

	sale, product, err := s.repo.RecordSale(ctx, domain.Sale{
		ProductID:     req.ProductID,
		QuantitySold:  req.QuantitySold,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("sale rejected for unknown product", zap.String("product_id", req.ProductID))
		}
		return domain.SaleResponse{}, err
	}

	s.logAudit(ctx, "sale_record", sale.ID,
		zap.String("product_id", sale.ProductID),
		zap.Int("quantity", sale.QuantitySold),
		zap.String("total_profit", sale.TotalProfit.String()))

	event := domain.SaleEvent{Type: domain.EventSaleRecorded, Sale: *sale, OccurredAt: s.clock.Now().UTC()}
	if err := s.publisher.PublishSaleRecorded(ctx, event); err != nil {
		s.logger.Warn("failed to publish sale event", zap.String("sale_id", sale.ID), zap.Error(err))
	}

	return domain.SaleResponse{Sale: *sale, Product: *product}, nil
}

// ListSales joins each sale with its product, newest first. Sales whose
// product was deleted show placeholder names.
func (s *Service) ListSales(ctx context.Context) ([]domain.SaleView, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	views := make([]domain.SaleView, 0, len(sales))
	for _, sale := range sales {
		views = append(views, toSaleView(sale, byID))
	}
	slices.SortStableFunc(views, func(a, b domain.SaleView) int {
		return b.SaleDate.Compare(a.SaleDate)
	})
	return views, nil
}

func (s *Service) Dashboard(ctx context.Context) (domain.DashboardStats, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	return stats.Dashboard(products, sales), nil
}

// LowStock lists products at or below threshold, lowest stock first.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return stats.LowStock(products, threshold), nil
}

func (s *Service) logAudit(ctx context.Context, action string, entityID string, fields ...zap.Field) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system"}
	}
	base := []zap.Field{
		zap.String("action", action),
		zap.String("entity_id", entityID),
		zap.String("actor", actor.Username),
	}
	s.logger.Info("audit", append(base, fields...)...)
}

func toSaleView(sale domain.Sale, products map[string]domain.Product) domain.SaleView {
	view := domain.SaleView{
		Sale:            sale,
		ProductName:     domain.UnknownProductName,
		ProductCategory: domain.NotAvailable,
	}
	if p, ok := products[sale.ProductID]; ok {
		view.ProductName = p.Name
		view.ProductImage = p.Image
		view.ProductCategory = p.Category
	}
	return view
}
