package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"butik/backend/internal/clock"
	"butik/backend/internal/domain"
	"butik/backend/internal/store"
	"butik/backend/internal/xid"
)

//go:embed schema.sql
var schema string

const productColumns = `id, name, category, buy_price, sell_price, quantity, color, size, image, profit, added_date`

const saleColumns = `id, product_id, quantity_sold, customer_name, customer_phone, payment_method, sale_date, total_profit`

type Store struct {
	db    *sql.DB
	clock clock.Clock
}

func New(ctx context.Context, databaseURL string, c clock.Clock) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if c == nil {
		c = clock.RealClock{}
	}
	return &Store{db: db, clock: c}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SeedIfEmpty writes the starter catalogue into an empty products table.
func (s *Store) SeedIfEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM products`).Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = pgTx.Rollback() }()

	for _, p := range store.SeedProducts() {
		if err := insertProduct(ctx, pgTx, p); err != nil {
			return false, err
		}
	}
	return true, pgTx.Commit()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := checkProduct(product); err != nil {
		return nil, err
	}

	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	product.ID = xid.New("prod")
	product.AddedDate = s.clock.Now().UTC().Format(domain.DateLayout)
	if strings.TrimSpace(product.Image) == "" {
		var count int
		if err := pgTx.QueryRowContext(ctx, `SELECT count(*) FROM products`).Scan(&count); err != nil {
			return nil, err
		}
		product.Image = store.PlaceholderImage(count)
	}
	product.RecomputeProfit()

	if err := insertProduct(ctx, pgTx, product); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidProduct
		}
		return nil, err
	}
	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := checkProduct(product); err != nil {
		return nil, err
	}
	product.RecomputeProfit()

	row := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, buy_price = $4, sell_price = $5, quantity = $6,
			color = $7, size = $8,
			image = COALESCE(NULLIF($9, ''), image),
			profit = $10,
			added_date = COALESCE(NULLIF($11, '')::date, added_date)
		WHERE id = $1
		RETURNING `+productColumns,
		product.ID, product.Name, product.Category, product.BuyPrice, product.SellPrice, product.Quantity,
		product.Color, product.Size, strings.TrimSpace(product.Image), product.Profit, product.AddedDate)
	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 128)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(
			&sale.ID, &sale.ProductID, &sale.QuantitySold, &sale.CustomerName, &sale.CustomerPhone,
			&sale.PaymentMethod, &sale.SaleDate, &sale.TotalProfit,
		); err != nil {
			return nil, err
		}
		sale.SaleDate = sale.SaleDate.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.QuantitySold < 1 {
		return nil, store.ErrInvalidSale
	}

	product, err := s.GetProduct(ctx, sale.ProductID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", sale.ProductID, err)
	}

	s.stampSale(&sale, *product)
	if err := insertSale(ctx, s.db, sale); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) RecordSale(ctx context.Context, sale domain.Sale) (*domain.Sale, *domain.Product, error) {
	if sale.QuantitySold < 1 {
		return nil, nil, store.ErrInvalidSale
	}

	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	row := pgTx.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, sale.ProductID)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("product %s: %w", sale.ProductID, store.ErrNotFound)
		}
		return nil, nil, err
	}
	if sale.QuantitySold > product.Quantity {
		return nil, nil, fmt.Errorf("product %s has %d left: %w", product.ID, product.Quantity, store.ErrInsufficientStock)
	}

	s.stampSale(&sale, product)
	if err := insertSale(ctx, pgTx, sale); err != nil {
		return nil, nil, err
	}
	if _, err := pgTx.ExecContext(ctx, `UPDATE products SET quantity = quantity - $2 WHERE id = $1`, product.ID, sale.QuantitySold); err != nil {
		return nil, nil, err
	}
	if err := pgTx.Commit(); err != nil {
		return nil, nil, err
	}

	product.Quantity -= sale.QuantitySold
	return &sale, &product, nil
}

func (s *Store) ReplaceAll(ctx context.Context, products []domain.Product, sales []domain.Sale) error {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	if _, err := pgTx.ExecContext(ctx, `DELETE FROM sales`); err != nil {
		return err
	}
	if _, err := pgTx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return err
	}
	for _, p := range products {
		p.RecomputeProfit()
		if err := insertProduct(ctx, pgTx, p); err != nil {
			return err
		}
	}
	for _, sale := range sales {
		if err := insertSale(ctx, pgTx, sale); err != nil {
			return err
		}
	}
	return pgTx.Commit()
}

func (s *Store) stampSale(sale *domain.Sale, product domain.Product) {
	sale.ID = xid.New("sale")
	sale.SaleDate = s.clock.Now().UTC()
	sale.TotalProfit = product.SaleProfit(sale.QuantitySold)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func insertProduct(ctx context.Context, db execer, p domain.Product) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::date)
	`, p.ID, p.Name, p.Category, p.BuyPrice, p.SellPrice, p.Quantity, p.Color, p.Size, p.Image, p.Profit, p.AddedDate)
	return err
}

func insertSale(ctx context.Context, db execer, sale domain.Sale) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sales (`+saleColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, sale.ID, sale.ProductID, sale.QuantitySold, sale.CustomerName, sale.CustomerPhone,
		sale.PaymentMethod, sale.SaleDate.UTC(), sale.TotalProfit)
	return err
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var added time.Time
	err := row.Scan(
		&p.ID, &p.Name, &p.Category, &p.BuyPrice, &p.SellPrice, &p.Quantity,
		&p.Color, &p.Size, &p.Image, &p.Profit, &added,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.AddedDate = added.UTC().Format(domain.DateLayout)
	return p, nil
}

func checkProduct(product domain.Product) error {
	if strings.TrimSpace(product.Name) == "" || !domain.IsCategory(product.Category) {
		return store.ErrInvalidProduct
	}
	if !product.BuyPrice.IsPositive() || !product.SellPrice.IsPositive() || product.Quantity < 0 {
		return store.ErrInvalidProduct
	}
	// NUMERIC(14, 2) would round anything finer and break profit == sell - buy
	if !domain.IsMoneyAmount(product.BuyPrice) || !domain.IsMoneyAmount(product.SellPrice) {
		return store.ErrInvalidProduct
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
