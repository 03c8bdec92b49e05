package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"tanepro-b2b/internal/domain"
)

// ProductRepository defines the data access of the remote products table
type ProductRepository interface {
	// CreateMany inserts all products in one transaction
	CreateMany(ctx context.Context, products []*domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// List returns every product, oldest first
	List(ctx context.Context) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, category_id, supplier_id, stock_quantity,
	shelf_price, selling_price, images, created_at, updated_at`

func (r *productRepository) CreateMany(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare product insert: %w", err)
	}
	defer stmt.Close()

	for _, product := range products {
		images, err := encodeImages(product.Images)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(
			ctx,
			product.ID,
			product.Name,
			product.Description,
			product.CategoryID,
			product.SupplierID,
			product.StockQuantity,
			product.ShelfPrice,
			product.SellingPrice,
			images,
			product.CreatedAt,
			product.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create product %q: %w", product.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	images, err := encodeImages(product.Images)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = $2, description = $3, category_id = $4, supplier_id = $5, stock_quantity = $6,
		    shelf_price = $7, selling_price = $8, images = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.CategoryID,
		product.SupplierID,
		product.StockQuantity,
		product.ShelfPrice,
		product.SellingPrice,
		images,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return expectRow(result, domain.ErrProductNotFound)
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectRow(result, domain.ErrProductNotFound)
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*domain.Product, error) {
	product := &domain.Product{}
	var images []byte
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.CategoryID,
		&product.SupplierID,
		&product.StockQuantity,
		&product.ShelfPrice,
		&product.SellingPrice,
		&images,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.Images = []string{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &product.Images); err != nil {
			return nil, fmt.Errorf("invalid images of product %s: %w", product.ID, err)
		}
	}
	return product, nil
}

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	raw, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("failed to encode images: %w", err)
	}
	return string(raw), nil
}

func expectRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
