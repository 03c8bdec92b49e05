package repository

import (
	"context"
	"fmt"

	"tanepro-b2b/internal/domain"
)

// Catalog exposes the products and categories tables as the remote backend
// of the data store. Every failure is reported as domain.ErrRemoteUnavailable.
type Catalog struct {
	products   ProductRepository
	categories CategoryRepository
}

func NewCatalog(products ProductRepository, categories CategoryRepository) *Catalog {
	return &Catalog{products: products, categories: categories}
}

func remoteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrRemoteUnavailable, op, err)
}

func (c *Catalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := c.products.List(ctx)
	if err != nil {
		return nil, remoteErr("list products", err)
	}
	out := make([]domain.Product, len(rows))
	for i, p := range rows {
		out[i] = *p
	}
	return out, nil
}

func (c *Catalog) InsertProducts(ctx context.Context, products []domain.Product) error {
	rows := make([]*domain.Product, len(products))
	for i := range products {
		rows[i] = &products[i]
	}
	return remoteErr("insert products", c.products.CreateMany(ctx, rows))
}

func (c *Catalog) UpdateProduct(ctx context.Context, product domain.Product) error {
	return remoteErr("update product", c.products.Update(ctx, &product))
}

func (c *Catalog) DeleteProduct(ctx context.Context, id string) error {
	return remoteErr("delete product", c.products.Delete(ctx, id))
}

func (c *Catalog) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := c.categories.List(ctx)
	if err != nil {
		return nil, remoteErr("list categories", err)
	}
	out := make([]domain.Category, len(rows))
	for i, cat := range rows {
		out[i] = *cat
	}
	return out, nil
}

func (c *Catalog) InsertCategory(ctx context.Context, category domain.Category) error {
	return remoteErr("insert category", c.categories.Create(ctx, &category))
}

func (c *Catalog) UpdateCategory(ctx context.Context, category domain.Category) error {
	return remoteErr("update category", c.categories.Update(ctx, &category))
}

func (c *Catalog) DeleteCategory(ctx context.Context, id string) error {
	return remoteErr("delete category", c.categories.Delete(ctx, id))
}
