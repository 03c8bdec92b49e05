package datastore

import (
	"context"
	"fmt"
	"slices"

	"tanepro-b2b/internal/domain"

	"github.com/shopspring/decimal"
)

// ProductPatch lists the product fields to change. Nil fields are kept.
type ProductPatch struct {
	Name          *string
	Description   *string
	CategoryID    *string
	SupplierID    *string
	StockQuantity *int
	ShelfPrice    *decimal.Decimal
	SellingPrice  *decimal.Decimal
	Images        []string
}

func (p ProductPatch) apply(product *domain.Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.CategoryID != nil {
		product.CategoryID = *p.CategoryID
	}
	if p.SupplierID != nil {
		product.SupplierID = *p.SupplierID
	}
	if p.StockQuantity != nil {
		product.StockQuantity = *p.StockQuantity
	}
	if p.ShelfPrice != nil {
		product.ShelfPrice = *p.ShelfPrice
	}
	if p.SellingPrice != nil {
		product.SellingPrice = *p.SellingPrice
	}
	if p.Images != nil {
		product.Images = slices.Clone(p.Images)
	}
}

// CategoryPatch lists the category fields to change. Nil fields are kept.
type CategoryPatch struct {
	Name        *string
	Description *string
}

// replaceByID swaps in entity wherever its id is present
func replaceByID[T any](entity T, idOf func(T) string) func([]T) []T {
	id := idOf(entity)
	return func(items []T) []T {
		for i := range items {
			if idOf(items[i]) == id {
				items[i] = entity
			}
		}
		return items
	}
}

func removeByID[T any](id string, idOf func(T) string) func([]T) []T {
	return func(items []T) []T {
		return slices.DeleteFunc(items, func(item T) bool { return idOf(item) == id })
	}
}

// Product returns the product with the given id
func (s *Store) Product(id string) (domain.Product, error) {
	for _, p := range s.products.get() {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

// AddProduct inserts a product with a generated id and timestamps
func (s *Store) AddProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	added, err := s.insertProducts(ctx, []domain.Product{product})
	if err != nil {
		return domain.Product{}, fmt.Errorf("failed to add product: %w", err)
	}
	return added[0], nil
}

// AddProducts inserts a batch of products in one remote write. Either every
// product is added or none is.
func (s *Store) AddProducts(ctx context.Context, products []domain.Product) ([]domain.Product, error) {
	if len(products) == 0 {
		return []domain.Product{}, nil
	}
	added, err := s.insertProducts(ctx, products)
	if err != nil {
		return nil, fmt.Errorf("failed to add %d products: %w", len(products), err)
	}
	return added, nil
}

func (s *Store) insertProducts(ctx context.Context, products []domain.Product) ([]domain.Product, error) {
	now := s.now()
	added := make([]domain.Product, len(products))
	for i, p := range products {
		p = p.Clone()
		p.ID = s.newID()
		p.CreatedAt = now
		p.UpdatedAt = now
		if p.Images == nil {
			p.Images = []string{}
		}
		added[i] = p
	}

	err := optimistic(ctx, s, &s.products,
		func([]domain.Product) (func([]domain.Product) []domain.Product, error) {
			return func(items []domain.Product) []domain.Product {
				return append(items, added...)
			}, nil
		},
		func(rctx context.Context) error {
			return s.catalog.InsertProducts(rctx, added)
		},
	)
	if err != nil {
		return nil, err
	}

	s.refreshProducts(ctx)
	return added, nil
}

// UpdateProduct applies patch to the product and stamps updated_at
func (s *Store) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (domain.Product, error) {
	var updated domain.Product

	err := optimistic(ctx, s, &s.products,
		func(items []domain.Product) (func([]domain.Product) []domain.Product, error) {
			i := slices.IndexFunc(items, func(p domain.Product) bool { return p.ID == id })
			if i < 0 {
				return nil, domain.ErrProductNotFound
			}
			updated = items[i].Clone()
			patch.apply(&updated)
			updated.UpdatedAt = s.now()
			return replaceByID(updated, func(p domain.Product) string { return p.ID }), nil
		},
		func(rctx context.Context) error {
			return s.catalog.UpdateProduct(rctx, updated)
		},
	)
	if err != nil {
		return domain.Product{}, fmt.Errorf("failed to update product %s: %w", id, err)
	}

	s.refreshProducts(ctx)
	return updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	err := optimistic(ctx, s, &s.products,
		func(items []domain.Product) (func([]domain.Product) []domain.Product, error) {
			if !slices.ContainsFunc(items, func(p domain.Product) bool { return p.ID == id }) {
				return nil, domain.ErrProductNotFound
			}
			return removeByID(id, func(p domain.Product) string { return p.ID }), nil
		},
		func(rctx context.Context) error {
			return s.catalog.DeleteProduct(rctx, id)
		},
	)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	s.refreshProducts(ctx)
	return nil
}

// Category returns the category with the given id
func (s *Store) Category(id string) (domain.Category, error) {
	for _, c := range s.categories.get() {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Category{}, domain.ErrCategoryNotFound
}

func (s *Store) AddCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	category.ID = s.newID()
	category.CreatedAt = s.now()

	err := optimistic(ctx, s, &s.categories,
		func([]domain.Category) (func([]domain.Category) []domain.Category, error) {
			return func(items []domain.Category) []domain.Category {
				return append(items, category)
			}, nil
		},
		func(rctx context.Context) error {
			return s.catalog.InsertCategory(rctx, category)
		},
	)
	if err != nil {
		return domain.Category{}, fmt.Errorf("failed to add category: %w", err)
	}
	return category, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (domain.Category, error) {
	var updated domain.Category

	err := optimistic(ctx, s, &s.categories,
		func(items []domain.Category) (func([]domain.Category) []domain.Category, error) {
			i := slices.IndexFunc(items, func(c domain.Category) bool { return c.ID == id })
			if i < 0 {
				return nil, domain.ErrCategoryNotFound
			}
			updated = items[i]
			if patch.Name != nil {
				updated.Name = *patch.Name
			}
			if patch.Description != nil {
				updated.Description = *patch.Description
			}
			return replaceByID(updated, func(c domain.Category) string { return c.ID }), nil
		},
		func(rctx context.Context) error {
			return s.catalog.UpdateCategory(rctx, updated)
		},
	)
	if err != nil {
		return domain.Category{}, fmt.Errorf("failed to update category %s: %w", id, err)
	}
	return updated, nil
}

// DeleteCategory removes a category. Products referencing it are left as is.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	err := optimistic(ctx, s, &s.categories,
		func(items []domain.Category) (func([]domain.Category) []domain.Category, error) {
			if !slices.ContainsFunc(items, func(c domain.Category) bool { return c.ID == id }) {
				return nil, domain.ErrCategoryNotFound
			}
			return removeByID(id, func(c domain.Category) string { return c.ID }), nil
		},
		func(rctx context.Context) error {
			return s.catalog.DeleteCategory(rctx, id)
		},
	)
	if err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}
	return nil
}
