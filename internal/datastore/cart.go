package datastore

import (
	"context"
	"fmt"
	"slices"

	"tanepro-b2b/internal/domain"
)

// Cart returns the items in a customer's cart
func (s *Store) Cart(customerID string) []domain.CartItem {
	for _, c := range s.carts.get() {
		if c.CustomerID == customerID {
			return slices.Clone(c.Items)
		}
	}
	return []domain.CartItem{}
}

// AddToCart snapshots the product into the cart, merging with an existing line
// for the same product. A quantity below 1 adds one unit. The merged quantity
// is capped at the product's stock.
func (s *Store) AddToCart(ctx context.Context, customerID, productID string, quantity int) ([]domain.CartItem, error) {
	product, err := s.Product(productID)
	if err != nil {
		return nil, err
	}
	if product.StockQuantity <= 0 {
		return nil, domain.ErrOutOfStock
	}
	if quantity < 1 {
		quantity = 1
	}

	return s.updateCart(ctx, customerID, func(items []domain.CartItem) []domain.CartItem {
		i := slices.IndexFunc(items, func(it domain.CartItem) bool { return it.ID == productID })
		if i < 0 {
			return append(items, domain.CartItem{Product: product, Quantity: min(quantity, product.StockQuantity)})
		}
		items[i].Quantity = min(items[i].Quantity+quantity, product.StockQuantity)
		return items
	})
}

func (s *Store) RemoveFromCart(ctx context.Context, customerID, productID string) ([]domain.CartItem, error) {
	return s.updateCart(ctx, customerID, func(items []domain.CartItem) []domain.CartItem {
		return slices.DeleteFunc(items, func(it domain.CartItem) bool { return it.ID == productID })
	})
}

// UpdateCartQuantity sets a line's quantity; zero or less removes the line
func (s *Store) UpdateCartQuantity(ctx context.Context, customerID, productID string, quantity int) ([]domain.CartItem, error) {
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, customerID, productID)
	}
	return s.updateCart(ctx, customerID, func(items []domain.CartItem) []domain.CartItem {
		for i := range items {
			if items[i].ID == productID {
				items[i].Quantity = quantity
			}
		}
		return items
	})
}

func (s *Store) ClearCart(ctx context.Context, customerID string) error {
	_, err := s.updateCart(ctx, customerID, func([]domain.CartItem) []domain.CartItem {
		return []domain.CartItem{}
	})
	return err
}

func (s *Store) updateCart(ctx context.Context, customerID string, fn func([]domain.CartItem) []domain.CartItem) ([]domain.CartItem, error) {
	var result []domain.CartItem

	err := mutateLocal(ctx, s, &s.carts, func(carts []Cart) ([]Cart, error) {
		i := slices.IndexFunc(carts, func(c Cart) bool { return c.CustomerID == customerID })
		var items []domain.CartItem
		if i >= 0 {
			items = slices.Clone(carts[i].Items)
		}

		result = fn(items)
		if result == nil {
			result = []domain.CartItem{}
		}

		switch {
		case len(result) == 0 && i >= 0:
			return slices.Delete(carts, i, i+1), nil
		case len(result) == 0:
			return carts, nil
		case i >= 0:
			carts[i] = Cart{CustomerID: customerID, Items: result}
			return carts, nil
		default:
			return append(carts, Cart{CustomerID: customerID, Items: result}), nil
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	return slices.Clone(result), nil
}
