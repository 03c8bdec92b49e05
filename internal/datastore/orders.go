package datastore

import (
	"context"
	"fmt"
	"slices"

	"tanepro-b2b/internal/domain"

	"go.uber.org/zap"
)

// Order returns the order with the given id
func (s *Store) Order(id string) (domain.Order, error) {
	for _, o := range s.orders.get() {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

// CreateOrder stores a new pending order. The total is computed from the
// items here and never recomputed.
func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	now := s.now()
	order.ID = s.newID()
	order.Items = slices.Clone(order.Items)
	order.Total = domain.OrderTotal(order.Items)
	order.Status = domain.StatusPending
	order.CreatedAt = now
	order.UpdatedAt = now

	err := mutateLocal(ctx, s, &s.orders, func(items []domain.Order) ([]domain.Order, error) {
		return append(items, order), nil
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

// Checkout turns the customer's cart into an order priced at the products'
// selling prices, then takes the ordered quantities out of the cart. Lines
// added while the order was being placed stay in the cart.
func (s *Store) Checkout(ctx context.Context, customerID, customerName, address string) (domain.Order, error) {
	cart := s.Cart(customerID)
	if len(cart) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(cart))
	for _, line := range cart {
		items = append(items, domain.OrderItem{
			ProductID:   line.ID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			Price:       line.SellingPrice,
		})
	}

	order, err := s.CreateOrder(ctx, domain.Order{
		CustomerID:   customerID,
		CustomerName: customerName,
		Items:        items,
		Address:      address,
	})
	if err != nil {
		return domain.Order{}, err
	}

	if _, err := s.updateCart(ctx, customerID, func(lines []domain.CartItem) []domain.CartItem {
		return withoutOrdered(lines, items)
	}); err != nil {
		s.logger.Warn("Order placed but cart was not cleared",
			zap.String("order_id", order.ID),
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
	}
	return order, nil
}

// UpdateOrderStatus sets the status of an order. The status is stored as
// given; an unknown order id leaves the collection unchanged.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	now := s.now()
	err := mutateLocal(ctx, s, &s.orders, func(items []domain.Order) ([]domain.Order, error) {
		for i := range items {
			if items[i].ID == id {
				items[i].Status = status
				items[i].UpdatedAt = now
			}
		}
		return items, nil
	})
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}
	return nil
}

// withoutOrdered subtracts the ordered quantity of each product from the cart
func withoutOrdered(lines []domain.CartItem, ordered []domain.OrderItem) []domain.CartItem {
	quantities := make(map[string]int, len(ordered))
	for _, item := range ordered {
		quantities[item.ProductID] += item.Quantity
	}
	kept := lines[:0]
	for _, line := range lines {
		line.Quantity -= quantities[line.ID]
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	return kept
}
