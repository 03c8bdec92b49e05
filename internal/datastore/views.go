package datastore

import (
	"tanepro-b2b/internal/domain"
)

// ProductsWithDetails joins every product with its category and supplier
// names. Dangling references show as domain.UnknownReference.
func (s *Store) ProductsWithDetails() []domain.ProductDetails {
	categories := make(map[string]string)
	for _, c := range s.categories.get() {
		categories[c.ID] = c.Name
	}
	suppliers := make(map[string]string)
	for _, p := range s.suppliers.get() {
		suppliers[p.ID] = p.Name
	}

	products := s.products.get()
	out := make([]domain.ProductDetails, 0, len(products))
	for _, p := range products {
		d := domain.ProductDetails{
			Product:      p.Clone(),
			CategoryName: domain.UnknownReference,
			SupplierName: domain.UnknownReference,
		}
		if name, ok := categories[p.CategoryID]; ok {
			d.CategoryName = name
		}
		if name, ok := suppliers[p.SupplierID]; ok {
			d.SupplierName = name
		}
		out = append(out, d)
	}
	return out
}

func (s *Store) ProductsBySupplier(supplierID string) []domain.Product {
	out := []domain.Product{}
	for _, p := range s.products.get() {
		if p.SupplierID == supplierID {
			out = append(out, p.Clone())
		}
	}
	return out
}

func (s *Store) CustomerOrders(customerID string) []domain.Order {
	out := []domain.Order{}
	for _, o := range s.orders.get() {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out
}

// SupplierOrders returns the orders containing at least one of the supplier's
// products, with the items narrowed to those products. Totals are left as
// placed.
func (s *Store) SupplierOrders(supplierID string) []domain.Order {
	own := make(map[string]bool)
	for _, p := range s.products.get() {
		if p.SupplierID == supplierID {
			own[p.ID] = true
		}
	}

	out := []domain.Order{}
	for _, o := range s.orders.get() {
		var items []domain.OrderItem
		for _, it := range o.Items {
			if own[it.ProductID] {
				items = append(items, it)
			}
		}
		if len(items) > 0 {
			o.Items = items
			out = append(out, o)
		}
	}
	return out
}
