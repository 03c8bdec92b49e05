package service

import (
	"fmt"
	"time"

	"tanepro-b2b/internal/datastore"
	"tanepro-b2b/internal/domain"

	"github.com/shopspring/decimal"
)

type AdminOverview struct {
	Suppliers int `json:"suppliers"`
	Customers int `json:"customers"`
	Orders    int `json:"orders"`
	Products  int `json:"products"`
}

type SupplierOverview struct {
	Products    int             `json:"products"`
	OrdersToday int             `json:"ordersToday"`
	Revenue     decimal.Decimal `json:"revenue"`
	UnitsSold   int             `json:"unitsSold"`
}

type CustomerOverview struct {
	Orders        int             `json:"orders"`
	CartItems     int             `json:"cartItems"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
	PendingOrders int             `json:"pendingOrders"`
}

// OverviewService computes the dashboard figures of each role from the store
type OverviewService struct {
	store *datastore.Store
	now   func() time.Time
}

func NewOverviewService(store *datastore.Store, now func() time.Time) *OverviewService {
	if now == nil {
		now = time.Now
	}
	return &OverviewService{store: store, now: now}
}

// For returns the overview matching the role of profile
func (s *OverviewService) For(profile domain.UserProfile) (any, error) {
	switch profile.Role {
	case domain.RoleAdmin:
		return s.Admin(), nil
	case domain.RoleSupplier:
		return s.Supplier(profile.ID), nil
	case domain.RoleCustomer:
		return s.Customer(profile.ID), nil
	}
	return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, profile.Role)
}

func (s *OverviewService) Admin() AdminOverview {
	return AdminOverview{
		Suppliers: len(s.store.Suppliers()),
		Customers: len(s.store.Customers()),
		Orders:    len(s.store.Orders()),
		Products:  len(s.store.Products()),
	}
}

// Supplier counts only the supplier's own order lines. Revenue uses the
// price recorded on each line.
func (s *OverviewService) Supplier(supplierID string) SupplierOverview {
	out := SupplierOverview{
		Products: len(s.store.ProductsBySupplier(supplierID)),
		Revenue:  decimal.Zero,
	}

	y, m, d := s.now().Date()
	loc := s.now().Location()
	for _, order := range s.store.SupplierOrders(supplierID) {
		oy, om, od := order.CreatedAt.In(loc).Date()
		if oy == y && om == m && od == d {
			out.OrdersToday++
		}
		for _, item := range order.Items {
			out.UnitsSold += item.Quantity
			out.Revenue = out.Revenue.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return out
}

func (s *OverviewService) Customer(customerID string) CustomerOverview {
	out := CustomerOverview{
		CartItems:  len(s.store.Cart(customerID)),
		TotalSpent: decimal.Zero,
	}
	for _, order := range s.store.CustomerOrders(customerID) {
		out.Orders++
		out.TotalSpent = out.TotalSpent.Add(order.Total)
		if order.Status == domain.StatusPending {
			out.PendingOrders++
		}
	}
	return out
}
