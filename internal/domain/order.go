package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusInTransit OrderStatus = "in_transit"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

var orderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusInTransit,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

var orderStatusLabels = map[OrderStatus]string{
	StatusPending:   "Beklemede",
	StatusConfirmed: "Onaylandı",
	StatusPreparing: "Hazırlanıyor",
	StatusInTransit: "Dağıtımda",
	StatusShipped:   "Kargoya Verildi",
	StatusDelivered: "Teslim Edildi",
	StatusCancelled: "İptal Edildi",
}

// OrderStatuses returns every recognized order status in lifecycle order
func OrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderStatuses...)
}

// Valid reports whether s is a recognized status
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// Label returns the display label; unrecognized statuses are shown verbatim
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// OrderItem is a single order line. Price is the unit price at order time.
type OrderItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Order represents a placed order
type Order struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customerId"`
	CustomerName string          `json:"customerName"`
	Items        []OrderItem     `json:"items"`
	Total        decimal.Decimal `json:"total"`
	Address      string          `json:"address"`
	Status       OrderStatus     `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// CartItem is a product snapshot plus the requested quantity
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// OrderTotal sums price x quantity over items
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
