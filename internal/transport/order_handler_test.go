package transport

import (
	"context"
	"net/http"
	"testing"

	"tanepro-b2b/internal/domain"
	"tanepro-b2b/internal/service"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (a *api) addProduct(t *testing.T, name, supplierID string, stock int, price string) domain.Product {
	t.Helper()
	product, err := a.store.AddProduct(context.Background(), domain.Product{
		Name:          name,
		CategoryID:    "5",
		SupplierID:    supplierID,
		StockQuantity: stock,
		SellingPrice:  decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return product
}

func TestCart_Lifecycle(t *testing.T) {
	a := newAPI(t)
	customer := a.customer(t)
	efes := a.addProduct(t, "Efes Pilsen", "2", 10, "10")
	raki := a.addProduct(t, "Yeni Rakı", "4", 10, "20")

	w := a.do(t, http.MethodPost, "/api/cart/items", CartItemRequest{ProductID: efes.ID, Quantity: 2}, customer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	a.do(t, http.MethodPost, "/api/cart/items", CartItemRequest{ProductID: efes.ID, Quantity: 3}, customer)
	a.do(t, http.MethodPost, "/api/cart/items", CartItemRequest{ProductID: raki.ID, Quantity: 1}, customer)

	cart := decode[[]domain.CartItem](t, a.do(t, http.MethodGet, "/api/cart", nil, customer))
	require.Len(t, cart, 2)
	assert.Equal(t, 5, cart[0].Quantity, "the same product merges into one line")

	cart = decode[[]domain.CartItem](t, a.do(t, http.MethodPut, "/api/cart/items/"+efes.ID, QuantityRequest{Quantity: 0}, customer))
	require.Len(t, cart, 1)
	assert.Equal(t, raki.ID, cart[0].ID)

	cart = decode[[]domain.CartItem](t, a.do(t, http.MethodDelete, "/api/cart/items/"+raki.ID, nil, customer))
	assert.Empty(t, cart)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, "/api/cart/items", CartItemRequest{ProductID: "missing"}, customer).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, "/api/cart", nil, a.supplier(t)).Code)
}

func TestCart_OutOfStock(t *testing.T) {
	a := newAPI(t)
	empty := a.addProduct(t, "Tükendi", "2", 0, "10")

	w := a.do(t, http.MethodPost, "/api/cart/items", CartItemRequest{ProductID: empty.ID, Quantity: 1}, a.customer(t))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCheckout(t *testing.T) {
	a := newAPI(t)
	customer := a.customer(t)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/api/cart/checkout", nil, customer).Code, "empty cart")

	first := a.addProduct(t, "Efes Pilsen", "2", 10, "10")
	second := a.addProduct(t, "Yeni Rakı", "4", 10, "20")
	a.do(t, http.MethodPost, "/api/cart/items", CartItemRequest{ProductID: first.ID, Quantity: 2}, customer)
	a.do(t, http.MethodPost, "/api/cart/items", CartItemRequest{ProductID: second.ID, Quantity: 1}, customer)

	w := a.do(t, http.MethodPost, "/api/cart/checkout", CheckoutRequest{}, customer)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	order := decode[OrderResponse](t, w)
	assert.True(t, decimal.NewFromInt(40).Equal(order.Total), order.Total.String())
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, "Beklemede", order.StatusLabel)
	assert.Equal(t, "İzmir, Türkiye", order.Address, "profile address is the default")
	assert.Equal(t, "Müşteri Firma", order.CustomerName)

	assert.Empty(t, decode[[]domain.CartItem](t, a.do(t, http.MethodGet, "/api/cart", nil, customer)))
	assert.Len(t, decode[[]OrderResponse](t, a.do(t, http.MethodGet, "/api/customer/orders", nil, customer)), 1)

	supplierOrders := decode[[]OrderResponse](t, a.do(t, http.MethodGet, "/api/supplier/orders", nil, a.supplier(t)))
	require.Len(t, supplierOrders, 1)
	require.Len(t, supplierOrders[0].Items, 1)
	assert.Equal(t, first.ID, supplierOrders[0].Items[0].ProductID)
}

func TestOrderStatus(t *testing.T) {
	a := newAPI(t)
	admin := a.admin(t)
	order, err := a.store.CreateOrder(context.Background(), domain.Order{
		CustomerID: "3",
		Items:      []domain.OrderItem{{ProductID: "p1", Quantity: 1, Price: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)

	w := a.do(t, http.MethodPatch, "/api/orders/"+order.ID+"/status", StatusRequest{Status: "shipped"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Kargoya Verildi", decode[OrderResponse](t, w).StatusLabel)

	stored, err := a.store.Order(order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, stored.Status)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPatch, "/api/orders/"+order.ID+"/status", StatusRequest{Status: "lost"}, admin).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPatch, "/api/orders/missing/status", StatusRequest{Status: "confirmed"}, admin).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPatch, "/api/orders/"+order.ID+"/status", StatusRequest{Status: "confirmed"}, a.customer(t)).Code)

	orders := decode[[]OrderResponse](t, a.do(t, http.MethodGet, "/api/orders", nil, admin))
	assert.Len(t, orders, 1)
}

// Feature: b2b-portal, Property 19: Checkout totals the selling price of every cart line
func TestProperty_CheckoutTotalsCartLines(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("order total equals the sum of selling price times quantity", prop.ForAll(
		func(cents []int64, quantities []int) bool {
			a := newAPI(t)
			customer := a.customer(t)

			want := decimal.Zero
			for i, c := range cents {
				price := decimal.New(c, -2)
				product := a.addProduct(t, "Ürün", "2", 100, price.String())
				a.do(t, http.MethodPost, "/api/cart/items", CartItemRequest{ProductID: product.ID, Quantity: quantities[i]}, customer)
				want = want.Add(price.Mul(decimal.NewFromInt(int64(quantities[i]))))
			}

			w := a.do(t, http.MethodPost, "/api/cart/checkout", CheckoutRequest{Address: "Depo 3"}, customer)
			if w.Code != http.StatusCreated {
				t.Logf("FAIL: checkout returned %d: %s", w.Code, w.Body.String())
				return false
			}
			order := decode[OrderResponse](t, w)
			if !order.Total.Equal(want) {
				t.Logf("FAIL: total %s, want %s", order.Total, want)
				return false
			}
			return order.Address == "Depo 3" && len(order.Items) == len(cents)
		},
		gen.SliceOfN(3, gen.Int64Range(1, 100000)),
		gen.SliceOfN(3, gen.IntRange(1, 50)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestOverview(t *testing.T) {
	a := newAPI(t)

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/overview", nil, nil).Code)

	admin := decode[service.AdminOverview](t, a.do(t, http.MethodGet, "/api/overview", nil, a.admin(t)))
	assert.Equal(t, service.AdminOverview{Suppliers: 4, Customers: 5}, admin)

	customer := decode[service.CustomerOverview](t, a.do(t, http.MethodGet, "/api/overview", nil, a.customer(t)))
	assert.Equal(t, 0, customer.Orders)
	assert.True(t, customer.TotalSpent.IsZero())
}
