package domain

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatusesAreClosedAndLabelled(t *testing.T) {
	statuses := OrderStatuses()

	assert.Equal(t, []OrderStatus{
		"pending", "confirmed", "preparing", "in_transit", "shipped", "delivered", "cancelled",
	}, statuses)
	assert.Len(t, orderStatusLabels, len(statuses), "every status needs exactly one label")

	for _, s := range statuses {
		assert.True(t, s.Valid(), "status %s", s)
		assert.NotEqual(t, string(s), s.Label(), "status %s has no label", s)
	}

	assert.False(t, OrderStatus("returned").Valid())
	assert.Equal(t, "returned", OrderStatus("returned").Label())
	assert.Equal(t, "Kargoya Verildi", StatusShipped.Label())
}

func TestOrderStatusesReturnsCopy(t *testing.T) {
	statuses := OrderStatuses()
	statuses[0] = "mutated"

	assert.Equal(t, StatusPending, OrderStatuses()[0])
}

func TestOrderTotal_TwoItems(t *testing.T) {
	items := []OrderItem{
		{ProductID: "a", Quantity: 2, Price: decimal.NewFromInt(10)},
		{ProductID: "b", Quantity: 1, Price: decimal.NewFromInt(20)},
	}

	assert.True(t, decimal.NewFromInt(40).Equal(OrderTotal(items)))
	assert.True(t, decimal.Zero.Equal(OrderTotal(nil)))
}

// Feature: b2b-portal, Property 9: Order total is the sum of price times quantity
func TestProperty_OrderTotalIsSumOfLines(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total equals the sum of each line's cents times quantity", prop.ForAll(
		func(cents []int64, quantity int) bool {
			items := make([]OrderItem, 0, len(cents))
			var want int64
			for _, c := range cents {
				items = append(items, OrderItem{Quantity: quantity, Price: decimal.New(c, -2)})
				want += c * int64(quantity)
			}
			return OrderTotal(items).Equal(decimal.New(want, -2))
		},
		gen.SliceOf(gen.Int64Range(1, 1_000_000)),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleSupplier, RoleCustomer} {
		assert.True(t, r.Valid())
	}
	assert.False(t, Role("user").Valid())
	assert.False(t, Role("").Valid())
}

func TestAuthErrorMatchesInvalidCredentials(t *testing.T) {
	err := error(&AuthError{Message: "Invalid login credentials"})

	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	assert.Equal(t, "Invalid login credentials", err.Error())
	assert.Equal(t, ErrInvalidCredentials.Error(), (&AuthError{}).Error())
}
