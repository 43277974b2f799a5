package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCartTotals(t *testing.T) {
	c := &ShoppingCart{Items: []CartItem{
		{ProductID: 1, Quantity: 2, Price: money("699.99")},
		{ProductID: 9, Quantity: 1, Price: money("199.99")},
		{ProductID: 15, Quantity: 3, Price: money("0.10")},
	}}
	assert.Equal(t, 6, c.TotalItems())
	assert.True(t, c.TotalAmount().Equal(money("1600.27")), c.TotalAmount().String())
	assert.True(t, c.Items[2].TotalPrice().Equal(money("0.30")))

	require.NotNil(t, c.Item(9))
	assert.Equal(t, 1, c.Item(9).Quantity)
	assert.Nil(t, c.Item(4))

	empty := &ShoppingCart{}
	assert.Zero(t, empty.TotalItems())
	assert.True(t, empty.TotalAmount().IsZero())
}

func TestProductStockAndDiscount(t *testing.T) {
	p := &Product{Price: money("99.99"), StockQuantity: 3}
	assert.True(t, p.InStock(3))
	assert.False(t, p.InStock(4))
	assert.False(t, p.Discounted())

	p.OriginalPrice = decimal.NewNullDecimal(money("129.99"))
	assert.True(t, p.Discounted())
	p.OriginalPrice = decimal.NewNullDecimal(money("99.99"))
	assert.False(t, p.Discounted())
}

func TestParseOrderStatus(t *testing.T) {
	for in, want := range map[string]OrderStatus{
		"Pending":    OrderStatusPending,
		"processing": OrderStatusProcessing,
		" SHIPPED ":  OrderStatusShipped,
		"delivered":  OrderStatusDelivered,
		"Cancelled":  OrderStatusCancelled,
	} {
		got, err := ParseOrderStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
		assert.True(t, got.Valid())
	}

	_, err := ParseOrderStatus("Lost")
	assert.Error(t, err)
	assert.False(t, OrderStatus("pending").Valid())
}

func TestOrderItemSnapshots(t *testing.T) {
	p := &Product{ID: 4, Name: "NVIDIA RTX 4090", Price: money("1599.99")}
	oi := NewOrderItem(p, 2)
	p.Price = money("1.00")
	p.Name = "changed"
	assert.Equal(t, int64(4), oi.ProductID)
	assert.Equal(t, "NVIDIA RTX 4090", oi.ProductName)
	assert.True(t, oi.TotalPrice().Equal(money("3199.98")))

	ci := &CartItem{ProductID: 9, Quantity: 3, Price: money("189.00"), Product: &Product{Name: "Samsung 980 PRO 2TB", Price: money("199.99")}}
	fromCart := NewOrderItemFromCart(ci)
	assert.Equal(t, "Samsung 980 PRO 2TB", fromCart.ProductName)
	assert.True(t, fromCart.Price.Equal(money("189.00")))

	o := &Order{Items: []OrderItem{oi, fromCart}}
	assert.True(t, o.ItemsTotal().Equal(money("3766.98")), o.ItemsTotal().String())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(&Category{Name: "Storage"}))
	assert.Error(t, Validate(&Category{}))
	assert.Error(t, Validate(&Category{Name: strings.Repeat("x", 101)}))

	p := Product{Name: "Widget", Description: "A widget", CategoryID: 1}
	assert.NoError(t, Validate(&p))
	p.CategoryID = 0
	assert.Error(t, Validate(&p))

	o := Order{
		UserID:          "u1",
		OrderNumber:     "ORD-1",
		Status:          OrderStatusPending,
		ShippingName:    "A",
		ShippingAddress: "B",
		ShippingCity:    "C",
		ShippingZipCode: "D",
		ShippingCountry: "E",
		Items:           []OrderItem{{ProductID: 1, Quantity: 1, ProductName: "x"}},
	}
	assert.NoError(t, Validate(&o))
	o.Items[0].Quantity = 0
	assert.Error(t, Validate(&o))
	o.Items[0].Quantity = 1
	o.Status = "Lost"
	assert.Error(t, Validate(&o))
}

func TestBeforeSaveStoresUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	at := time.Date(2024, 3, 1, 8, 30, 0, 0, tokyo)

	p := &Product{CreatedAt: at, UpdatedAt: at}
	require.NoError(t, p.BeforeSave(nil))
	assert.Equal(t, time.UTC, p.CreatedAt.Location())
	assert.True(t, p.CreatedAt.Equal(at))
	assert.Equal(t, 23, p.UpdatedAt.Hour())

	o := &Order{CreatedAt: at}
	require.NoError(t, o.BeforeSave(nil))
	assert.Equal(t, time.UTC, o.CreatedAt.Location())
	assert.True(t, o.UpdatedAt.IsZero())
}
