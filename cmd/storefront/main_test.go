package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/sonarshop/storefront/internal/domain"
	"github.com/sonarshop/storefront/internal/order"
	"github.com/sonarshop/storefront/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCommands(t *testing.T) (*commands, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	c, err := newCommands(storetest.NewDB(t), 1, buf, false)
	require.NoError(t, err)
	return c, buf
}

func runCmd(t *testing.T, c *commands, buf *bytes.Buffer, args ...string) (string, error) {
	t.Helper()
	buf.Reset()
	err := c.dispatch(context.Background(), args[0], args[1:])
	require.NoError(t, c.out.Flush())
	return buf.String(), err
}

func TestCatalogCommands(t *testing.T) {
	c, buf := testCommands(t)

	out, err := runCmd(t, c, buf, "products", "Noctua")
	require.NoError(t, err)
	assert.Contains(t, out, "Noctua NH-D15")
	assert.NotContains(t, out, "NZXT")

	out, err = runCmd(t, c, buf, "brands")
	require.NoError(t, err)
	assert.Contains(t, out, "Western Digital\n")

	out, err = runCmd(t, c, buf, "top", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "AMD Ryzen 9 7950X")
	assert.Contains(t, out, "Intel Core i9-13900K")
	assert.NotContains(t, out, "NVIDIA RTX 4090")

	_, err = runCmd(t, c, buf, "top", "many")
	assert.Error(t, err)

	out, err = runCmd(t, c, buf, "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "Power Supplies")
}

func TestCartCommands(t *testing.T) {
	c, buf := testCommands(t)

	out, err := runCmd(t, c, buf, "add", "alice", "1", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "items 2")
	assert.Contains(t, out, "total 1399.98")

	var u domain.User
	require.NoError(t, c.db.First(&u, "id = ?", "alice").Error)

	out, err = runCmd(t, c, buf, "add", "alice", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "items 3")

	out, err = runCmd(t, c, buf, "cart", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Samsung 980 PRO 2TB")
	assert.Contains(t, out, "1599.97")

	_, err = runCmd(t, c, buf, "update", "alice", "1", "0")
	require.NoError(t, err)
	_, err = runCmd(t, c, buf, "remove", "alice", "1")
	assert.Error(t, err)

	_, err = runCmd(t, c, buf, "add", "alice", "4", "99")
	assert.Error(t, err)

	out, err = runCmd(t, c, buf, "clear", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "items 0")

	_, err = runCmd(t, c, buf, "update", "alice", "1")
	assert.Error(t, err)
	_, err = runCmd(t, c, buf, "bogus")
	assert.Error(t, err)
}

func TestJSONOutput(t *testing.T) {
	c, buf := testCommands(t)
	c.json = true

	out, err := runCmd(t, c, buf, "add", "bob", "9", "2")
	require.NoError(t, err)
	var summary struct {
		Items int    `json:"items"`
		Total string `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.Items)
	assert.Equal(t, "399.98", summary.Total)

	out, err = runCmd(t, c, buf, "brands")
	require.NoError(t, err)
	var brands []string
	require.NoError(t, json.Unmarshal([]byte(out), &brands))
	assert.Len(t, brands, 13)

	out, err = runCmd(t, c, buf, "cart", "bob")
	require.NoError(t, err)
	var sc domain.ShoppingCart
	require.NoError(t, json.Unmarshal([]byte(out), &sc))
	require.Len(t, sc.Items, 1)
	assert.Equal(t, "bob", sc.UserID)
	assert.True(t, sc.Items[0].Price.Equal(storetest.Money("199.99")))
}

func TestOrderCommandsUseConfiguredNode(t *testing.T) {
	db := storetest.NewDB(t)
	buf := &bytes.Buffer{}

	_, err := newCommands(db, 2048, buf, false)
	assert.Error(t, err)

	c, err := newCommands(db, 42, buf, false)
	require.NoError(t, err)

	out, err := runCmd(t, c, buf, "orders", "carol")
	require.NoError(t, err)
	assert.NotContains(t, out, order.NumberPrefix)

	var p domain.Product
	require.NoError(t, db.First(&p, 5).Error)
	o := &domain.Order{
		UserID:          "carol",
		ShippingName:    "Carol",
		ShippingAddress: "1 Main St",
		ShippingCity:    "Springfield",
		ShippingZipCode: "12345",
		ShippingCountry: "US",
		Items:           []domain.OrderItem{domain.NewOrderItem(&p, 2)},
	}
	require.NoError(t, c.orders.Create(context.Background(), o))

	id, err := snowflake.ParseString(strings.TrimPrefix(o.OrderNumber, order.NumberPrefix))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.Node())

	out, err = runCmd(t, c, buf, "orders", "carol")
	require.NoError(t, err)
	assert.Contains(t, out, o.OrderNumber)
	assert.Contains(t, out, "1999.98")

	out, err = runCmd(t, c, buf, "order", o.OrderNumber)
	require.NoError(t, err)
	assert.Contains(t, out, "AMD RX 7900 XTX")

	_, err = runCmd(t, c, buf, "order", "ORD-0")
	assert.Error(t, err)
}
