package order

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sonarshop/storefront/internal/domain"
	"github.com/sonarshop/storefront/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newStore(t *testing.T) (*Store, *gorm.DB) {
	db := storetest.NewDB(t)
	g, err := NewNumberGenerator(1)
	require.NoError(t, err)
	return NewStore(db, g), db
}

func product(t *testing.T, db *gorm.DB, id int64) *domain.Product {
	t.Helper()
	var p domain.Product
	require.NoError(t, db.First(&p, id).Error)
	return &p
}

func newOrder(userID string, items ...domain.OrderItem) *domain.Order {
	return &domain.Order{
		UserID:          userID,
		ShippingName:    "Ada Lovelace",
		ShippingAddress: "12 Analytical Way",
		ShippingCity:    "London",
		ShippingZipCode: "NW1 2DB",
		ShippingCountry: "UK",
		Items:           items,
	}
}

func TestCreateAndGetByNumber(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	user := storetest.NewUser(t, db)

	o := newOrder(user,
		domain.NewOrderItem(product(t, db, 1), 2),
		domain.NewOrderItem(product(t, db, 9), 1),
	)
	require.NoError(t, s.Create(ctx, o))
	assert.NotZero(t, o.ID)
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Contains(t, o.OrderNumber, NumberPrefix)
	assert.True(t, o.TotalAmount.Equal(storetest.Money("1599.97")), o.TotalAmount.String())

	// later price edits leave the order alone
	require.NoError(t, db.Model(&domain.Product{}).Where("id = ?", 1).
		Updates(map[string]interface{}{"price": storetest.Money("1.00"), "name": "Renamed"}).Error)

	got, ok, err := s.GetByNumber(ctx, o.OrderNumber)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, user, got.UserID)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "AMD Ryzen 9 7950X", got.Items[0].ProductName)
	assert.True(t, got.Items[0].Price.Equal(storetest.Money("699.99")))
	assert.True(t, got.ItemsTotal().Equal(got.TotalAmount))

	_, ok, err = s.GetByNumber(ctx, "ORD-missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateRejectsInvalidOrders(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	user := storetest.NewUser(t, db)
	p := product(t, db, 3)

	noName := newOrder(user, domain.NewOrderItem(p, 1))
	noName.ShippingName = ""
	assert.Error(t, s.Create(ctx, noName))

	zeroQty := newOrder(user, domain.NewOrderItem(p, 0))
	assert.Error(t, s.Create(ctx, zeroQty))

	badStatus := newOrder(user, domain.NewOrderItem(p, 1))
	badStatus.Status = "Lost"
	assert.Error(t, s.Create(ctx, badStatus))

	var n int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateRollsBackOnItemFailure(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	user := storetest.NewUser(t, db)

	bogus := domain.OrderItem{ProductID: 4040, Quantity: 1, Price: storetest.Money("5"), ProductName: "ghost"}
	o := newOrder(user, domain.NewOrderItem(product(t, db, 2), 1), bogus)
	require.Error(t, s.Create(ctx, o))

	var orders, items int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&domain.OrderItem{}).Count(&items).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestOrderNumberIsUnique(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	user := storetest.NewUser(t, db)

	first := newOrder(user, domain.NewOrderItem(product(t, db, 5), 1))
	first.OrderNumber = "ORD-fixed"
	require.NoError(t, s.Create(ctx, first))

	second := newOrder(user, domain.NewOrderItem(product(t, db, 6), 1))
	second.OrderNumber = "ORD-fixed"
	assert.Error(t, s.Create(ctx, second))
}

func TestCreateWithoutGeneratorNeedsNumber(t *testing.T) {
	db := storetest.NewDB(t)
	s := NewStore(db, nil)
	user := storetest.NewUser(t, db)

	o := newOrder(user, domain.NewOrderItem(product(t, db, 5), 1))
	assert.Error(t, s.Create(context.Background(), o))
}

func TestListByUserNewestFirst(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	user := storetest.NewUser(t, db)
	other := storetest.NewUser(t, db)

	base := time.Now().Add(-48 * time.Hour)
	var numbers []string
	for i := 0; i < 3; i++ {
		o := newOrder(user, domain.NewOrderItem(product(t, db, int64(i+1)), 1))
		o.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.Create(ctx, o))
		numbers = append(numbers, o.OrderNumber)
	}
	require.NoError(t, s.Create(ctx, newOrder(other, domain.NewOrderItem(product(t, db, 1), 1))))

	orders, err := s.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, numbers[2], orders[0].OrderNumber)
	assert.Equal(t, numbers[0], orders[2].OrderNumber)
}

func TestUpdateStatus(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	o := newOrder(storetest.NewUser(t, db), domain.NewOrderItem(product(t, db, 1), 1))
	require.NoError(t, s.Create(ctx, o))

	require.NoError(t, s.UpdateStatus(ctx, o.ID, domain.OrderStatusShipped))
	got, ok, err := s.GetByNumber(ctx, o.OrderNumber)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.OrderStatusShipped, got.Status)

	assert.Error(t, s.UpdateStatus(ctx, o.ID, "Lost"))
	assert.True(t, errors.Is(s.UpdateStatus(ctx, 4040, domain.OrderStatusCancelled), ErrOrderNotFound))
}

func TestDeleteCascadesItems(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	o := newOrder(storetest.NewUser(t, db),
		domain.NewOrderItem(product(t, db, 1), 1),
		domain.NewOrderItem(product(t, db, 2), 1))
	require.NoError(t, s.Create(ctx, o))

	require.NoError(t, s.Delete(ctx, o.ID))
	var items int64
	require.NoError(t, db.Model(&domain.OrderItem{}).Where("order_id = ?", o.ID).Count(&items).Error)
	assert.Zero(t, items)

	assert.True(t, errors.Is(s.Delete(ctx, o.ID), ErrOrderNotFound))
}

func TestReferencedRowsAreRestricted(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	user := storetest.NewUser(t, db)
	require.NoError(t, s.Create(ctx, newOrder(user, domain.NewOrderItem(product(t, db, 11), 1))))

	assert.Error(t, db.Delete(&domain.Product{}, 11).Error)
	assert.Error(t, db.Delete(&domain.User{ID: user}).Error)

	var n int64
	require.NoError(t, db.Model(&domain.Product{}).Where("id = ?", 11).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
