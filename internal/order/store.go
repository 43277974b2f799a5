// Package order persists placed orders and their line items.
package order

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sonarshop/storefront/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrOrderNotFound = errors.New("order not found")

type Store struct {
	db      *gorm.DB
	numbers *NumberGenerator
}

// NewStore creates an order store. numbers fills in missing order numbers on
// Create and may be nil, in which case callers must supply them.
func NewStore(db *gorm.DB, numbers *NumberGenerator) *Store {
	return &Store{db: db, numbers: numbers}
}

// Create validates o and inserts it together with its items. An empty status
// becomes Pending and a zero total is computed from the items.
func (s *Store) Create(ctx context.Context, o *domain.Order) error {
	if o.Status == "" {
		o.Status = domain.OrderStatusPending
	}
	if o.OrderNumber == "" && s.numbers != nil {
		o.OrderNumber = s.numbers.Next()
	}
	if o.TotalAmount.IsZero() {
		o.TotalAmount = o.ItemsTotal()
	}
	if err := domain.Validate(o); err != nil {
		return errors.Wrap(err, "invalid order")
	}

	now := s.db.NowFunc()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(o).Error; err != nil {
			return err
		}
		if len(o.Items) == 0 {
			return nil
		}
		for i := range o.Items {
			o.Items[i].OrderID = o.ID
		}
		return tx.Omit(clause.Associations).Create(&o.Items).Error
	})
	if err != nil {
		return errors.Wrapf(err, "create order %s", o.OrderNumber)
	}
	zap.L().Info("order created",
		zap.String("order_number", o.OrderNumber),
		zap.String("user_id", o.UserID),
		zap.Int("items", len(o.Items)),
		zap.Stringer("total", o.TotalAmount))
	return nil
}

// GetByNumber loads an order and its items. The bool is false when no order
// carries the number.
func (s *Store) GetByNumber(ctx context.Context, number string) (*domain.Order, bool, error) {
	var o domain.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Where("order_number = ?", number).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "load order %s", number)
	}
	return &o, true, nil
}

// ListByUser returns the user's orders, newest first, without items.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list orders of %s", userID)
	}
	return orders, nil
}

// UpdateStatus moves an order to status.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	if !status.Valid() {
		return errors.Errorf("invalid order status %q", status)
	}
	res := s.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update order %d", id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrOrderNotFound, "update order %d", id)
	}
	return nil
}

// Delete removes an order. Its items go with it through the foreign key.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&domain.Order{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete order %d", id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrOrderNotFound, "delete order %d", id)
	}
	return nil
}
