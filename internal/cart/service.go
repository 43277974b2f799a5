// Package cart implements the per-user shopping cart. Each exported mutation
// runs as one transaction and reports plain success; the cause of a failure is
// logged and kept as a Kind.
//
// Mutations read, modify and write the item row without row locks, so two
// concurrent adds for the same user and product can lose one increment.
package cart

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sonarshop/storefront/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service is the shopping cart service
type Service struct {
	db *gorm.DB
}

// NewService creates a cart service over db
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetOrCreateCart returns the user's cart with items, products and categories
// loaded, creating an empty cart on first access. Repeated calls return the
// same cart.
func (s *Service) GetOrCreateCart(ctx context.Context, userID string) (*domain.ShoppingCart, error) {
	db := s.db.WithContext(ctx)
	cart, err := findCart(db, userID, true)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(err, "load cart of %s", userID)
	}
	if err := createCart(db, userID, db.NowFunc()); err != nil {
		return nil, errors.Wrapf(err, "create cart of %s", userID)
	}
	cart, err = findCart(db, userID, true)
	if err != nil {
		return nil, errors.Wrapf(err, "load cart of %s", userID)
	}
	return cart, nil
}

// AddToCart adds quantity units of a product. A product already in the cart has
// its quantity increased and its price re-taken from the product. Fails when the
// product is missing or inactive, or its stock is below quantity.
func (s *Service) AddToCart(ctx context.Context, userID string, productID int64, quantity int) bool {
	return report("add to cart", s.addToCart(ctx, userID, productID, quantity),
		zap.String("user_id", userID), zap.Int64("product_id", productID), zap.Int("quantity", quantity))
}

// UpdateCartItem sets an item's quantity; zero or less removes the item. Stock
// and price are not re-checked.
func (s *Service) UpdateCartItem(ctx context.Context, userID string, productID int64, quantity int) bool {
	return report("update cart item", s.updateCartItem(ctx, userID, productID, quantity),
		zap.String("user_id", userID), zap.Int64("product_id", productID), zap.Int("quantity", quantity))
}

// RemoveFromCart deletes the product's line. Fails when there is no such line.
func (s *Service) RemoveFromCart(ctx context.Context, userID string, productID int64) bool {
	return report("remove from cart", s.removeFromCart(ctx, userID, productID),
		zap.String("user_id", userID), zap.Int64("product_id", productID))
}

// ClearCart deletes every item of the user's cart in one statement.
func (s *Service) ClearCart(ctx context.Context, userID string) bool {
	return report("clear cart", s.clearCart(ctx, userID), zap.String("user_id", userID))
}

// GetCartItemCount sums item quantities; 0 when the user has no cart.
func (s *Service) GetCartItemCount(ctx context.Context, userID string) (int, error) {
	cart, err := findCart(s.db.WithContext(ctx), userID, false)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, nil
	case err != nil:
		return 0, errors.Wrapf(err, "load cart of %s", userID)
	}
	return cart.TotalItems(), nil
}

// GetCartTotal sums snapshot line totals; 0 when the user has no cart.
func (s *Service) GetCartTotal(ctx context.Context, userID string) (decimal.Decimal, error) {
	cart, err := findCart(s.db.WithContext(ctx), userID, false)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return decimal.Zero, nil
	case err != nil:
		return decimal.Zero, errors.Wrapf(err, "load cart of %s", userID)
	}
	return cart.TotalAmount(), nil
}

func (s *Service) addToCart(ctx context.Context, userID string, productID int64, quantity int) error {
	const op = "add"
	if quantity <= 0 {
		return &Error{Kind: KindInvalidQuantity, Op: op, Err: errors.Errorf("quantity %d", quantity)}
	}
	return s.transaction(ctx, op, func(tx *gorm.DB) error {
		var product domain.Product
		err := tx.Where("id = ?", productID).First(&product).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return notFound(op, "product %d", productID)
		case err != nil:
			return storage(op, err)
		}
		if !product.IsActive {
			return notFound(op, "product %d is inactive", productID)
		}
		if !product.InStock(quantity) {
			return &Error{Kind: KindInsufficientStock, Op: op,
				Err: errors.Errorf("product %d has %d in stock, %d requested", productID, product.StockQuantity, quantity)}
		}

		now := tx.NowFunc()
		cart, err := findCart(tx, userID, false)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := createCart(tx, userID, now); err != nil {
				return storage(op, err)
			}
			cart, err = findCart(tx, userID, false)
		}
		if err != nil {
			return storage(op, err)
		}

		if item := cart.Item(productID); item != nil {
			err = tx.Model(&domain.CartItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
				"quantity": item.Quantity + quantity,
				"price":    product.Price,
			}).Error
		} else {
			err = tx.Create(&domain.CartItem{
				ShoppingCartID: cart.ID,
				ProductID:      productID,
				Quantity:       quantity,
				Price:          product.Price,
				AddedAt:        now,
			}).Error
		}
		if err != nil {
			return storage(op, err)
		}
		return touch(tx, op, cart.ID, now)
	})
}

func (s *Service) updateCartItem(ctx context.Context, userID string, productID int64, quantity int) error {
	const op = "update"
	return s.transaction(ctx, op, func(tx *gorm.DB) error {
		cart, item, err := findItem(tx, op, userID, productID)
		if err != nil {
			return err
		}
		if quantity <= 0 {
			err = tx.Delete(&domain.CartItem{}, item.ID).Error
		} else {
			err = tx.Model(&domain.CartItem{}).Where("id = ?", item.ID).Update("quantity", quantity).Error
		}
		if err != nil {
			return storage(op, err)
		}
		return touch(tx, op, cart.ID, tx.NowFunc())
	})
}

func (s *Service) removeFromCart(ctx context.Context, userID string, productID int64) error {
	const op = "remove"
	return s.transaction(ctx, op, func(tx *gorm.DB) error {
		cart, item, err := findItem(tx, op, userID, productID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&domain.CartItem{}, item.ID).Error; err != nil {
			return storage(op, err)
		}
		return touch(tx, op, cart.ID, tx.NowFunc())
	})
}

func (s *Service) clearCart(ctx context.Context, userID string) error {
	const op = "clear"
	return s.transaction(ctx, op, func(tx *gorm.DB) error {
		var cart domain.ShoppingCart
		err := tx.Where("user_id = ?", userID).First(&cart).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return notFound(op, "no cart for user %s", userID)
		case err != nil:
			return storage(op, err)
		}
		if err := tx.Where("shopping_cart_id = ?", cart.ID).Delete(&domain.CartItem{}).Error; err != nil {
			return storage(op, err)
		}
		return touch(tx, op, cart.ID, tx.NowFunc())
	})
}

// transaction runs fn in one commit. A panic inside fn rolls back and is
// returned as a storage failure.
func (s *Service) transaction(ctx context.Context, op string, fn func(tx *gorm.DB) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = storage(op, errors.Errorf("panic: %v", r))
		}
	}()
	return s.db.WithContext(ctx).Transaction(fn)
}

// findCart loads a user's cart with its items. full also loads each item's
// product and category.
func findCart(db *gorm.DB, userID string, full bool) (*domain.ShoppingCart, error) {
	q := db.Where("user_id = ?", userID).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.id ASC")
		})
	if full {
		q = q.Preload("Items.Product.Category")
	}
	var cart domain.ShoppingCart
	if err := q.First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// createCart inserts an empty cart unless the user already has one.
func createCart(db *gorm.DB, userID string, now time.Time) error {
	cart := domain.ShoppingCart{UserID: userID, CreatedAt: now, UpdatedAt: now}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&cart).Error
}

func findItem(tx *gorm.DB, op, userID string, productID int64) (*domain.ShoppingCart, *domain.CartItem, error) {
	cart, err := findCart(tx, userID, false)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, notFound(op, "no cart for user %s", userID)
	case err != nil:
		return nil, nil, storage(op, err)
	}
	item := cart.Item(productID)
	if item == nil {
		return nil, nil, notFound(op, "product %d not in cart of %s", productID, userID)
	}
	return cart, item, nil
}

func touch(tx *gorm.DB, op string, cartID int64, now time.Time) error {
	if err := tx.Model(&domain.ShoppingCart{}).Where("id = ?", cartID).Update("updated_at", now).Error; err != nil {
		return storage(op, err)
	}
	return nil
}

// report collapses err to the boolean result and logs the failure kind.
func report(op string, err error, fields ...zap.Field) bool {
	if err == nil {
		return true
	}
	kind := KindOf(err)
	fields = append(fields, zap.Stringer("kind", kind), zap.Error(err))
	if kind == KindStorage {
		zap.L().Error(op+" failed", fields...)
	} else {
		zap.L().Debug(op+" rejected", fields...)
	}
	return false
}
