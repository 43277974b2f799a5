package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShoppingCart belongs to exactly one user. Deleting the cart deletes its items;
// deleting the user deletes the cart.
type ShoppingCart struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string     `gorm:"size:64;not null;uniqueIndex" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Items     []CartItem `gorm:"foreignKey:ShoppingCartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
}

// TableName Specify table name
func (ShoppingCart) TableName() string {
	return "shopping_carts"
}

// TotalAmount sums the snapshot line totals of the loaded items.
func (c *ShoppingCart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].TotalPrice())
	}
	return total
}

// TotalItems sums item quantities.
func (c *ShoppingCart) TotalItems() int {
	n := 0
	for i := range c.Items {
		n += c.Items[i].Quantity
	}
	return n
}

// Item returns the line for productID, or nil.
func (c *ShoppingCart) Item(productID int64) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// CartItem is one product line of a cart. Price is a copy of the product price
// taken when the line was added (or re-added), not a live reference.
type CartItem struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ShoppingCartID int64           `gorm:"index;not null" json:"shopping_cart_id"`
	ProductID      int64           `gorm:"index;not null" json:"product_id"`
	Product        *Product        `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	Price          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	AddedAt        time.Time       `json:"added_at"`
}

// TableName Specify table name
func (CartItem) TableName() string {
	return "cart_items"
}

// TotalPrice is price × quantity.
func (i *CartItem) TotalPrice() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
