package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	for _, v := range orderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseOrderStatus matches a status name case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, error) {
	s = strings.TrimSpace(s)
	for _, v := range orderStatuses {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Order is a placed order with denormalized shipping details. The user cannot
// be deleted while orders reference it; deleting the order deletes its items.
type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          string          `gorm:"size:64;not null;index" json:"user_id" validate:"required,max=64"`
	User            *User           `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	OrderNumber     string          `gorm:"size:50;not null;uniqueIndex" json:"order_number" validate:"required,max=50"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"size:20;not null" json:"status" validate:"required,oneof=Pending Processing Shipped Delivered Cancelled"`
	ShippingName    string          `gorm:"size:100;not null" json:"shipping_name" validate:"required,max=100"`
	ShippingAddress string          `gorm:"size:200;not null" json:"shipping_address" validate:"required,max=200"`
	ShippingCity    string          `gorm:"size:100;not null" json:"shipping_city" validate:"required,max=100"`
	ShippingZipCode string          `gorm:"size:20;not null" json:"shipping_zip_code" validate:"required,max=20"`
	ShippingCountry string          `gorm:"size:100;not null" json:"shipping_country" validate:"required,max=100"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items" validate:"dive"`
}

// TableName Specify table name
func (Order) TableName() string {
	return "orders"
}

// ItemsTotal sums the line totals of the loaded items.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].TotalPrice())
	}
	return total
}

// OrderItem is immutable once written. Price and ProductName are copies taken at
// purchase time so later product edits do not rewrite history.
type OrderItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64           `gorm:"index;not null" json:"order_id"`
	ProductID   int64           `gorm:"index;not null" json:"product_id" validate:"required"`
	Product     *Product        `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity    int             `gorm:"not null" json:"quantity" validate:"gt=0"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	ProductName string          `gorm:"size:200;not null" json:"product_name" validate:"required,max=200"`
}

// TableName Specify table name
func (OrderItem) TableName() string {
	return "order_items"
}

// TotalPrice is price × quantity.
func (i *OrderItem) TotalPrice() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewOrderItem snapshots the product's current price and name.
func NewOrderItem(p *Product, quantity int) OrderItem {
	return OrderItem{
		ProductID:   p.ID,
		Quantity:    quantity,
		Price:       p.Price,
		ProductName: p.Name,
	}
}

// NewOrderItemFromCart snapshots a cart line. The cart's price snapshot is
// kept; the name comes from the loaded product when present.
func NewOrderItemFromCart(item *CartItem) OrderItem {
	oi := OrderItem{
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Price:     item.Price,
	}
	if item.Product != nil {
		oi.ProductName = item.Product.Name
	}
	return oi
}
