package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item. IsActive is the visibility gate: inactive rows stay
// in the table for historical orders but never show up in catalog queries.
type Product struct {
	ID             int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string              `gorm:"size:200;not null" json:"name" validate:"required,max=200"`
	Description    string              `gorm:"size:2000;not null" json:"description" validate:"required,max=2000"`
	Price          decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"price"`
	OriginalPrice  decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"original_price"` // list price shown struck through, optional
	StockQuantity  int                 `gorm:"not null;default:0" json:"stock_quantity"`
	Brand          string              `gorm:"size:100" json:"brand" validate:"max=100"`
	Model          string              `gorm:"size:100" json:"model" validate:"max=100"`
	Specifications string              `gorm:"size:500" json:"specifications" validate:"max=500"`
	ImageURL       string              `gorm:"column:image_url;size:300" json:"image_url" validate:"max=300"`
	IsActive       bool                `gorm:"index;not null" json:"is_active"`
	IsFeatured     bool                `gorm:"index;not null;default:false" json:"is_featured"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`

	CategoryID int64     `gorm:"index;not null" json:"category_id" validate:"required"`
	Category   *Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category,omitempty"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}

// InStock reports whether quantity units can be taken from current stock.
func (p *Product) InStock(quantity int) bool {
	return p.StockQuantity >= quantity
}

// Discounted reports whether the product carries an original price above the
// current one.
func (p *Product) Discounted() bool {
	return p.OriginalPrice.Valid && p.OriginalPrice.Decimal.GreaterThan(p.Price)
}
