package domain

import "time"

// Category groups products for browsing. Products reference a category by id;
// a category cannot be deleted while any product still points at it.
type Category struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name" validate:"required,max=100"`
	Description string    `gorm:"size:500" json:"description" validate:"max=500"`
	ImageURL    string    `gorm:"column:image_url;size:200" json:"image_url" validate:"max=200"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName Specify table name
func (Category) TableName() string {
	return "categories"
}
