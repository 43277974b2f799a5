package domain

import "time"

// User is the identity row carts and orders hang off. Accounts are managed
// elsewhere; the storefront only needs the key to exist.
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id" validate:"required,max=64"`
	UserName  string    `gorm:"size:256" json:"user_name"`
	Email     string    `gorm:"size:256" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName Specify table name
func (User) TableName() string {
	return "users"
}
