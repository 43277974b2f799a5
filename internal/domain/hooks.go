package domain

import (
	"time"

	"gorm.io/gorm"
)

// Timestamps are stored in UTC. SQLite keeps them as text and compares them
// as text, so a row written with a local offset would sort out of order.

func utc(ts ...*time.Time) {
	for _, t := range ts {
		if !t.IsZero() {
			*t = t.UTC()
		}
	}
}

func (u *User) BeforeSave(*gorm.DB) error {
	utc(&u.CreatedAt)
	return nil
}

func (c *Category) BeforeSave(*gorm.DB) error {
	utc(&c.CreatedAt)
	return nil
}

func (p *Product) BeforeSave(*gorm.DB) error {
	utc(&p.CreatedAt, &p.UpdatedAt)
	return nil
}

func (c *ShoppingCart) BeforeSave(*gorm.DB) error {
	utc(&c.CreatedAt, &c.UpdatedAt)
	return nil
}

func (i *CartItem) BeforeSave(*gorm.DB) error {
	utc(&i.AddedAt)
	return nil
}

func (o *Order) BeforeSave(*gorm.DB) error {
	utc(&o.CreatedAt, &o.UpdatedAt)
	return nil
}
