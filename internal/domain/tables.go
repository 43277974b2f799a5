package domain

// Tables lists every migrated model. Order matters only for readability;
// AutoMigrate resolves foreign key dependencies itself.
var Tables = []interface{}{
	&User{},
	&Category{},
	&Product{},
	&ShoppingCart{},
	&CartItem{},
	&Order{},
	&OrderItem{},
}
