package models

// All lists every persisted model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Product{},
		&Discount{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
	}
}
