package models

// All lists every persisted model in dependency order. Tests use it to build
// sqlite schemas; production schemas come from goose migrations.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Tag{},
		&Item{},
		&Cart{},
		&CartItem{},
		&DiscountCode{},
		&ShippingMethod{},
		&TaxConfiguration{},
		&Order{},
		&OrderItem{},
		&Address{},
		&WishlistItem{},
	}
}
