package enum

// ── Order lifecycle ──

const (
	OrderStatusNew       = "new"
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
)

const (
	OrderTypeDineIn   = "dine-in"
	OrderTypeTakeaway = "takeaway"
	OrderTypeDelivery = "delivery"
)

const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodWallet = "wallet"
)

// ── Catalog ──

const (
	CategoryCoffee   = "coffee"
	CategoryTea      = "tea"
	CategoryPastries = "pastries"
	CategorySpecial  = "special"
)

// Size names are matched on their English label.
const (
	SizeSmall  = "Small"
	SizeMedium = "Medium"
	SizeLarge  = "Large"
	Size250g   = "250g"
	Size500g   = "500g"
	Size1kg    = "1kg"
)

// ── Inventory ──

const (
	UnitPieces = "pieces"
	UnitKg     = "kg"
	UnitLiters = "liters"
	UnitCups   = "cups"
	UnitPacks  = "packs"
)

const (
	StockStatusInStock    = "in_stock"
	StockStatusLowStock   = "low_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// ── Auth ──

const RoleAdmin = "admin"

// IsOrderStatus reports whether s is a known order status.
func IsOrderStatus(s string) bool {
	switch s {
	case OrderStatusNew, OrderStatusPending, OrderStatusCompleted:
		return true
	}
	return false
}

// IsCategory reports whether s is a known menu category.
func IsCategory(s string) bool {
	switch s {
	case CategoryCoffee, CategoryTea, CategoryPastries, CategorySpecial:
		return true
	}
	return false
}

// IsUnit reports whether s is a known inventory unit.
func IsUnit(s string) bool {
	switch s {
	case UnitPieces, UnitKg, UnitLiters, UnitCups, UnitPacks:
		return true
	}
	return false
}
