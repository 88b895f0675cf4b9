package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bilingual holds an English and an Arabic rendering of the same text.
type Bilingual struct {
	EN string `json:"EN" validate:"required,max=100"`
	AR string `json:"AR" validate:"required,max=100"`
}

// Description is the long-form bilingual text of a menu item.
type Description struct {
	EN string `json:"EN" validate:"required,max=500"`
	AR string `json:"AR" validate:"required,max=500"`
}

// Price is a numeric English price with its Arabic display string.
type Price struct {
	EN decimal.Decimal `json:"EN"`
	AR string          `json:"AR" validate:"required"`
}

// Size is a priced variant of a menu item.
type Size struct {
	Name      Bilingual `json:"name"`
	Price     Price     `json:"price"`
	IsDefault bool      `json:"isDefault"`
}

// MenuItem is a sellable catalog entry.
type MenuItem struct {
	ID          string
	Name        Bilingual
	Description Description
	Price       Price
	Category    string `validate:"required,oneof=coffee tea pastries special"`
	Image       string `validate:"omitempty,max=500"`
	Sizes       []Size `validate:"omitempty,max=6,dive"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DefaultSize returns the size flagged as default, or the first size when
// none is flagged. It returns nil for items without sizes.
func (m MenuItem) DefaultSize() *Size {
	if len(m.Sizes) == 0 {
		return nil
	}
	for i := range m.Sizes {
		if m.Sizes[i].IsDefault {
			return &m.Sizes[i]
		}
	}
	return &m.Sizes[0]
}

// FindSize looks up a size by its English name.
func (m MenuItem) FindSize(nameEN string) (Size, bool) {
	for _, s := range m.Sizes {
		if s.Name.EN == nameEN {
			return s, true
		}
	}
	return Size{}, false
}

// MenuFilter narrows a catalog listing. Page is 1-based.
type MenuFilter struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

// Offset returns the number of rows to skip for the filter's page.
func (f MenuFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
