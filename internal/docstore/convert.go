package docstore

import (
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money and quantities are stored as Decimal128 so $inc and range filters
// stay exact.

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

type bilingualDoc struct {
	EN string `bson:"EN"`
	AR string `bson:"AR"`
}

type priceDoc struct {
	EN primitive.Decimal128 `bson:"EN"`
	AR string               `bson:"AR"`
}

type sizeDoc struct {
	Name      bilingualDoc `bson:"name"`
	Price     priceDoc     `bson:"price"`
	IsDefault bool         `bson:"isDefault"`
}

func toSizeDoc(s model.Size) sizeDoc {
	return sizeDoc{
		Name:      bilingualDoc(s.Name),
		Price:     priceDoc{EN: toDecimal128(s.Price.EN), AR: s.Price.AR},
		IsDefault: s.IsDefault,
	}
}

func (d sizeDoc) model() model.Size {
	return model.Size{
		Name:      model.Bilingual(d.Name),
		Price:     model.Price{EN: fromDecimal128(d.Price.EN), AR: d.Price.AR},
		IsDefault: d.IsDefault,
	}
}
