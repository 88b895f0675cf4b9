package docstore

import (
	"testing"
	"time"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDecimal128RoundTrip(t *testing.T) {
	for _, s := range []string{"0", "15", "7.50", "0.125", "-3", "123456.789"} {
		d := decimal.RequireFromString(s)
		got := fromDecimal128(toDecimal128(d))
		if !got.Equal(d) {
			t.Errorf("%s: got %s", s, got)
		}
	}
}

func TestMenuFilter(t *testing.T) {
	f := menuFilter(model.MenuFilter{Category: "tea", Search: "a.b"})
	if f["category"] != "tea" {
		t.Fatalf("category: got %v", f["category"])
	}
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 4 {
		t.Fatalf("expected 4 search clauses, got %v", f["$or"])
	}
	re := or[0].(bson.M)["name.EN"].(primitive.Regex)
	if re.Pattern != `a\.b` || re.Options != "i" {
		t.Fatalf("search should be a quoted case-insensitive regex, got %+v", re)
	}

	if len(menuFilter(model.MenuFilter{})) != 0 {
		t.Fatal("empty filter should match everything")
	}
}

func TestOrderFilterDates(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := orderFilter(model.OrderFilter{Status: "new", StartDate: day, EndDate: day})
	created := f["createdAt"].(bson.M)
	if created["$gte"] != day {
		t.Fatalf("start: got %v", created["$gte"])
	}
	if created["$lt"] != day.AddDate(0, 0, 1) {
		t.Fatalf("end should be exclusive next day, got %v", created["$lt"])
	}

	if _, ok := orderFilter(model.OrderFilter{})["createdAt"]; ok {
		t.Fatal("no dates should mean no createdAt clause")
	}
}

func TestOrderDocRoundTrip(t *testing.T) {
	itemID := primitive.NewObjectID().Hex()
	size := model.Size{
		Name:  model.Bilingual{EN: "Large", AR: "كبير"},
		Price: model.Price{EN: decimal.NewFromInt(20), AR: "٢٠"},
	}
	o := model.Order{
		OrderNumber: 1001,
		Total:       decimal.NewFromInt(40),
		Lines: []model.OrderLine{
			{MenuItemID: itemID, ItemName: size.Name, SelectedSize: &size, Quantity: 2, PriceAtOrder: decimal.NewFromInt(20)},
		},
	}
	doc, err := toOrderDoc(o)
	if err != nil {
		t.Fatalf("toOrderDoc: %v", err)
	}
	got := doc.model()
	if got.Lines[0].MenuItemID != itemID || !got.Lines[0].SelectedSize.Price.EN.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected line: %+v", got.Lines[0])
	}
	if !got.Total.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("total: got %s", got.Total)
	}

	o.Lines[0].MenuItemID = "nope"
	if _, err := toOrderDoc(o); err == nil {
		t.Fatal("expected error for malformed menu item id")
	}
}
