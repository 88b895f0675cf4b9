package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
)

type mockStore struct {
	getFn    func(ctx context.Context, id string) (model.MenuItem, error)
	listFn   func(ctx context.Context, f model.MenuFilter) ([]model.MenuItem, int, error)
	createFn func(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
	updateFn func(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockStore) GetMenuItem(ctx context.Context, id string) (model.MenuItem, error) {
	return m.getFn(ctx, id)
}

func (m *mockStore) ListMenuItems(ctx context.Context, f model.MenuFilter) ([]model.MenuItem, int, error) {
	return m.listFn(ctx, f)
}

func (m *mockStore) CreateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	return m.createFn(ctx, item)
}

func (m *mockStore) UpdateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	return m.updateFn(ctx, item)
}

func (m *mockStore) DeleteMenuItem(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func newTestService(store Store) *Service {
	logger, _ := test.NewNullLogger()
	return NewService(store, time.Minute, logger)
}

func arabicCoffee() model.MenuItem {
	return model.MenuItem{
		Name:        model.Bilingual{EN: "Arabic Coffee", AR: "قهوة عربية"},
		Description: model.Description{EN: "Cardamom spiced", AR: "بالهيل"},
		Price:       model.Price{EN: decimal.NewFromInt(15), AR: "١٥ درهم"},
		Category:    "coffee",
	}
}

func TestListNormalizesFilter(t *testing.T) {
	var got model.MenuFilter
	store := &mockStore{listFn: func(_ context.Context, f model.MenuFilter) ([]model.MenuItem, int, error) {
		got = f
		return []model.MenuItem{arabicCoffee()}, 1, nil
	}}
	svc := newTestService(store)

	page, err := svc.List(context.Background(), model.MenuFilter{Category: "all", Search: "  coffee ", Limit: 500})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got.Category != "" || got.Search != "coffee" || got.Page != 1 || got.Limit != maxLimit {
		t.Fatalf("unexpected filter passed to store: %+v", got)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Limit != maxLimit {
		t.Fatalf("unexpected page: %+v", page)
	}

	svc.List(context.Background(), model.MenuFilter{})
	if got.Limit != defaultLimit {
		t.Fatalf("default limit: got %d, want %d", got.Limit, defaultLimit)
	}
}

func TestWritesInvalidateCache(t *testing.T) {
	var lists int
	store := &mockStore{
		listFn: func(context.Context, model.MenuFilter) ([]model.MenuItem, int, error) {
			lists++
			return nil, 0, nil
		},
		createFn: func(_ context.Context, item model.MenuItem) (model.MenuItem, error) {
			item.ID = "new-id"
			return item, nil
		},
		updateFn: func(_ context.Context, item model.MenuItem) (model.MenuItem, error) { return item, nil },
		deleteFn: func(context.Context, string) error { return nil },
	}
	svc := newTestService(store)
	ctx := context.Background()

	svc.List(ctx, model.MenuFilter{})
	svc.List(ctx, model.MenuFilter{})
	if lists != 1 {
		t.Fatalf("expected cached second list, got %d store calls", lists)
	}

	if _, err := svc.Create(ctx, arabicCoffee()); err != nil {
		t.Fatalf("create: %v", err)
	}
	svc.List(ctx, model.MenuFilter{})
	if lists != 2 {
		t.Fatalf("expected create to invalidate, got %d store calls", lists)
	}

	if _, err := svc.Update(ctx, "new-id", arabicCoffee()); err != nil {
		t.Fatalf("update: %v", err)
	}
	svc.List(ctx, model.MenuFilter{})
	if lists != 3 {
		t.Fatalf("expected update to invalidate, got %d store calls", lists)
	}

	if err := svc.Delete(ctx, "new-id"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	svc.List(ctx, model.MenuFilter{})
	if lists != 4 {
		t.Fatalf("expected delete to invalidate, got %d store calls", lists)
	}
}

func TestGetPassesThroughNotFound(t *testing.T) {
	store := &mockStore{getFn: func(context.Context, string) (model.MenuItem, error) {
		return model.MenuItem{}, model.ErrNotFound
	}}
	svc := newTestService(store)

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	store := &mockStore{createFn: func(context.Context, model.MenuItem) (model.MenuItem, error) {
		t.Fatal("store must not be called for invalid items")
		return model.MenuItem{}, nil
	}}
	svc := newTestService(store)

	item := arabicCoffee()
	item.Name.AR = "   "
	item.Category = "juice"
	item.Price.EN = decimal.NewFromInt(-1)
	item.Sizes = []model.Size{
		{Name: model.Bilingual{EN: "Huge", AR: "كبير جدا"}, Price: model.Price{EN: decimal.NewFromInt(20), AR: "٢٠"}, IsDefault: true},
		{Name: model.Bilingual{EN: "Large", AR: "كبير"}, Price: model.Price{EN: decimal.NewFromInt(18), AR: "١٨"}, IsDefault: true},
	}

	_, err := svc.Create(context.Background(), item)
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	fields := make(map[string]bool)
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	for _, want := range []string{"name.AR", "category", "price.EN", "sizes[0].name.EN", "sizes"} {
		if !fields[want] {
			t.Errorf("expected error for %s, got %v", want, verr.Fields)
		}
	}
}
