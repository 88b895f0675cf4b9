// Package catalog serves the menu. Reads go through a TTL cache that every
// admin write invalidates; order placement reads the store directly.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/enum"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/validation"
	"github.com/sirupsen/logrus"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// Store is the persistence the catalog needs.
type Store interface {
	GetMenuItem(ctx context.Context, id string) (model.MenuItem, error)
	ListMenuItems(ctx context.Context, f model.MenuFilter) ([]model.MenuItem, int, error)
	CreateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id string) error
}

// Page is one page of menu items.
type Page struct {
	Items []model.MenuItem
	Total int
	Page  int
	Limit int
}

// Service reads and writes the menu.
type Service struct {
	store    Store
	lists    *Cache[Page]
	items    *Cache[model.MenuItem]
	validate *validation.Validator
	logger   logrus.FieldLogger
}

// NewService creates a catalog service caching reads for ttl.
func NewService(store Store, ttl time.Duration, logger logrus.FieldLogger) *Service {
	return &Service{
		store:    store,
		lists:    NewCache[Page](ttl),
		items:    NewCache[model.MenuItem](ttl),
		validate: validation.New(),
		logger:   logger,
	}
}

// Get returns one menu item or model.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (model.MenuItem, error) {
	return s.items.GetOrLoad(ctx, id, func(ctx context.Context) (model.MenuItem, error) {
		return s.store.GetMenuItem(ctx, id)
	})
}

// List returns a page of menu items sorted by category then English name.
// A category of "all" or "" matches every category.
func (s *Service) List(ctx context.Context, f model.MenuFilter) (Page, error) {
	f = normalizeFilter(f)
	key := strings.Join([]string{f.Category, f.Search, strconv.Itoa(f.Page), strconv.Itoa(f.Limit)}, "\x00")

	return s.lists.GetOrLoad(ctx, key, func(ctx context.Context) (Page, error) {
		items, total, err := s.store.ListMenuItems(ctx, f)
		if err != nil {
			return Page{}, err
		}
		return Page{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
	})
}

func normalizeFilter(f model.MenuFilter) model.MenuFilter {
	if f.Category == "all" {
		f.Category = ""
	}
	f.Search = strings.TrimSpace(f.Search)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	return f
}

// Create validates and stores a new menu item.
func (s *Service) Create(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	if err := s.check(&item); err != nil {
		return model.MenuItem{}, err
	}
	created, err := s.store.CreateMenuItem(ctx, item)
	if err != nil {
		return model.MenuItem{}, fmt.Errorf("create menu item: %w", err)
	}
	s.invalidate()
	s.logger.WithField("menu_item_id", created.ID).Info("menu item created")
	return created, nil
}

// Update replaces the editable fields of an existing menu item.
func (s *Service) Update(ctx context.Context, id string, item model.MenuItem) (model.MenuItem, error) {
	item.ID = id
	if err := s.check(&item); err != nil {
		return model.MenuItem{}, err
	}
	updated, err := s.store.UpdateMenuItem(ctx, item)
	if err != nil {
		return model.MenuItem{}, fmt.Errorf("update menu item: %w", err)
	}
	s.invalidate()
	s.logger.WithField("menu_item_id", id).Info("menu item updated")
	return updated, nil
}

// Delete removes a menu item.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteMenuItem(ctx, id); err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	s.invalidate()
	s.logger.WithField("menu_item_id", id).Info("menu item deleted")
	return nil
}

func (s *Service) invalidate() {
	s.lists.Invalidate()
	s.items.Invalidate()
}

// check trims and validates an item in place.
func (s *Service) check(item *model.MenuItem) error {
	trimBilingual(&item.Name)
	item.Description.EN = strings.TrimSpace(item.Description.EN)
	item.Description.AR = strings.TrimSpace(item.Description.AR)
	item.Category = strings.TrimSpace(item.Category)
	for i := range item.Sizes {
		trimBilingual(&item.Sizes[i].Name)
	}

	verr := &validation.Error{}
	verr.Merge(s.validate.Struct(item))

	if item.Price.EN.IsNegative() {
		verr.Add("price.EN", "Price cannot be negative")
	}
	defaults := 0
	for i, size := range item.Sizes {
		if !isSizeName(size.Name.EN) {
			verr.Add(fmt.Sprintf("sizes[%d].name.EN", i), "Size must be one of: Small, Medium, Large, 250g, 500g, 1kg")
		}
		if size.Price.EN.IsNegative() {
			verr.Add(fmt.Sprintf("sizes[%d].price.EN", i), "Price cannot be negative")
		}
		if size.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		verr.Add("sizes", "Only one size can be the default")
	}
	return verr.OrNil()
}

func trimBilingual(b *model.Bilingual) {
	b.EN = strings.TrimSpace(b.EN)
	b.AR = strings.TrimSpace(b.AR)
}

func isSizeName(s string) bool {
	switch s {
	case enum.SizeSmall, enum.SizeMedium, enum.SizeLarge, enum.Size250g, enum.Size500g, enum.Size1kg:
		return true
	}
	return false
}
