package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/auth"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/catalog"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/config"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/database"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/docstore"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/enum"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/events"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/inventory"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/logging"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// store is what seeding needs from a driver.
type store interface {
	catalog.Store
	inventory.Store
}

type seedItem struct {
	item  model.MenuItem
	stock int64
	min   int64
	unit  string
}

func main() {
	// CLI flags
	admin := flag.String("admin", "admin", "Username embedded in the printed admin token")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "Lifetime of the printed admin token")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	var s store
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			logger.WithError(err).Fatal("migrate")
		}
		pool, err := database.Connect(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.WithError(err).Fatal("connect to database")
		}
		defer pool.Close()
		s = database.NewStore(pool)
	case config.DriverMongo:
		ds, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			logger.WithError(err).Fatal("connect to mongo")
		}
		defer ds.Close(context.Background())
		s = ds
	default:
		logger.Fatalf("seeding needs a persistent STORE_DRIVER, got %q", cfg.StoreDriver)
	}

	menu := catalog.NewService(s, 0, logger)
	ledger := inventory.NewLedger(s, events.Discard{}, logger)

	created := 0
	for _, seed := range menuSeed() {
		ok, err := seedMenuItem(ctx, menu, ledger, seed, logger)
		if err != nil {
			logger.WithError(err).WithField("item", seed.item.Name.EN).Fatal("seed menu item")
		}
		if ok {
			created++
		}
	}
	logger.WithField("created", created).Info("seed completed successfully")

	token, err := auth.GenerateToken(cfg.JWTSecret, *admin, enum.RoleAdmin, *tokenTTL)
	if err != nil {
		logger.WithError(err).Fatal("generate admin token")
	}
	fmt.Println(token)
}

// seedMenuItem creates the item and its stock record unless an item with the
// same English name already exists.
func seedMenuItem(ctx context.Context, menu *catalog.Service, ledger *inventory.Ledger, seed seedItem, logger logrus.FieldLogger) (bool, error) {
	page, err := menu.List(ctx, model.MenuFilter{Category: seed.item.Category, Search: seed.item.Name.EN, Limit: 100})
	if err != nil {
		return false, fmt.Errorf("check menu item: %w", err)
	}
	for _, existing := range page.Items {
		if strings.EqualFold(existing.Name.EN, seed.item.Name.EN) {
			logger.WithField("item", seed.item.Name.EN).Info("menu item already exists, skipping")
			return false, nil
		}
	}

	item, err := menu.Create(ctx, seed.item)
	if err != nil {
		return false, err
	}
	current := decimal.NewFromInt(seed.stock)
	minimum := decimal.NewFromInt(seed.min)
	if _, _, err := ledger.Upsert(ctx, inventory.UpsertInput{
		MenuItemID:   item.ID,
		CurrentStock: &current,
		MinStock:     &minimum,
		Unit:         seed.unit,
	}); err != nil {
		return false, fmt.Errorf("create inventory: %w", err)
	}
	logger.WithFields(logrus.Fields{"item": item.Name.EN, "id": item.ID}).Info("created menu item")
	return true, nil
}

func price(en int64, ar string) model.Price {
	return model.Price{EN: decimal.NewFromInt(en), AR: ar}
}

func menuSeed() []seedItem {
	return []seedItem{
		{
			item: model.MenuItem{
				Name:        model.Bilingual{EN: "Arabic Coffee", AR: "قهوة عربية"},
				Description: model.Description{EN: "Traditional coffee brewed with cardamom", AR: "قهوة تقليدية مع الهيل"},
				Price:       price(15, "١٥ درهم"),
				Category:    enum.CategoryCoffee,
				Sizes: []model.Size{
					{Name: model.Bilingual{EN: enum.SizeSmall, AR: "صغير"}, Price: price(12, "١٢ درهم")},
					{Name: model.Bilingual{EN: enum.SizeMedium, AR: "وسط"}, Price: price(15, "١٥ درهم"), IsDefault: true},
					{Name: model.Bilingual{EN: enum.SizeLarge, AR: "كبير"}, Price: price(18, "١٨ درهم")},
				},
			},
			stock: 100, min: 20, unit: "cups",
		},
		{
			item: model.MenuItem{
				Name:        model.Bilingual{EN: "Karak Tea", AR: "شاي كرك"},
				Description: model.Description{EN: "Spiced milk tea", AR: "شاي بالحليب والبهارات"},
				Price:       price(8, "٨ دراهم"),
				Category:    enum.CategoryTea,
			},
			stock: 150, min: 30, unit: "cups",
		},
		{
			item: model.MenuItem{
				Name:        model.Bilingual{EN: "Date Cake", AR: "كعكة التمر"},
				Description: model.Description{EN: "Moist cake made with local dates", AR: "كعكة طرية بالتمر المحلي"},
				Price:       price(22, "٢٢ درهم"),
				Category:    enum.CategoryPastries,
			},
			stock: 25, min: 5, unit: "pieces",
		},
		{
			item: model.MenuItem{
				Name:        model.Bilingual{EN: "Roasted Beans", AR: "حبوب محمصة"},
				Description: model.Description{EN: "House roast coffee beans", AR: "حبوب قهوة محمصة في المحل"},
				Price:       price(45, "٤٥ درهم"),
				Category:    enum.CategorySpecial,
				Sizes: []model.Size{
					{Name: model.Bilingual{EN: enum.Size250g, AR: "٢٥٠ غ"}, Price: price(45, "٤٥ درهم"), IsDefault: true},
					{Name: model.Bilingual{EN: enum.Size500g, AR: "٥٠٠ غ"}, Price: price(85, "٨٥ درهم")},
					{Name: model.Bilingual{EN: enum.Size1kg, AR: "١ كغ"}, Price: price(160, "١٦٠ درهم")},
				},
			},
			stock: 40, min: 10, unit: "packs",
		},
	}
}
