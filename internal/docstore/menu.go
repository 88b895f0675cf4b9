package docstore

import (
	"context"
	"regexp"
	"time"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type menuItemDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        bilingualDoc       `bson:"name"`
	Description bilingualDoc       `bson:"description"`
	Price       priceDoc           `bson:"price"`
	Category    string             `bson:"category"`
	Image       string             `bson:"image"`
	Sizes       []sizeDoc          `bson:"sizes"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func toMenuItemDoc(m model.MenuItem) menuItemDoc {
	d := menuItemDoc{
		Name:        bilingualDoc(m.Name),
		Description: bilingualDoc(m.Description),
		Price:       priceDoc{EN: toDecimal128(m.Price.EN), AR: m.Price.AR},
		Category:    m.Category,
		Image:       m.Image,
		Sizes:       make([]sizeDoc, 0, len(m.Sizes)),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for _, s := range m.Sizes {
		d.Sizes = append(d.Sizes, toSizeDoc(s))
	}
	return d
}

func (d menuItemDoc) model() model.MenuItem {
	m := model.MenuItem{
		ID:          d.ID.Hex(),
		Name:        model.Bilingual(d.Name),
		Description: model.Description(d.Description),
		Price:       model.Price{EN: fromDecimal128(d.Price.EN), AR: d.Price.AR},
		Category:    d.Category,
		Image:       d.Image,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, s := range d.Sizes {
		m.Sizes = append(m.Sizes, s.model())
	}
	return m
}

func (s *Store) GetMenuItem(ctx context.Context, id string) (model.MenuItem, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.MenuItem{}, err
	}
	var doc menuItemDoc
	if err := s.menu.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return model.MenuItem{}, mapErr(err)
	}
	return doc.model(), nil
}

// GetMenuItemsByIDs returns the items that exist among ids.
func (s *Store) GetMenuItemsByIDs(ctx context.Context, ids []string) ([]model.MenuItem, error) {
	oids := parseIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}
	return s.findMenuItems(ctx, bson.M{"_id": bson.M{"$in": oids}}, nil)
}

func (s *Store) findMenuItems(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.MenuItem, error) {
	cursor, err := s.menu.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []menuItemDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	items := make([]model.MenuItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.model())
	}
	return items, nil
}

// menuFilter builds the query for a catalog listing. Search matches either
// language of the name or description, case-insensitively.
func menuFilter(f model.MenuFilter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name.EN": re},
			bson.M{"name.AR": re},
			bson.M{"description.EN": re},
			bson.M{"description.AR": re},
		}
	}
	return filter
}

func (s *Store) ListMenuItems(ctx context.Context, f model.MenuFilter) ([]model.MenuItem, int, error) {
	filter := menuFilter(f)
	total, err := s.menu.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name.EN", Value: 1}}).
		SetSkip(int64(f.Offset()))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	items, err := s.findMenuItems(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, int(total), nil
}

func (s *Store) CreateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	now := s.now()
	item.CreatedAt, item.UpdatedAt = now, now
	doc := toMenuItemDoc(item)
	doc.ID = primitive.NewObjectID()
	if _, err := s.menu.InsertOne(ctx, doc); err != nil {
		return model.MenuItem{}, mapErr(err)
	}
	return doc.model(), nil
}

func (s *Store) UpdateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	oid, err := parseID(item.ID)
	if err != nil {
		return model.MenuItem{}, err
	}
	doc := toMenuItemDoc(item)
	update := bson.M{"$set": bson.M{
		"name":        doc.Name,
		"description": doc.Description,
		"price":       doc.Price,
		"category":    doc.Category,
		"image":       doc.Image,
		"sizes":       doc.Sizes,
		"updatedAt":   s.now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated menuItemDoc
	if err := s.menu.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&updated); err != nil {
		return model.MenuItem{}, mapErr(err)
	}
	return updated.model(), nil
}

// DeleteMenuItem removes the item and its stock record.
func (s *Store) DeleteMenuItem(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.menu.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	_, err = s.inventory.DeleteMany(ctx, bson.M{"menuItem": oid})
	return err
}

func (s *Store) MenuItemExists(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	n, err := s.menu.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
