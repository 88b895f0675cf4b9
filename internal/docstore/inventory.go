package docstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type inventoryDoc struct {
	ID            primitive.ObjectID    `bson:"_id,omitempty"`
	MenuItem      primitive.ObjectID    `bson:"menuItem"`
	CurrentStock  primitive.Decimal128  `bson:"currentStock"`
	MinStock      primitive.Decimal128  `bson:"minStock"`
	Unit          string                `bson:"unit"`
	AutoReorder   bool                  `bson:"autoReorder"`
	Supplier      string                `bson:"supplier"`
	CostPerUnit   *primitive.Decimal128 `bson:"costPerUnit,omitempty"`
	LastRestocked time.Time             `bson:"lastRestocked"`
	CreatedAt     time.Time             `bson:"createdAt"`
	UpdatedAt     time.Time             `bson:"updatedAt"`
}

func (d inventoryDoc) model() model.InventoryRecord {
	r := model.InventoryRecord{
		ID:            d.ID.Hex(),
		MenuItemID:    d.MenuItem.Hex(),
		CurrentStock:  fromDecimal128(d.CurrentStock),
		MinStock:      fromDecimal128(d.MinStock),
		Unit:          d.Unit,
		AutoReorder:   d.AutoReorder,
		Supplier:      d.Supplier,
		LastRestocked: d.LastRestocked,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.CostPerUnit != nil {
		c := fromDecimal128(*d.CostPerUnit)
		r.CostPerUnit = &c
	}
	return r
}

func costDoc(c *decimal.Decimal) *primitive.Decimal128 {
	if c == nil {
		return nil
	}
	v := toDecimal128(*c)
	return &v
}

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

// withItems converts docs to records and fills in each record's menu item
// projection.
func (s *Store) withItems(ctx context.Context, docs ...inventoryDoc) ([]model.InventoryRecord, error) {
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.MenuItem)
	}
	summaries := make(map[primitive.ObjectID]model.ItemSummary, len(ids))
	if len(ids) > 0 {
		opts := options.Find().SetProjection(bson.M{"name": 1, "category": 1})
		cursor, err := s.menu.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
		if err != nil {
			return nil, err
		}
		var items []menuItemDoc
		if err := cursor.All(ctx, &items); err != nil {
			return nil, err
		}
		for _, it := range items {
			summaries[it.ID] = model.ItemSummary{Name: model.Bilingual(it.Name), Category: it.Category}
		}
	}

	out := make([]model.InventoryRecord, 0, len(docs))
	for _, d := range docs {
		r := d.model()
		item := summaries[d.MenuItem]
		r.Item = &item
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) findOneInventory(ctx context.Context, filter bson.M) (model.InventoryRecord, error) {
	var doc inventoryDoc
	if err := s.inventory.FindOne(ctx, filter).Decode(&doc); err != nil {
		return model.InventoryRecord{}, mapErr(err)
	}
	recs, err := s.withItems(ctx, doc)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	return recs[0], nil
}

func (s *Store) findInventory(ctx context.Context, filter bson.M) ([]model.InventoryRecord, error) {
	cursor, err := s.inventory.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var docs []inventoryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return s.withItems(ctx, docs...)
}

func (s *Store) GetInventory(ctx context.Context, id string) (model.InventoryRecord, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	return s.findOneInventory(ctx, bson.M{"_id": oid})
}

func (s *Store) GetInventoryByItem(ctx context.Context, menuItemID string) (model.InventoryRecord, error) {
	oid, err := parseID(menuItemID)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	return s.findOneInventory(ctx, bson.M{"menuItem": oid})
}

func (s *Store) ListInventoryByItems(ctx context.Context, menuItemIDs []string) ([]model.InventoryRecord, error) {
	oids := parseIDs(menuItemIDs)
	if len(oids) == 0 {
		return nil, nil
	}
	return s.findInventory(ctx, bson.M{"menuItem": bson.M{"$in": oids}})
}

// ListInventory returns every record, lowest stock first, then by item name.
func (s *Store) ListInventory(ctx context.Context) ([]model.InventoryRecord, error) {
	recs, err := s.findInventory(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool {
		if c := recs[i].CurrentStock.Cmp(recs[j].CurrentStock); c != 0 {
			return c < 0
		}
		return recs[i].Item.Name.EN < recs[j].Item.Name.EN
	})
	return recs, nil
}

// CreateInventory inserts a record. A missing menu item is reported as
// model.ErrNotFound and an existing record for the item as model.ErrConflict.
func (s *Store) CreateInventory(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error) {
	itemID, err := parseID(rec.MenuItemID)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	exists, err := s.MenuItemExists(ctx, rec.MenuItemID)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	if !exists {
		return model.InventoryRecord{}, model.ErrNotFound
	}

	now := s.now()
	doc := inventoryDoc{
		ID:            primitive.NewObjectID(),
		MenuItem:      itemID,
		CurrentStock:  toDecimal128(rec.CurrentStock),
		MinStock:      toDecimal128(rec.MinStock),
		Unit:          rec.Unit,
		AutoReorder:   rec.AutoReorder,
		Supplier:      rec.Supplier,
		CostPerUnit:   costDoc(rec.CostPerUnit),
		LastRestocked: rec.LastRestocked,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if doc.LastRestocked.IsZero() {
		doc.LastRestocked = now
	}
	if _, err := s.inventory.InsertOne(ctx, doc); err != nil {
		return model.InventoryRecord{}, mapErr(err)
	}
	recs, err := s.withItems(ctx, doc)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	return recs[0], nil
}

func (s *Store) UpdateInventory(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error) {
	oid, err := parseID(rec.ID)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	set := bson.M{
		"currentStock":  toDecimal128(rec.CurrentStock),
		"minStock":      toDecimal128(rec.MinStock),
		"unit":          rec.Unit,
		"autoReorder":   rec.AutoReorder,
		"supplier":      rec.Supplier,
		"lastRestocked": rec.LastRestocked,
		"updatedAt":     s.now(),
	}
	update := bson.M{"$set": set}
	if rec.CostPerUnit != nil {
		set["costPerUnit"] = toDecimal128(*rec.CostPerUnit)
	} else {
		update["$unset"] = bson.M{"costPerUnit": ""}
	}
	return s.updateInventory(ctx, bson.M{"_id": oid}, update)
}

func (s *Store) updateInventory(ctx context.Context, filter, update bson.M) (model.InventoryRecord, error) {
	var doc inventoryDoc
	if err := s.inventory.FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&doc); err != nil {
		return model.InventoryRecord{}, mapErr(err)
	}
	recs, err := s.withItems(ctx, doc)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	return recs[0], nil
}

// AdjustStock adds delta to the current stock. It returns
// model.ErrStockConflict when the result would go negative.
func (s *Store) AdjustStock(ctx context.Context, id string, delta decimal.Decimal) (model.InventoryRecord, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	now := s.now()
	set := bson.M{"updatedAt": now}
	if delta.IsPositive() {
		set["lastRestocked"] = now
	}
	filter := bson.M{"_id": oid, "currentStock": bson.M{"$gte": toDecimal128(delta.Neg())}}
	update := bson.M{"$inc": bson.M{"currentStock": toDecimal128(delta)}, "$set": set}

	rec, err := s.updateInventory(ctx, filter, update)
	if errors.Is(err, model.ErrNotFound) {
		return model.InventoryRecord{}, missOrConflict(ctx, s.inventory, bson.M{"_id": oid}, model.ErrStockConflict)
	}
	return rec, err
}

// DecrementStock subtracts qty from the item's stock only while enough stock
// remains. It returns model.ErrStockConflict otherwise.
func (s *Store) DecrementStock(ctx context.Context, menuItemID string, qty decimal.Decimal) (model.InventoryRecord, error) {
	oid, err := parseID(menuItemID)
	if err != nil {
		return model.InventoryRecord{}, err
	}
	filter := bson.M{"menuItem": oid, "currentStock": bson.M{"$gte": toDecimal128(qty)}}
	update := bson.M{
		"$inc": bson.M{"currentStock": toDecimal128(qty.Neg())},
		"$set": bson.M{"updatedAt": s.now()},
	}

	rec, err := s.updateInventory(ctx, filter, update)
	if errors.Is(err, model.ErrNotFound) {
		return model.InventoryRecord{}, missOrConflict(ctx, s.inventory, bson.M{"menuItem": oid}, model.ErrStockConflict)
	}
	return rec, err
}

func (s *Store) DeleteInventory(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.inventory.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}
