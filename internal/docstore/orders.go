package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Order numbers are 1000 plus the counter's sequence, so the first is 1001.
const orderNumberBase = 1000

type orderItemDoc struct {
	MenuItem     primitive.ObjectID   `bson:"menuItem"`
	ItemName     bilingualDoc         `bson:"itemName"`
	SelectedSize *sizeDoc             `bson:"selectedSize,omitempty"`
	Quantity     int                  `bson:"quantity"`
	PriceAtOrder primitive.Decimal128 `bson:"priceAtOrder"`
}

type orderDoc struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty"`
	OrderNumber         int64                `bson:"orderNumber"`
	CustomerName        string               `bson:"customerName"`
	CustomerPhone       string               `bson:"customerPhone"`
	OrderType           string               `bson:"orderType"`
	TableNumber         string               `bson:"tableNumber,omitempty"`
	DeliveryAddress     string               `bson:"deliveryAddress,omitempty"`
	SpecialInstructions string               `bson:"specialInstructions,omitempty"`
	Items               []orderItemDoc       `bson:"items"`
	TotalAmount         primitive.Decimal128 `bson:"totalAmount"`
	Status              string               `bson:"status"`
	PaymentMethod       string               `bson:"paymentMethod"`
	CreatedAt           time.Time            `bson:"createdAt"`
	UpdatedAt           time.Time            `bson:"updatedAt"`
}

func toOrderDoc(o model.Order) (orderDoc, error) {
	d := orderDoc{
		OrderNumber:         o.OrderNumber,
		CustomerName:        o.CustomerName,
		CustomerPhone:       o.CustomerPhone,
		OrderType:           o.OrderType,
		TableNumber:         o.TableNumber,
		DeliveryAddress:     o.DeliveryAddress,
		SpecialInstructions: o.SpecialInstructions,
		Items:               make([]orderItemDoc, 0, len(o.Lines)),
		TotalAmount:         toDecimal128(o.Total),
		Status:              o.Status,
		PaymentMethod:       o.PaymentMethod,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	for i, l := range o.Lines {
		itemID, err := primitive.ObjectIDFromHex(l.MenuItemID)
		if err != nil {
			return orderDoc{}, fmt.Errorf("line %d: %w", i, model.ErrNotFound)
		}
		item := orderItemDoc{
			MenuItem:     itemID,
			ItemName:     bilingualDoc(l.ItemName),
			Quantity:     l.Quantity,
			PriceAtOrder: toDecimal128(l.PriceAtOrder),
		}
		if l.SelectedSize != nil {
			size := toSizeDoc(*l.SelectedSize)
			item.SelectedSize = &size
		}
		d.Items = append(d.Items, item)
	}
	return d, nil
}

func (d orderDoc) model() model.Order {
	o := model.Order{
		ID:                  d.ID.Hex(),
		OrderNumber:         d.OrderNumber,
		CustomerName:        d.CustomerName,
		CustomerPhone:       d.CustomerPhone,
		OrderType:           d.OrderType,
		TableNumber:         d.TableNumber,
		DeliveryAddress:     d.DeliveryAddress,
		SpecialInstructions: d.SpecialInstructions,
		Lines:               make([]model.OrderLine, 0, len(d.Items)),
		Total:               fromDecimal128(d.TotalAmount),
		Status:              d.Status,
		PaymentMethod:       d.PaymentMethod,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
	for _, it := range d.Items {
		l := model.OrderLine{
			MenuItemID:   it.MenuItem.Hex(),
			ItemName:     model.Bilingual(it.ItemName),
			Quantity:     it.Quantity,
			PriceAtOrder: fromDecimal128(it.PriceAtOrder),
		}
		if it.SelectedSize != nil {
			size := it.SelectedSize.model()
			l.SelectedSize = &size
		}
		o.Lines = append(o.Lines, l)
	}
	return o
}

// nextOrderNumber atomically increments the orders counter.
func (s *Store) nextOrderNumber(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "orders"},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next order number: %w", err)
	}
	return orderNumberBase + counter.Seq, nil
}

// CreateOrder stores the order with its lines under the next order number.
func (s *Store) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	n, err := s.nextOrderNumber(ctx)
	if err != nil {
		return model.Order{}, err
	}
	now := s.now()
	o.OrderNumber = n
	o.CreatedAt, o.UpdatedAt = now, now

	doc, err := toOrderDoc(o)
	if err != nil {
		return model.Order{}, err
	}
	doc.ID = primitive.NewObjectID()
	if _, err := s.orders.InsertOne(ctx, doc); err != nil {
		return model.Order{}, mapErr(err)
	}
	return doc.model(), nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (model.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.Order{}, err
	}
	var doc orderDoc
	if err := s.orders.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return model.Order{}, mapErr(err)
	}
	return doc.model(), nil
}

func orderFilter(f model.OrderFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	created := bson.M{}
	if !f.StartDate.IsZero() {
		created["$gte"] = f.StartDate
	}
	if !f.EndDate.IsZero() {
		created["$lt"] = f.EndDate.AddDate(0, 0, 1)
	}
	if len(created) > 0 {
		filter["createdAt"] = created
	}
	return filter
}

// ListOrders returns matching orders newest first with the total match count.
func (s *Store) ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, int, error) {
	filter := orderFilter(f)
	total, err := s.orders.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "orderNumber", Value: -1}}).
		SetSkip(int64(f.Offset))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cursor, err := s.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	orders := make([]model.Order, 0, len(docs))
	for _, d := range docs {
		orders = append(orders, d.model())
	}
	return orders, int(total), nil
}

// UpdateOrderStatus moves an order from one status to another. It returns
// model.ErrConflict when the order is no longer in status from.
func (s *Store) UpdateOrderStatus(ctx context.Context, id, from, to string) (model.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.Order{}, err
	}
	var doc orderDoc
	err = s.orders.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": s.now()}},
		returnAfter,
	).Decode(&doc)
	if err != nil {
		if err = mapErr(err); errors.Is(err, model.ErrNotFound) {
			return model.Order{}, missOrConflict(ctx, s.orders, bson.M{"_id": oid}, model.ErrConflict)
		}
		return model.Order{}, err
	}
	return doc.model(), nil
}
