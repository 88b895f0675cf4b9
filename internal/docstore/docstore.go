// Package docstore is the MongoDB backend. Orders embed their lines, so an
// order insert is a single-document write.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	menuCollection      = "menuitems"
	inventoryCollection = "inventories"
	orderCollection     = "orders"
	counterCollection   = "counters"
)

// Store implements the application's store interfaces on a MongoDB database.
type Store struct {
	client    *mongo.Client
	menu      *mongo.Collection
	inventory *mongo.Collection
	orders    *mongo.Collection
	counters  *mongo.Collection
	now       func() time.Time
}

// Connect dials uri, verifies the connection and creates the indexes the
// store relies on.
func Connect(ctx context.Context, uri, dbName string, logger logrus.FieldLogger) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := New(client.Database(dbName))
	s.client = client
	if err := s.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.WithField("database", dbName).Info("connected to mongo")
	return s, nil
}

// New creates a Store on db without touching the server.
func New(db *mongo.Database) *Store {
	return &Store{
		client:    db.Client(),
		menu:      db.Collection(menuCollection),
		inventory: db.Collection(inventoryCollection),
		orders:    db.Collection(orderCollection),
		counters:  db.Collection(counterCollection),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the unique and sort indexes. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.menu, mongo.IndexModel{Keys: bson.D{{Key: "category", Value: 1}, {Key: "name.EN", Value: 1}}}},
		{s.inventory, mongo.IndexModel{
			Keys:    bson.D{{Key: "menuItem", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.orders, mongo.IndexModel{
			Keys:    bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.orders, mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}},
		{s.orders, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, model.ErrNotFound
	}
	return oid, nil
}

func parseIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

// mapErr translates driver errors into model errors.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return model.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", model.ErrConflict, err)
	}
	return err
}

// missOrConflict tells apart a conditional update that matched no document
// from one whose condition failed.
func missOrConflict(ctx context.Context, coll *mongo.Collection, filter bson.M, conflict error) error {
	n, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return err
	}
	if n > 0 {
		return conflict
	}
	return model.ErrNotFound
}
