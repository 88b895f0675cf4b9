// Package database is the PostgreSQL backend. Queries are written against a
// DBTX so the same code runs on the pool or inside a transaction.
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// Store implements the application's store interfaces on a connection pool.
type Store struct {
	pool *pgxpool.Pool
	*Queries
}

// NewStore creates a Store on pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, Queries: New(pool)}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// execTx runs fn inside a transaction and commits when fn returns nil.
func (s *Store) execTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(s.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CreateOrder stores the order and its lines in one transaction under the
// next order number.
func (s *Store) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
	var created model.Order
	err := s.execTx(ctx, func(q *Queries) error {
		n, err := q.nextOrderNumber(ctx)
		if err != nil {
			return fmt.Errorf("next order number: %w", err)
		}
		o.OrderNumber = n

		created, err = q.insertOrder(ctx, o)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		orderID, err := uuid.Parse(created.ID)
		if err != nil {
			return err
		}
		for i, l := range o.Lines {
			if err := q.insertOrderItem(ctx, orderID, i, l); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		created.Lines = o.Lines
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}
	return created, nil
}
