// Package tables implements the typed repositories on top of the generic
// table-query interface, so the same code runs against PostgREST or SQL.
package tables

import (
	"context"
	"fmt"
	"time"

	"github.com/blazzica/marketplace-api/repositories"
	"github.com/google/uuid"
)

// New wires every repository to the given backend. A nil tx runs
// multi-step writes without a transaction.
func New(q repositories.TableQuery, tx repositories.Transactor) *repositories.Repositories {
	if tx == nil {
		tx = Direct{}
	}
	return &repositories.Repositories{
		Tx:        tx,
		Users:     NewUserRepository(q),
		Services:  NewServiceRepository(q),
		Bookings:  NewBookingRepository(q),
		Reviews:   NewReviewRepository(q),
		Profiles:  NewProviderProfileRepository(q),
		AuditLogs: NewAuditRepository(q),
	}
}

// Direct is a Transactor for backends without transactions
type Direct struct{}

// InTransaction calls fn with ctx unchanged
func (Direct) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// store holds the shared plumbing for one table
type store[T any] struct {
	q     repositories.TableQuery
	table string
}

func (s store[T]) insert(ctx context.Context, row map[string]any) error {
	if _, err := s.q.Insert(ctx, s.table, row); err != nil {
		return fmt.Errorf("insert into %s: %w", s.table, err)
	}
	return nil
}

func (s store[T]) one(ctx context.Context, filters ...repositories.Filter) (*T, error) {
	raw, err := s.q.SelectOne(ctx, repositories.From(s.table).Where(filters...))
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", s.table, err)
	}
	return repositories.DecodeRow[T](raw)
}

func (s store[T]) byID(ctx context.Context, id uuid.UUID) (*T, error) {
	return s.one(ctx, repositories.Eq("id", id))
}

func (s store[T]) list(ctx context.Context, q repositories.Query) ([]*T, error) {
	q.Table = s.table
	raw, err := s.q.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", s.table, err)
	}
	return repositories.DecodeRows[T](raw)
}

// update patches rows matching filters, stamps updated_at and returns the
// first updated row, or ErrNotFound when nothing matched.
func (s store[T]) update(ctx context.Context, patch map[string]any, filters ...repositories.Filter) (*T, error) {
	stamped := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		stamped[k] = v
	}
	stamped["updated_at"] = time.Now().UTC()

	raw, err := s.q.Update(ctx, s.table, stamped, filters...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", s.table, err)
	}
	rows, err := repositories.DecodeRows[T](raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("update %s: %w", s.table, repositories.ErrNotFound)
	}
	return rows[0], nil
}

func (s store[T]) count(ctx context.Context, filters ...repositories.Filter) (int, error) {
	n, err := s.q.Count(ctx, s.table, filters...)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table, err)
	}
	return n, nil
}

// optional returns nil for a nil pointer so the column is written as NULL
func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
