package store

import (
	"context"

	"github.com/goliatone/go-refdata/internal/storeinfra"
)

// ErrRecordNotFound is returned by Storage.Refresh when the row backing a
// cached record no longer exists.
var ErrRecordNotFound = storeinfra.ErrRecordNotFound

// Storage is the read contract a reference cache needs from the table that
// holds its rows. Implementations must return every row on FindAll and must
// re-read a row into the very instance handed to Refresh.
type Storage[T any] interface {
	FindAll(ctx context.Context) ([]T, error)
	Refresh(ctx context.Context, record T) error
}

// FindAllFn loads the full row set of a table.
type FindAllFn[T any] func(ctx context.Context) ([]T, error)

// RefreshFn re-reads the current attribute values of record in place.
type RefreshFn[T any] func(ctx context.Context, record T) error

// Funcs adapts a pair of plain functions to Storage. A nil RefreshFn makes
// Refresh a no-op, which suits tables whose rows only carry a code.
type Funcs[T any] struct {
	FindAllFn FindAllFn[T]
	RefreshFn RefreshFn[T]
}

var _ Storage[any] = Funcs[any]{}

// FindAll implements Storage.
func (f Funcs[T]) FindAll(ctx context.Context) ([]T, error) {
	return f.FindAllFn(ctx)
}

// Refresh implements Storage.
func (f Funcs[T]) Refresh(ctx context.Context, record T) error {
	if f.RefreshFn == nil {
		return nil
	}
	return f.RefreshFn(ctx, record)
}
