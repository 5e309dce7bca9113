package storeinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// ErrRecordNotFound reports that the row behind a cached record is gone.
var ErrRecordNotFound = errors.New("storeinfra: record not found")

// BunStorage reads reference rows through bun. T must be a pointer to a bun
// model with a primary key, e.g. *OrderStatus.
type BunStorage[T any] struct {
	db bun.IDB
}

// NewBunStorage wraps db. Both *bun.DB and bun.Tx satisfy bun.IDB.
func NewBunStorage[T any](db bun.IDB) *BunStorage[T] {
	return &BunStorage[T]{db: db}
}

// FindAll selects every row of the model's table.
func (s *BunStorage[T]) FindAll(ctx context.Context) ([]T, error) {
	var records []T
	if err := s.db.NewSelect().Model(&records).Scan(ctx); err != nil {
		return nil, err
	}
	return records, nil
}

// Refresh scans the current row values into record, selecting by primary key.
// The pointer is reused so every holder of record observes the new values.
func (s *BunStorage[T]) Refresh(ctx context.Context, record T) error {
	err := s.db.NewSelect().Model(record).WherePK().Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}
	return err
}
