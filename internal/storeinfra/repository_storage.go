package storeinfra

import (
	"context"
	"database/sql"
	"errors"

	repository "github.com/goliatone/go-repository-bun"
)

// RepositoryStorage reads reference rows through a go-repository-bun
// repository, so existing repositories (and their handlers) can be reused.
type RepositoryStorage[T any] struct {
	repo repository.Repository[T]
}

// NewRepositoryStorage wraps repo.
func NewRepositoryStorage[T any](repo repository.Repository[T]) *RepositoryStorage[T] {
	return &RepositoryStorage[T]{repo: repo}
}

// FindAll lists every record; the total count is ignored.
func (s *RepositoryStorage[T]) FindAll(ctx context.Context) ([]T, error) {
	records, _, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Refresh fetches the record by ID and copies the fetched values into record.
func (s *RepositoryStorage[T]) Refresh(ctx context.Context, record T) error {
	id, err := RecordID(record)
	if err != nil {
		return err
	}

	fresh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecordNotFound
		}
		return err
	}

	return CopyInto(record, fresh)
}
