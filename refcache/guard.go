package refcache

import (
	"context"

	"github.com/goliatone/go-refdata/internal/storeinfra"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Guard rejects writes that would change the set of codes of a reference
// data type. Rows are only added, removed or re-coded in the database itself.
type Guard struct {
	TypeName string
}

// CheckCreate always fails.
func (g Guard) CheckCreate(record Record) error {
	return &MutationError{Op: OpCreate, Type: g.TypeName, Code: codeOf(record)}
}

// CheckDelete always fails.
func (g Guard) CheckDelete(record Record) error {
	return &MutationError{Op: OpDelete, Type: g.TypeName, Code: codeOf(record)}
}

// CheckUpdate fails when updated carries a different code than stored. Any
// other attribute may change.
func (g Guard) CheckUpdate(stored, updated Record) error {
	before, after := codeOf(stored), codeOf(updated)
	if before != after {
		return &MutationError{Op: OpChangeCode, Type: g.TypeName, Code: before}
	}
	return nil
}

func codeOf(record Record) string {
	if record == nil {
		return ""
	}
	return record.GetCode()
}

// Interface assertion to ensure GuardedRepository implements Repository[T]
var _ repository.Repository[Record] = (*GuardedRepository[Record])(nil)

// GuardedRepository decorates a repository of reference rows. Creates,
// upserts and deletes fail before reaching the database, updates are checked
// against the stored code, and reads pass through. No cache is notified of a
// successful update: call NeedsReload on the owning cache if the new values
// should be visible.
type GuardedRepository[T Record] struct {
	base  repository.Repository[T]
	guard Guard
}

// NewGuardedRepository wraps base; typeName is used in error messages.
func NewGuardedRepository[T Record](base repository.Repository[T], typeName string) *GuardedRepository[T] {
	return &GuardedRepository[T]{
		base:  base,
		guard: Guard{TypeName: typeName},
	}
}

// Get retrieves a single record using the provided criteria
func (r *GuardedRepository[T]) Get(ctx context.Context, criteria ...repository.SelectCriteria) (T, error) {
	return r.base.Get(ctx, criteria...)
}

// GetByID retrieves a record by ID with optional criteria
func (r *GuardedRepository[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	return r.base.GetByID(ctx, id, criteria...)
}

// List retrieves multiple records using the provided criteria
func (r *GuardedRepository[T]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	return r.base.List(ctx, criteria...)
}

// Count returns the number of records matching the criteria
func (r *GuardedRepository[T]) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	return r.base.Count(ctx, criteria...)
}

// GetByIdentifier retrieves a record by identifier with optional criteria
func (r *GuardedRepository[T]) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return r.base.GetByIdentifier(ctx, identifier, criteria...)
}

// Create is rejected.
func (r *GuardedRepository[T]) Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error) {
	var zero T
	return zero, r.guard.CheckCreate(record)
}

// CreateTx is rejected.
func (r *GuardedRepository[T]) CreateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.InsertCriteria) (T, error) {
	var zero T
	return zero, r.guard.CheckCreate(record)
}

// CreateMany is rejected.
func (r *GuardedRepository[T]) CreateMany(ctx context.Context, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	return nil, r.guard.CheckCreate(first(records))
}

// CreateManyTx is rejected.
func (r *GuardedRepository[T]) CreateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	return nil, r.guard.CheckCreate(first(records))
}

// GetOrCreate is rejected, since it may insert.
func (r *GuardedRepository[T]) GetOrCreate(ctx context.Context, record T) (T, error) {
	var zero T
	return zero, r.guard.CheckCreate(record)
}

// GetOrCreateTx is rejected, since it may insert.
func (r *GuardedRepository[T]) GetOrCreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	var zero T
	return zero, r.guard.CheckCreate(record)
}

// Update updates a record whose code is unchanged
func (r *GuardedRepository[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	var zero T
	if err := r.checkUpdate(ctx, nil, record); err != nil {
		return zero, err
	}
	return r.base.Update(ctx, record, criteria...)
}

// UpdateTx updates a record whose code is unchanged within a transaction
func (r *GuardedRepository[T]) UpdateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	var zero T
	if err := r.checkUpdate(ctx, tx, record); err != nil {
		return zero, err
	}
	return r.base.UpdateTx(ctx, tx, record, criteria...)
}

// UpdateMany updates records, failing before any write if one changes code
func (r *GuardedRepository[T]) UpdateMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	for _, record := range records {
		if err := r.checkUpdate(ctx, nil, record); err != nil {
			return nil, err
		}
	}
	return r.base.UpdateMany(ctx, records, criteria...)
}

// UpdateManyTx updates records within a transaction, failing before any
// write if one changes code
func (r *GuardedRepository[T]) UpdateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	for _, record := range records {
		if err := r.checkUpdate(ctx, tx, record); err != nil {
			return nil, err
		}
	}
	return r.base.UpdateManyTx(ctx, tx, records, criteria...)
}

// Upsert is rejected, since it may insert.
func (r *GuardedRepository[T]) Upsert(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	var zero T
	return zero, r.guard.CheckCreate(record)
}

// UpsertTx is rejected, since it may insert.
func (r *GuardedRepository[T]) UpsertTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	var zero T
	return zero, r.guard.CheckCreate(record)
}

// UpsertMany is rejected, since it may insert.
func (r *GuardedRepository[T]) UpsertMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	return nil, r.guard.CheckCreate(first(records))
}

// UpsertManyTx is rejected, since it may insert.
func (r *GuardedRepository[T]) UpsertManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	return nil, r.guard.CheckCreate(first(records))
}

// Delete is rejected.
func (r *GuardedRepository[T]) Delete(ctx context.Context, record T) error {
	return r.guard.CheckDelete(record)
}

// DeleteTx is rejected.
func (r *GuardedRepository[T]) DeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	return r.guard.CheckDelete(record)
}

// DeleteMany is rejected.
func (r *GuardedRepository[T]) DeleteMany(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	return r.guard.CheckDelete(nil)
}

// DeleteManyTx is rejected.
func (r *GuardedRepository[T]) DeleteManyTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	return r.guard.CheckDelete(nil)
}

// DeleteWhere is rejected.
func (r *GuardedRepository[T]) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	return r.guard.CheckDelete(nil)
}

// DeleteWhereTx is rejected.
func (r *GuardedRepository[T]) DeleteWhereTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	return r.guard.CheckDelete(nil)
}

// ForceDelete is rejected.
func (r *GuardedRepository[T]) ForceDelete(ctx context.Context, record T) error {
	return r.guard.CheckDelete(record)
}

// ForceDeleteTx is rejected.
func (r *GuardedRepository[T]) ForceDeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	return r.guard.CheckDelete(record)
}

// GetTx retrieves a single record using the provided criteria within a transaction
func (r *GuardedRepository[T]) GetTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (T, error) {
	return r.base.GetTx(ctx, tx, criteria...)
}

// GetByIDTx retrieves a record by ID with optional criteria within a transaction
func (r *GuardedRepository[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (T, error) {
	return r.base.GetByIDTx(ctx, tx, id, criteria...)
}

// ListTx retrieves multiple records using the provided criteria within a transaction
func (r *GuardedRepository[T]) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]T, int, error) {
	return r.base.ListTx(ctx, tx, criteria...)
}

// CountTx returns the number of records matching the criteria within a transaction
func (r *GuardedRepository[T]) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	return r.base.CountTx(ctx, tx, criteria...)
}

// GetByIdentifierTx retrieves a record by identifier with optional criteria within a transaction
func (r *GuardedRepository[T]) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return r.base.GetByIdentifierTx(ctx, tx, identifier, criteria...)
}

// Raw executes a raw SQL query and returns the results. Raw statements are
// not inspected.
func (r *GuardedRepository[T]) Raw(ctx context.Context, sql string, args ...any) ([]T, error) {
	return r.base.Raw(ctx, sql, args...)
}

// RawTx executes a raw SQL query within a transaction and returns the results
func (r *GuardedRepository[T]) RawTx(ctx context.Context, tx bun.IDB, sql string, args ...any) ([]T, error) {
	return r.base.RawTx(ctx, tx, sql, args...)
}

// Handlers returns the model handlers from the base repository
func (r *GuardedRepository[T]) Handlers() repository.ModelHandlers[T] {
	return r.base.Handlers()
}

// checkUpdate loads the stored row by primary key and compares codes. tx is
// nil outside a transaction.
func (r *GuardedRepository[T]) checkUpdate(ctx context.Context, tx bun.IDB, record T) error {
	id, err := storeinfra.RecordID(record)
	if err != nil {
		return err
	}

	var stored T
	if tx != nil {
		stored, err = r.base.GetByIDTx(ctx, tx, id)
	} else {
		stored, err = r.base.GetByID(ctx, id)
	}
	if err != nil {
		return err
	}

	return r.guard.CheckUpdate(stored, record)
}

func first[T Record](records []T) Record {
	if len(records) == 0 {
		return nil
	}
	return records[0]
}
