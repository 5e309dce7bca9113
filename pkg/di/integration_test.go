package di

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/goliatone/go-refdata/refcache"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// OrderStatus is the reference model used by the integration tests
type OrderStatus struct {
	bun.BaseModel `bun:"table:order_statuses"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Code  string `bun:"code,notnull,unique"`
	Label string `bun:"label"`
}

func (s *OrderStatus) GetCode() string { return s.Code }

// bunStatusRepository backs the repository methods the tests exercise with
// real queries; anything else panics through the nil embedded interface
type bunStatusRepository struct {
	repository.Repository[*OrderStatus]
	db *bun.DB

	mu    sync.Mutex
	calls map[string]int
}

func newBunStatusRepository(db *bun.DB) *bunStatusRepository {
	return &bunStatusRepository{db: db, calls: make(map[string]int)}
}

func (r *bunStatusRepository) trackCall(method string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[method]++
}

func (r *bunStatusRepository) getCallCount(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

func (r *bunStatusRepository) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*OrderStatus, int, error) {
	r.trackCall("List")
	var records []*OrderStatus
	count, err := r.db.NewSelect().Model(&records).ScanAndCount(ctx)
	return records, count, err
}

func (r *bunStatusRepository) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*OrderStatus, error) {
	r.trackCall("GetByID")
	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, err
	}
	record := &OrderStatus{ID: pk}
	if err := r.db.NewSelect().Model(record).WherePK().Scan(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *bunStatusRepository) Update(ctx context.Context, record *OrderStatus, criteria ...repository.UpdateCriteria) (*OrderStatus, error) {
	r.trackCall("Update")
	_, err := r.db.NewUpdate().Model(record).WherePK().Exec(ctx)
	return record, err
}

func (r *bunStatusRepository) Create(ctx context.Context, record *OrderStatus, criteria ...repository.InsertCriteria) (*OrderStatus, error) {
	r.trackCall("Create")
	_, err := r.db.NewInsert().Model(record).Exec(ctx)
	return record, err
}

// newSeededContainer returns a container whose database holds three statuses
func newSeededContainer(t testing.TB) *Container {
	t.Helper()
	ctx := context.Background()

	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	db := container.DB()
	if _, err := db.NewCreateTable().Model((*OrderStatus)(nil)).Exec(ctx); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	rows := []*OrderStatus{
		{Code: "OPEN", Label: "Open"},
		{Code: "IN_PROGRESS", Label: "In progress"},
		{Code: "DONE", Label: "Done"},
	}
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return container
}

func newStatusCache(t testing.TB, container *Container, opts ...refcache.Option) *refcache.Cache[*OrderStatus] {
	t.Helper()
	statuses, err := NewReferenceCache[*OrderStatus](container, "order_status", opts...)
	if err != nil {
		t.Fatalf("NewReferenceCache() failed: %v", err)
	}
	t.Cleanup(statuses.Close)
	return statuses
}

func lookup(t testing.TB, statuses *refcache.Cache[*OrderStatus], code string) *OrderStatus {
	t.Helper()
	record, ok, err := statuses.Lookup(context.Background(), code)
	if err != nil {
		t.Fatalf("Lookup(%q) failed: %v", code, err)
	}
	if !ok {
		t.Fatalf("Lookup(%q) found nothing", code)
	}
	return record
}

func TestEndToEndReferenceCacheFlow(t *testing.T) {
	container := newSeededContainer(t)
	statuses := newStatusCache(t, container, refcache.WithSynonym("CLOSED", "DONE"))
	ctx := context.Background()

	if err := container.Startup(ctx); err != nil {
		t.Fatalf("Startup() failed: %v", err)
	}
	if !statuses.Loaded() {
		t.Fatalf("expected Startup to load the cache, state %s", statuses.State())
	}

	done := lookup(t, statuses, "done")
	if lookup(t, statuses, "DONE") != done || lookup(t, statuses, "closed") != done {
		t.Error("case variants and synonyms must return the same instance")
	}

	inProgress, ok, err := statuses.Accessor(ctx, "InProgress")
	if err != nil || !ok || inProgress.Label != "In progress" {
		t.Fatalf("Accessor(InProgress) = %+v, %v, %v", inProgress, ok, err)
	}

	// An out-of-band update is only visible after NeedsReload
	if _, err := container.DB().NewUpdate().Model((*OrderStatus)(nil)).
		Set("label = ?", "Completed").
		Where("code = ?", "DONE").
		Exec(ctx); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if done.Label != "Done" {
		t.Fatalf("cached row changed before NeedsReload: %q", done.Label)
	}

	statuses.NeedsReload()
	if got := lookup(t, statuses, "DONE"); got != done {
		t.Error("refresh must keep the instance")
	}
	if done.Label != "Completed" {
		t.Errorf("expected the held instance to read 'Completed', got %q", done.Label)
	}
}

func TestResetAllPicksUpNewRows(t *testing.T) {
	container := newSeededContainer(t)
	statuses := newStatusCache(t, container)
	ctx := context.Background()

	lookup(t, statuses, "OPEN")

	if _, err := container.DB().NewInsert().Model(&OrderStatus{Code: "BOP", Label: "Bop"}).Exec(ctx); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, ok, _ := statuses.Lookup(ctx, "BOP"); ok {
		t.Fatal("new row must not be visible before a reset")
	}

	container.ResetAll()

	bop := lookup(t, statuses, "bop")
	if bop.Label != "Bop" {
		t.Errorf("expected label 'Bop', got %q", bop.Label)
	}
	names, err := statuses.Accessors(ctx)
	if err != nil {
		t.Fatalf("Accessors() failed: %v", err)
	}
	if len(names) != 4 {
		t.Errorf("expected 4 accessors after the reset, got %v", names)
	}
}

func TestGuardedRepositoryFlow(t *testing.T) {
	container := newSeededContainer(t)
	statuses := newStatusCache(t, container)
	base := newBunStatusRepository(container.DB())
	guarded := NewGuardedRepository[*OrderStatus](container, "order_status", base)
	ctx := context.Background()

	open := lookup(t, statuses, "OPEN")

	_, err := guarded.Create(ctx, &OrderStatus{Code: "NEW"})
	if !errors.Is(err, refcache.ErrMutationRejected) {
		t.Fatalf("expected create to be rejected, got %v", err)
	}
	if base.getCallCount("Create") != 0 {
		t.Error("rejected create must not reach the database")
	}

	if err := guarded.Delete(ctx, open); !errors.Is(err, refcache.ErrMutationRejected) {
		t.Fatalf("expected delete to be rejected, got %v", err)
	}

	recoded := *open
	recoded.Code = "OPENED"
	if _, err := guarded.Update(ctx, &recoded); !errors.Is(err, refcache.ErrMutationRejected) {
		t.Fatalf("expected a code change to be rejected, got %v", err)
	}
	if base.getCallCount("Update") != 0 {
		t.Error("rejected update must not reach the database")
	}

	relabeled := *open
	relabeled.Label = "Open (new)"
	if _, err := guarded.Update(ctx, &relabeled); err != nil {
		t.Fatalf("label update must pass, got %v", err)
	}

	// The cache is not told about updates
	if open.Label != "Open" {
		t.Errorf("cache must keep the old label until reloaded, got %q", open.Label)
	}
	statuses.NeedsReload()
	lookup(t, statuses, "OPEN")
	if open.Label != "Open (new)" {
		t.Errorf("expected the refreshed label, got %q", open.Label)
	}
}

func TestRepositoryReferenceCache(t *testing.T) {
	container := newSeededContainer(t)
	base := newBunStatusRepository(container.DB())

	statuses, err := NewRepositoryReferenceCache[*OrderStatus](container, "order_status", base)
	if err != nil {
		t.Fatalf("NewRepositoryReferenceCache() failed: %v", err)
	}
	defer statuses.Close()

	done := lookup(t, statuses, "DONE")
	lookup(t, statuses, "OPEN")
	if base.getCallCount("List") != 1 {
		t.Errorf("expected a single List call, got %d", base.getCallCount("List"))
	}

	if _, err := container.DB().NewDelete().Model((*OrderStatus)(nil)).Where("code = ?", "DONE").Exec(context.Background()); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	statuses.NeedsReload()

	if _, ok, err := statuses.Lookup(context.Background(), "DONE"); ok || err != nil {
		t.Errorf("expected the deleted row to be dropped, ok=%v err=%v", ok, err)
	}
	if base.getCallCount("GetByID") != 3 {
		t.Errorf("expected one GetByID per cached row (3), got %d", base.getCallCount("GetByID"))
	}
	if _, err := base.GetByID(context.Background(), strconv.FormatInt(done.ID, 10)); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected the row to be gone from the database, got %v", err)
	}
}
