package refcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-refdata/internal/logging"
	"github.com/goliatone/go-refdata/internal/storeinfra"
	"github.com/goliatone/go-refdata/registry"
	"github.com/goliatone/go-refdata/store"
)

// Interface assertions to ensure Cache can be tracked by the registry
var (
	_ registry.Descriptor = (*Cache[Record])(nil)
	_ registry.Exporter   = (*Cache[Record])(nil)
)

// snapshot is one published view of the loaded rows. It is never mutated
// after publication.
type snapshot[T Record] struct {
	byCode map[string]T
	table  *AccessorTable[T]
}

// Cache holds every row of one reference data type in memory, keyed by
// canonical code.
type Cache[T Record] struct {
	name     string
	storage  store.Storage[T]
	synonyms *SynonymResolver
	onLoaded LoadedFunc
	mirrored bool
	logger   *slog.Logger
	registry *registry.Registry
	handle   *registry.Handle

	// mu is held for the whole storage read and table rebuild.
	mu sync.Mutex
	// state holds a State; read without mu on the lookup path.
	state atomic.Int32
	// snap is the published snapshot, nil until the first load.
	snap atomic.Pointer[snapshot[T]]
	// pendingStale records a NeedsReload that arrived mid-load.
	pendingStale atomic.Bool
}

// New creates a cache for the type called name and registers it. Synonyms are
// validated here so misconfiguration fails at startup rather than on first use.
func New[T Record](name string, storage store.Storage[T], opts ...Option) (*Cache[T], error) {
	if name == "" {
		return nil, &ConfigError{Type: "<unnamed>", Message: "type name is required"}
	}
	if storage == nil {
		return nil, &ConfigError{Type: name, Message: "storage is required"}
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	synonyms, err := NewSynonymResolver(name, o.synonyms)
	if err != nil {
		return nil, err
	}

	c := &Cache[T]{
		name:     name,
		storage:  storage,
		synonyms: synonyms,
		onLoaded: o.onLoaded,
		mirrored: o.mirrored,
		logger:   o.logger,
		registry: o.registry,
	}
	c.logger = logging.ForType(c.logger, name)
	if c.registry == nil {
		c.registry = registry.Default()
	}

	handle, err := c.registry.Register(c)
	if err != nil {
		return nil, err
	}
	c.handle = handle

	return c, nil
}

// Name returns the type name.
func (c *Cache[T]) Name() string {
	return c.name
}

// Mirrored reports whether the type's rows should be copied into isolated
// test storage.
func (c *Cache[T]) Mirrored() bool {
	return c.mirrored
}

// State returns the current load state.
func (c *Cache[T]) State() State {
	return State(c.state.Load())
}

// Loaded reports whether lookups are currently served from memory.
func (c *Cache[T]) Loaded() bool {
	return c.State() == StateLoaded
}

// Synonyms returns the declared synonyms.
func (c *Cache[T]) Synonyms() *SynonymResolver {
	return c.synonyms
}

// AllByCode returns a copy of the canonical code to row map, loading it when
// needed. Called from within this cache's own load path (with the context
// handed to storage or the loaded hook) it returns whatever is visible so far,
// which is empty during a first load.
func (c *Cache[T]) AllByCode(ctx context.Context) (map[string]T, error) {
	s, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return map[string]T{}, nil
	}
	return maps.Clone(s.byCode), nil
}

// Lookup returns the row for code. Case is ignored and declared synonyms are
// resolved first. An unknown code yields ok == false and a nil error; err is
// only set when loading failed.
func (c *Cache[T]) Lookup(ctx context.Context, code string) (record T, ok bool, err error) {
	s, err := c.current(ctx)
	if err != nil || s == nil {
		return record, false, err
	}

	key := Canonical(code)
	if target, isSynonym := c.synonyms.Resolve(key); isSynonym {
		key = target
	}
	record, ok = s.byCode[key]
	return record, ok, nil
}

// Accessor resolves a generated accessor name such as "InProgress" (or a
// synonym accessor) to its row.
func (c *Cache[T]) Accessor(ctx context.Context, name string) (T, bool, error) {
	var zero T
	table, err := c.Table(ctx)
	if err != nil || table == nil {
		return zero, false, err
	}
	get, ok := table.Get(name)
	if !ok {
		return zero, false, nil
	}
	return get(ctx)
}

// Is evaluates a generated predicate such as "IsInProgress" against record.
// Synonym predicates resolve to their canonical code.
func (c *Cache[T]) Is(ctx context.Context, record T, predicate string) (bool, error) {
	table, err := c.Table(ctx)
	if err != nil {
		return false, err
	}
	if table != nil {
		if p, ok := table.Predicate(predicate); ok {
			return p(record), nil
		}
	}
	return false, fmt.Errorf("%w: %s.%s", ErrUnknownAccessor, c.name, predicate)
}

// Accessors returns the accessor names available for the loaded rows.
func (c *Cache[T]) Accessors(ctx context.Context) ([]string, error) {
	table, err := c.Table(ctx)
	if err != nil || table == nil {
		return nil, err
	}
	return table.Names(), nil
}

// Predicates returns the predicate names available for the loaded rows.
func (c *Cache[T]) Predicates(ctx context.Context) ([]string, error) {
	table, err := c.Table(ctx)
	if err != nil || table == nil {
		return nil, err
	}
	return table.PredicateNames(), nil
}

// Table returns the accessor table of the current load, loading if needed.
// It is nil only for reentrant calls made during a first load.
func (c *Cache[T]) Table(ctx context.Context) (*AccessorTable[T], error) {
	s, err := c.current(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	return s.table, nil
}

// Fresh re-reads the row for code from storage into a detached copy. The
// cached instance is left untouched. T must be a pointer to a struct.
func (c *Cache[T]) Fresh(ctx context.Context, code string) (T, bool, error) {
	var zero T
	cached, ok, err := c.Lookup(ctx, code)
	if err != nil || !ok {
		return zero, ok, err
	}

	cloned, err := storeinfra.Clone(cached)
	if err != nil {
		return zero, false, err
	}
	fresh := cloned.(T)

	if err := c.storage.Refresh(ctx, fresh); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return fresh, true, nil
}

// Reset drops the loaded rows and accessors. It performs no storage I/O.
// Reset takes the load lock, so it must not be called from storage or a
// loaded hook of the same cache. The same holds for registry.ResetAll.
func (c *Cache[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Store(int32(StateEmpty))
	c.snap.Store(nil)
	c.pendingStale.Store(false)
	c.logger.Debug("reference data reset")
}

// NeedsReload marks the loaded rows stale without evicting them. The next
// lookup refreshes every cached instance in place, so references held
// elsewhere observe the new values.
func (c *Cache[T]) NeedsReload() {
	for {
		switch State(c.state.Load()) {
		case StateLoaded:
			if c.state.CompareAndSwap(int32(StateLoaded), int32(StateStale)) {
				return
			}
		case StateLoading:
			c.pendingStale.Store(true)
			return
		default:
			return
		}
	}
}

// ForceReload discards the loaded rows and loads them again. Unlike
// NeedsReload, instances are replaced. Called with the context of a running
// load of c, it returns ErrReloadDuringLoad instead of waiting on itself.
func (c *Cache[T]) ForceReload(ctx context.Context) (map[string]T, error) {
	if withinLoad(ctx, c) {
		return nil, fmt.Errorf("%s: %w", c.name, ErrReloadDuringLoad)
	}
	c.Reset()
	return c.AllByCode(ctx)
}

// Reload implements registry.Descriptor.
func (c *Cache[T]) Reload(ctx context.Context) error {
	_, err := c.ForceReload(ctx)
	return err
}

// Export implements registry.Exporter, loading the rows if needed.
func (c *Cache[T]) Export(ctx context.Context) (map[string]any, error) {
	all, err := c.AllByCode(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(all))
	for code, record := range all {
		out[code] = record
	}
	return out, nil
}

// Close removes the cache from its registry.
func (c *Cache[T]) Close() {
	c.registry.Unregister(c.handle)
}

// current returns the snapshot to serve, loading or refreshing under the
// lock when required.
func (c *Cache[T]) current(ctx context.Context) (*snapshot[T], error) {
	if State(c.state.Load()) == StateLoaded {
		if s := c.snap.Load(); s != nil {
			return s, nil
		}
	}

	// Same call chain as a running load: never wait on our own lock.
	if withinLoad(ctx, c) {
		return c.snap.Load(), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch State(c.state.Load()) {
	case StateLoaded:
		if s := c.snap.Load(); s != nil {
			return s, nil
		}
		return c.load(ctx)
	case StateStale:
		return c.refresh(ctx)
	default:
		return c.load(ctx)
	}
}

// load reads the full row set. Callers must hold mu.
func (c *Cache[T]) load(ctx context.Context) (*snapshot[T], error) {
	c.state.Store(int32(StateLoading))
	lctx := enterLoad(ctx, c)

	records, err := c.storage.FindAll(lctx)
	if err != nil {
		c.state.Store(int32(StateEmpty))
		c.logger.WarnContext(ctx, "reference data load failed", "error", err)
		return nil, err
	}

	byCode := make(map[string]T, len(records))
	for _, record := range records {
		code := Canonical(record.GetCode())
		if _, dup := byCode[code]; dup {
			c.state.Store(int32(StateEmpty))
			return nil, &ConfigError{Type: c.name, Name: code, Message: "code is not unique ignoring case"}
		}
		byCode[code] = record
	}

	return c.publish(ctx, lctx, byCode, StateEmpty)
}

// refresh re-reads every cached instance in place. Callers must hold mu.
func (c *Cache[T]) refresh(ctx context.Context) (*snapshot[T], error) {
	old := c.snap.Load()
	if old == nil {
		return c.load(ctx)
	}

	c.state.Store(int32(StateLoading))
	lctx := enterLoad(ctx, c)

	byCode := make(map[string]T, len(old.byCode))
	var dropped []string
	for code, record := range old.byCode {
		if err := c.storage.Refresh(lctx, record); err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				dropped = append(dropped, code)
				continue
			}
			c.state.Store(int32(StateStale))
			c.logger.WarnContext(ctx, "reference data refresh failed", "code", code, "error", err)
			return nil, err
		}

		key := Canonical(record.GetCode())
		if _, dup := byCode[key]; dup {
			c.state.Store(int32(StateStale))
			return nil, &ConfigError{Type: c.name, Name: key, Message: "code is not unique ignoring case"}
		}
		byCode[key] = record
	}

	if len(dropped) > 0 {
		c.logger.DebugContext(ctx, "reference data rows vanished", "codes", dropped)
	}

	return c.publish(ctx, lctx, byCode, StateStale)
}

// publish builds the accessor table, swaps the snapshot in and runs the
// loaded hook. The state stays Loading until the hook returns, so only the
// hook's own call chain sees the new rows before they are committed. On
// failure the previous snapshot is restored and the cache falls back to
// failState. Callers must hold mu.
func (c *Cache[T]) publish(ctx, lctx context.Context, byCode map[string]T, failState State) (*snapshot[T], error) {
	table, err := buildAccessorTable(c, byCode)
	if err != nil {
		c.state.Store(int32(failState))
		return nil, err
	}

	prev := c.snap.Load()
	s := &snapshot[T]{byCode: byCode, table: table}
	c.snap.Store(s)

	if c.onLoaded != nil {
		if err := c.onLoaded(lctx); err != nil {
			c.snap.Store(prev)
			c.state.Store(int32(failState))
			c.logger.WarnContext(ctx, "reference data loaded hook failed", "error", err)
			return nil, err
		}
	}

	c.state.Store(int32(StateLoaded))
	c.logger.DebugContext(ctx, "reference data loaded", "codes", table.Codes())

	if c.pendingStale.Swap(false) {
		c.state.Store(int32(StateStale))
	}

	return s, nil
}
