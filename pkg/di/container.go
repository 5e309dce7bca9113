package di

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-refdata/refcache"
	"github.com/goliatone/go-refdata/registry"
	"github.com/goliatone/go-refdata/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Container provides dependency injection for reference data components.
// It owns the database handle and the registry every cache it builds is
// registered in, and provides factory functions for caches and guarded
// repositories.
type Container struct {
	db       *bun.DB
	registry *registry.Registry
	logger   *slog.Logger
	config   store.Config
}

// NewContainer creates a new DI container with the provided store configuration.
// It opens the database and creates a private registry, so caches built by
// different containers never see each other.
func NewContainer(config store.Config) (*Container, error) {
	db, err := store.Open(config)
	if err != nil {
		return nil, err
	}

	return &Container{
		db:       db,
		registry: registry.New(),
		logger:   slog.Default(),
		config:   config,
	}, nil
}

// NewContainerWithDefaults creates a new DI container backed by a private
// in-memory SQLite database.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(store.DefaultConfig())
}

// DB returns the bun handle used by caches built from this container.
func (c *Container) DB() *bun.DB {
	return c.db
}

// Registry returns the registry every cache built here is registered in.
func (c *Container) Registry() *registry.Registry {
	return c.registry
}

// Config returns a copy of the store configuration used by this container.
func (c *Container) Config() store.Config {
	return c.config
}

// SetLogger replaces the logger handed to caches built after the call.
func (c *Container) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Startup loads every registered type, so configuration errors and missing
// tables surface when the application boots rather than on first lookup.
func (c *Container) Startup(ctx context.Context) error {
	return c.registry.ReloadAll(ctx)
}

// ResetAll drops the rows of every registered type.
func (c *Container) ResetAll() {
	c.registry.ResetAll()
}

// Close closes the database handle.
func (c *Container) Close() error {
	return c.db.Close()
}

// NewReferenceCache creates a cache of T read straight from the container's
// database through bun. Options given by the caller win over the container's
// registry and logger.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewReferenceCache[*OrderStatus](container, "order_status")
func NewReferenceCache[T refcache.Record](container *Container, name string, opts ...refcache.Option) (*refcache.Cache[T], error) {
	return refcache.New[T](name, store.NewBunStorage[T](container.db), container.options(opts)...)
}

// NewRepositoryReferenceCache creates a cache of T loaded through an existing
// go-repository-bun repository.
func NewRepositoryReferenceCache[T refcache.Record](container *Container, name string, repo repository.Repository[T], opts ...refcache.Option) (*refcache.Cache[T], error) {
	return refcache.New[T](name, store.NewRepositoryStorage[T](repo), container.options(opts)...)
}

// NewGuardedRepository wraps base so reference rows cannot be created,
// deleted or re-coded through it.
func NewGuardedRepository[T refcache.Record](container *Container, name string, base repository.Repository[T]) *refcache.GuardedRepository[T] {
	return refcache.NewGuardedRepository[T](base, name)
}

func (c *Container) options(opts []refcache.Option) []refcache.Option {
	return append([]refcache.Option{
		refcache.WithRegistry(c.registry),
		refcache.WithLogger(c.logger),
	}, opts...)
}
