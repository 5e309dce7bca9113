package store

import (
	"time"

	"github.com/goliatone/go-refdata/internal/storeinfra"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Supported database drivers.
const (
	DriverSQLite   = storeinfra.DriverSQLite
	DriverPostgres = storeinfra.DriverPostgres
)

// Config exposes database configuration options for consumers of the store package.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryDebug      bool
}

// DefaultConfig returns a Config pointing at a private in-memory SQLite database.
func DefaultConfig() Config {
	return convertFromInternal(storeinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// Open connects to the configured database and returns a bun handle with the
// matching dialect.
func Open(cfg Config) (*bun.DB, error) {
	return storeinfra.OpenDB(cfg.toInternal())
}

// NewBunStorage returns a Storage reading rows of T straight through bun.
// T must be a pointer to a bun model with a primary key.
func NewBunStorage[T any](db bun.IDB) Storage[T] {
	return storeinfra.NewBunStorage[T](db)
}

// NewRepositoryStorage returns a Storage backed by a go-repository-bun repository.
func NewRepositoryStorage[T any](repo repository.Repository[T]) Storage[T] {
	return storeinfra.NewRepositoryStorage(repo)
}

func (c Config) toInternal() storeinfra.Config {
	return storeinfra.Config{
		Driver:          c.Driver,
		DSN:             c.DSN,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		QueryDebug:      c.QueryDebug,
	}
}

func convertFromInternal(cfg storeinfra.Config) Config {
	return Config{
		Driver:          cfg.Driver,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		QueryDebug:      cfg.QueryDebug,
	}
}
