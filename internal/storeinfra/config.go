package storeinfra

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the configuration for the bun database handle backing
// reference data storage.
type Config struct {
	// Driver selects the database/sql driver and bun dialect.
	// One of DriverSQLite or DriverPostgres.
	Driver string

	// DSN is handed to sql.Open unchanged.
	DSN string

	// MaxOpenConns caps the pool size. Zero means unlimited.
	// In-memory SQLite databases live per connection, so they need 1.
	MaxOpenConns int

	// MaxIdleConns caps idle connections kept by the pool.
	MaxIdleConns int

	// ConnMaxLifetime closes connections older than this. Zero keeps them forever.
	ConnMaxLifetime time.Duration

	// QueryDebug logs every query through slog at debug level.
	QueryDebug bool
}

// DefaultConfig returns a Config for a private in-memory SQLite database.
func DefaultConfig() Config {
	return Config{
		Driver:       DriverSQLite,
		DSN:          "file::memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
}

// Validate checks if the configuration values are valid.
// The returned error is a validation.Errors keyed by field name.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.MaxOpenConns, validation.Min(0)),
		validation.Field(&c.MaxIdleConns, validation.Min(0)),
		validation.Field(&c.ConnMaxLifetime, validation.Min(time.Duration(0))),
	)
}
