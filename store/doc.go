// Package store defines the storage contract consumed by reference data caches
// and exposes the default bun backed implementations.
//
// # Overview
//
// A reference data cache never issues queries of its own. It talks to a
// Storage, which answers two questions:
//
//   - FindAll: every row of the table, read once per load
//   - Refresh: the current attribute values of one row, scanned into the
//     instance the cache already hands out so that its identity survives
//
// # Basic Usage
//
//	db, err := store.Open(store.Config{Driver: store.DriverSQLite, DSN: "refdata.db"})
//	if err != nil {
//		return err
//	}
//	storage := store.NewBunStorage[*OrderStatus](db)
//
// Existing go-repository-bun repositories can be reused as-is:
//
//	storage := store.NewRepositoryStorage[*OrderStatus](statusRepo)
//
// For tables that only carry a code, or for tests, plain functions work too:
//
//	storage := store.Funcs[*OrderStatus]{
//		FindAllFn: func(ctx context.Context) ([]*OrderStatus, error) {
//			return rows, nil
//		},
//	}
//
// # Error Handling
//
// Errors coming from the database are returned unchanged so callers can
// inspect driver errors directly. A row that vanished between loads is
// reported by Refresh as ErrRecordNotFound.
//
// # Drivers
//
// Open understands two drivers. "sqlite" uses the cgo free modernc.org/sqlite
// driver with bun's sqlite dialect; "postgres" uses pgx through database/sql
// with bun's pg dialect.
package store
