// Package refcache keeps small, rarely changing lookup tables (order
// statuses, country codes, unit types) in memory and exposes their rows by
// code.
//
// # Overview
//
// A reference data type is a table whose rows each carry a unique code. The
// application references rows by code and expects to get the same instance
// back every time, so it can compare pointers and hang derived state on the
// row. A Cache loads the whole table on first use, keys it by canonical
// (upper case) code, and serves every later lookup from memory.
//
//	statuses, err := refcache.New[*OrderStatus]("order_status",
//		store.NewBunStorage[*OrderStatus](db),
//		refcache.WithSynonym("CLOSED", "DONE"),
//	)
//
//	done, ok, err := statuses.Lookup(ctx, "done")   // same instance as "DONE"
//	closed, _, _ := statuses.Lookup(ctx, "closed")  // synonym, same instance
//
// # Accessors and predicates
//
// Each load builds an AccessorTable naming every code as an exported Go
// identifier: "IN_PROGRESS" gets the accessor "InProgress" and the predicate
// "IsInProgress". Synonyms get accessors and predicates too. The table is
// rebuilt on every load, so codes added to the table appear after a reload
// and codes removed from it disappear. Use the refdata CLI to generate typed
// constants from the same names at build time.
//
// # Reloading
//
//   - Reset drops the rows; the next lookup loads the table again and returns
//     new instances.
//   - NeedsReload marks the rows stale; the next lookup re-reads each cached
//     instance in place, so pointers held elsewhere see the new values.
//   - ForceReload is Reset followed by a load.
//
// A failed load is never cached: the error is returned unchanged and the next
// call tries again.
//
// # Concurrency
//
// Loaded lookups take no lock. Loads and refreshes run under a per-cache
// mutex, so concurrent first lookups trigger one storage read. Code that runs
// inside a load (the storage itself or a WithOnLoaded hook) may query the same
// cache as long as it passes along the context it was given; it then sees the
// rows loaded so far instead of waiting on itself. A call made with any other
// context blocks until the load finishes, which from inside the load never
// happens. For the same reason Reset and registry.ResetAll must not be called
// from storage or a hook; ForceReload and Reload detect the case and return
// ErrReloadDuringLoad.
//
// In-place refreshes write into instances that other goroutines may be
// reading. Callers that need a consistent copy of one row should use Fresh.
//
// # Mutations
//
// Rows are created, deleted and re-coded in the database, never through the
// application. Wrap the repository of a reference type in GuardedRepository to
// reject those writes with a *MutationError.
package refcache
