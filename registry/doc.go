// Package registry keeps track of every reference data type in the process.
//
// Caches register themselves on construction and keep the returned Handle.
// The registry holds only a weak pointer to that handle, so a cache that is
// no longer referenced can be collected even though it was never explicitly
// unregistered. Dead entries are dropped the next time the registry is
// enumerated.
//
// Two operations span all registered types:
//
//	registry.Default().ResetAll()          // e.g. between test runs
//	err := registry.Default().ReloadAll(ctx) // e.g. at application startup
//
// Mirrored returns the types flagged for copying into isolated test storage;
// see pkg/testsupport for a fixture exporter built on it.
package registry
