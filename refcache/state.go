package refcache

// State is the load state of a Cache.
type State int32

const (
	// StateEmpty means nothing is loaded; the next lookup loads from storage.
	StateEmpty State = iota
	// StateLoading means a load or refresh holds the cache lock.
	StateLoading
	// StateLoaded means lookups are served from memory.
	StateLoaded
	// StateStale means a refresh was requested; the next lookup re-reads
	// every cached row in place.
	StateStale
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}
