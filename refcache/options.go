package refcache

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-refdata/registry"
)

// LoadedFunc runs after every successful load or refresh, once the new
// accessor table is in place. The context it receives marks the cache as
// loading: lookups made with it see the new rows without re-entering the
// load. Other callers wait until the hook returns. Returning an error
// discards the load.
type LoadedFunc func(ctx context.Context) error

// Option configures a Cache.
type Option func(*options)

type options struct {
	synonyms map[string]string
	onLoaded LoadedFunc
	mirrored bool
	logger   *slog.Logger
	registry *registry.Registry
}

// WithSynonyms declares alternate names (alternate -> canonical code). Each
// alternate gets an accessor and a predicate returning the canonical row.
func WithSynonyms(synonyms map[string]string) Option {
	return func(o *options) {
		if o.synonyms == nil {
			o.synonyms = make(map[string]string, len(synonyms))
		}
		for alt, code := range synonyms {
			o.synonyms[alt] = code
		}
	}
}

// WithSynonym declares a single alternate name for code.
func WithSynonym(alternate, code string) Option {
	return WithSynonyms(map[string]string{alternate: code})
}

// WithOnLoaded installs a hook used to derive secondary indexes from the rows.
func WithOnLoaded(fn LoadedFunc) Option {
	return func(o *options) {
		o.onLoaded = fn
	}
}

// WithFixtureMirror flags the type's rows for copying into isolated test storage.
func WithFixtureMirror() Option {
	return func(o *options) {
		o.mirrored = true
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry registers the cache in r instead of registry.Default().
func WithRegistry(r *registry.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}
