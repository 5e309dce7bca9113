package refcache

import (
	"context"
	"sort"
)

// Getter returns the cached instance bound to one code.
type Getter[T Record] func(ctx context.Context) (T, bool, error)

// Predicate reports whether a record carries one particular code.
type Predicate[T Record] func(record T) bool

// AccessorTable holds the named accessors and predicates generated for the
// codes of one load. A table is immutable once built; every load builds a new
// one and swaps it in, so codes that vanished from storage lose their
// accessors and new codes gain them.
type AccessorTable[T Record] struct {
	// getters maps accessor names (codes and synonyms) to bound lookups.
	getters map[string]Getter[T]
	// predicates maps predicate names to code tests.
	predicates map[string]Predicate[T]
	// codeByName maps accessor names to canonical codes.
	codeByName map[string]string
	// codes lists the loaded canonical codes in sorted order.
	codes []string
}

// buildAccessorTable derives accessors for every code in byCode plus the
// synonyms whose target was loaded. Getters are bound to c.Lookup, which stays
// the single source of truth.
func buildAccessorTable[T Record](c *Cache[T], byCode map[string]T) (*AccessorTable[T], error) {
	t := &AccessorTable[T]{
		getters:    make(map[string]Getter[T], len(byCode)),
		predicates: make(map[string]Predicate[T], len(byCode)),
		codeByName: make(map[string]string, len(byCode)),
		codes:      make([]string, 0, len(byCode)),
	}

	for code := range byCode {
		t.codes = append(t.codes, code)
	}
	sort.Strings(t.codes)

	for _, code := range t.codes {
		name := AccessorName(code)
		if name == "" {
			return nil, &ConfigError{Type: c.name, Name: code, Message: "code does not form an accessor name"}
		}
		if other, dup := t.codeByName[name]; dup {
			return nil, &ConfigError{Type: c.name, Name: name, Message: "codes " + other + " and " + code + " share this accessor name"}
		}
		t.add(c, name, code)
	}

	for _, name := range c.synonyms.Names() {
		target, _ := c.synonyms.ResolveName(name)
		if other, dup := t.codeByName[name]; dup {
			return nil, &ConfigError{Type: c.name, Name: name, Message: "synonym collides with code " + other}
		}
		if _, loaded := byCode[target]; !loaded {
			continue
		}
		t.add(c, name, target)
	}

	return t, nil
}

func (t *AccessorTable[T]) add(c *Cache[T], name, code string) {
	t.codeByName[name] = code
	t.getters[name] = func(ctx context.Context) (T, bool, error) {
		return c.Lookup(ctx, code)
	}
	t.predicates[predicatePrefix+name] = func(record T) bool {
		return Canonical(record.GetCode()) == code
	}
}

// Get returns the accessor registered under name.
func (t *AccessorTable[T]) Get(name string) (Getter[T], bool) {
	g, ok := t.getters[name]
	return g, ok
}

// Predicate returns the predicate registered under name, e.g. "IsBar".
func (t *AccessorTable[T]) Predicate(name string) (Predicate[T], bool) {
	p, ok := t.predicates[name]
	return p, ok
}

// Code returns the canonical code an accessor name resolves to.
func (t *AccessorTable[T]) Code(name string) (string, bool) {
	code, ok := t.codeByName[name]
	return code, ok
}

// Names returns every accessor name in sorted order.
func (t *AccessorTable[T]) Names() []string {
	return sortedKeys(t.getters)
}

// PredicateNames returns every predicate name in sorted order.
func (t *AccessorTable[T]) PredicateNames() []string {
	return sortedKeys(t.predicates)
}

// Codes returns the loaded canonical codes in sorted order.
func (t *AccessorTable[T]) Codes() []string {
	return append([]string(nil), t.codes...)
}

// Len returns the number of accessors, synonyms included.
func (t *AccessorTable[T]) Len() int {
	return len(t.getters)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
