package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

var (
	// ErrNilDescriptor is returned when Register receives a nil descriptor.
	ErrNilDescriptor = errors.New("registry: nil descriptor")
	// ErrEmptyName is returned when a descriptor reports an empty type name.
	ErrEmptyName = errors.New("registry: empty type name")
)

// Descriptor is the registry's view of one reference data type.
type Descriptor interface {
	// Name returns the type name used for diagnostics and fixture files.
	Name() string
	// Mirrored reports whether the type's rows should be copied into
	// isolated test storage.
	Mirrored() bool
	// Reset drops the in-memory rows without touching storage.
	Reset()
	// Reload drops the in-memory rows and loads them again.
	Reload(ctx context.Context) error
}

// Exporter is implemented by descriptors whose loaded rows can be written out,
// keyed by canonical code.
type Exporter interface {
	Export(ctx context.Context) (map[string]any, error)
}

// Handle is the registration token returned by Register. The registry only
// keeps a weak reference to it: whoever registered the descriptor must hold
// the handle for as long as the registration should stay alive.
type Handle struct {
	token uuid.UUID
	desc  Descriptor
}

// Token returns the generation token identifying this registration.
func (h *Handle) Token() uuid.UUID {
	return h.token
}

// entry is what the registry stores per registration.
type entry struct {
	name string
	seq  uint64
	ref  weak.Pointer[Handle]
}

// Registry is a process-wide set of reference data types held through weak
// references, so that types defined and dropped repeatedly (as in isolated
// tests) do not pin memory.
type Registry struct {
	// mu serializes writers and Enumerate, whose prune must not race a
	// Register. Includes and Len read entries without it.
	mu sync.Mutex
	// entries maps a registration token to its weak entry. Reads are
	// lock-free.
	entries *xsync.MapOf[uuid.UUID, entry]
	// seq orders registrations so enumeration is stable.
	seq atomic.Uint64
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		entries: xsync.NewMapOf[uuid.UUID, entry](),
	}
}

var defaultRegistry = New()

// Default returns the process-wide registry used by caches that are not
// given one explicitly.
func Default() *Registry {
	return defaultRegistry
}

// Register adds d and returns the handle that keeps the registration alive.
// Registering two descriptors with the same name is allowed; each gets its
// own generation token.
func (r *Registry) Register(d Descriptor) (*Handle, error) {
	if d == nil {
		return nil, ErrNilDescriptor
	}
	name := d.Name()
	if name == "" {
		return nil, ErrEmptyName
	}

	h := &Handle{token: uuid.New(), desc: d}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries.Store(h.token, entry{
		name: name,
		seq:  r.seq.Add(1),
		ref:  weak.Make(h),
	})
	return h, nil
}

// Unregister removes the registration identified by h. It is a no-op for
// nil or already removed handles.
func (r *Registry) Unregister(h *Handle) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries.Delete(h.token)
}

// Enumerate returns every live descriptor ordered by registration.
// Entries whose handle has been garbage collected are pruned here.
func (r *Registry) Enumerate() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	type live struct {
		seq  uint64
		desc Descriptor
	}

	var (
		alive []live
		dead  []uuid.UUID
	)
	r.entries.Range(func(token uuid.UUID, e entry) bool {
		h := e.ref.Value()
		if h == nil {
			dead = append(dead, token)
			return true
		}
		alive = append(alive, live{seq: e.seq, desc: h.desc})
		return true
	})

	for _, token := range dead {
		r.entries.Delete(token)
	}

	sort.Slice(alive, func(i, j int) bool {
		return alive[i].seq < alive[j].seq
	})

	out := make([]Descriptor, len(alive))
	for i, l := range alive {
		out[i] = l.desc
	}
	return out
}

// Mirrored returns the live descriptors flagged for fixture mirroring.
func (r *Registry) Mirrored() []Descriptor {
	var out []Descriptor
	for _, d := range r.Enumerate() {
		if d.Mirrored() {
			out = append(out, d)
		}
	}
	return out
}

// ResetAll resets every live registered type.
func (r *Registry) ResetAll() {
	for _, d := range r.Enumerate() {
		d.Reset()
	}
}

// ReloadAll reloads every live registered type. All types are attempted;
// failures are joined into the returned error.
func (r *Registry) ReloadAll(ctx context.Context) error {
	var errs []error
	for _, d := range r.Enumerate() {
		if err := d.Reload(ctx); err != nil {
			errs = append(errs, fmt.Errorf("reload %s: %w", d.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Includes reports whether a live descriptor with the given name is
// registered. It does not take the registry lock and may run concurrently
// with registration.
func (r *Registry) Includes(name string) bool {
	found := false
	r.entries.Range(func(_ uuid.UUID, e entry) bool {
		if e.name == name && e.ref.Value() != nil {
			found = true
			return false
		}
		return true
	})
	return found
}

// Len returns the number of stored entries, including dead ones that have
// not been pruned yet.
func (r *Registry) Len() int {
	return r.entries.Size()
}
