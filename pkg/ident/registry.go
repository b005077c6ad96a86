package ident

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrAmbiguousIdentifier is returned when two different qualified names fuse
// into the same flat name.
var ErrAmbiguousIdentifier = errors.New("ambiguous identifier")

// Registry remembers the qualified name behind every flat name it produced,
// so the reverse conversion is exact for names it has seen.
// A Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	names map[string]string // flat -> qualified (brackets stripped)
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]string)}
}

// ToFlat converts id like the package-level ToFlat and records the mapping.
// It fails with ErrAmbiguousIdentifier when the flat name is already bound to
// a different qualified name, e.g. "a_b.c" and "a.b_c".
func (r *Registry) ToFlat(id string) (string, error) {
	flat, err := ToFlat(id)
	if err != nil {
		return "", err
	}
	qualified := StripBrackets(id)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.names[flat]; ok && existing != qualified {
		return "", fmt.Errorf("%w: %q and %q both map to %q", ErrAmbiguousIdentifier, existing, qualified, flat)
	}
	r.names[flat] = qualified
	return flat, nil
}

// ToQualified returns the recorded qualified name for flat. Unknown names
// fall back to the lossy package-level ToQualified; the second result tells
// which path was taken.
func (r *Registry) ToQualified(flat string) (string, bool) {
	r.mu.RLock()
	q, ok := r.names[flat]
	r.mu.RUnlock()
	if ok {
		return q, true
	}
	return ToQualified(flat), false
}

// Len returns the number of recorded mappings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Flats returns the recorded flat names, sorted.
func (r *Registry) Flats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for f := range r.names {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
