// Package registry maps names to constructors. Transcription backends and
// per-language sentence tokenizers are both looked up through it.
package registry

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ErrUnknown is returned by Create for a name nothing was registered under.
var ErrUnknown = errors.New("not registered")

// Factory builds a T from string options.
type Factory[T any] func(options map[string]string) (T, error)

// Registry is safe for concurrent use.
type Registry[T any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

func New[T any]() *Registry[T] {
	return &Registry[T]{factories: make(map[string]Factory[T])}
}

// Register binds name to factory. A later registration under the same name
// wins.
func (r *Registry[T]) Register(name string, factory Factory[T]) {
	r.mu.Lock()
	r.factories[name] = factory
	r.mu.Unlock()
}

// Create builds the T registered under name. Factory errors are prefixed
// with the name.
func (r *Registry[T]) Create(name string, options map[string]string) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	var zero T
	if !ok {
		return zero, fmt.Errorf("%q %w (known: %s)", name, ErrUnknown, strings.Join(r.List(), ", "))
	}
	v, err := factory(options)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// List returns the registered names, sorted.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}
