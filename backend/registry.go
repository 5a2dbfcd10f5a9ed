package backend

import (
	"fmt"
	"slices"
	"strings"
)

// Builder opens a Backend from resolved configuration.
type Builder func(cfg Config) (Backend, error)

// Registry maps configuration keys to backend builders. It is populated at
// startup and passed to whatever needs to open a backend.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds a builder under key, replacing any previous one. Keys are
// case-insensitive.
func (r *Registry) Register(key string, b Builder) {
	r.builders[strings.ToLower(key)] = b
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.builders))
	for k := range r.builders {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Open builds the backend registered under key.
func (r *Registry) Open(key string, cfg Config) (Backend, error) {
	b, ok := r.builders[strings.ToLower(key)]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownBackend, key, strings.Join(r.Keys(), ", "))
	}
	fs, err := b(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", key, err)
	}
	return fs, nil
}
