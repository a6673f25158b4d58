package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ExitIndex is the menu selection that ends the session. It never maps to an endpoint.
const ExitIndex = 0

var (
	ErrReservedIndex     = errors.New("index 0 is reserved for exit")
	ErrOutOfRange        = errors.New("selection out of range")
	ErrInvalidSelection  = errors.New("selection must be a number")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrDuplicateEndpoint = errors.New("endpoint already registered")
)

// Category is a named, ordered group of endpoints.
type Category struct {
	Name      string
	Endpoints []Endpoint
}

// Entry is an endpoint with its global 1-based menu index.
type Entry struct {
	Index    int
	Category string
	Endpoint Endpoint
}

// Registry holds endpoints grouped by category. Categories keep the order
// they were declared in and endpoints keep insertion order, which together
// define the global index.
type Registry struct {
	categories []*Category
	byName     map[string]*Category
	names      map[string]struct{}
}

func NewRegistry(categories ...string) *Registry {
	r := &Registry{
		byName: make(map[string]*Category, len(categories)),
		names:  make(map[string]struct{}),
	}
	for _, name := range categories {
		if _, ok := r.byName[name]; ok {
			continue
		}
		c := &Category{Name: name}
		r.categories = append(r.categories, c)
		r.byName[name] = c
	}
	return r
}

// Register appends e to category. Endpoint names are unique across the registry.
func (r *Registry) Register(category string, e Endpoint) error {
	c, ok := r.byName[category]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	if _, dup := r.names[e.Name()]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateEndpoint, e.Name())
	}
	r.names[e.Name()] = struct{}{}
	c.Endpoints = append(c.Endpoints, e)
	return nil
}

// Len returns the number of registered endpoints.
func (r *Registry) Len() int {
	return len(r.names)
}

// Categories returns the categories in order.
func (r *Registry) Categories() []Category {
	out := make([]Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, Category{Name: c.Name, Endpoints: append([]Endpoint(nil), c.Endpoints...)})
	}
	return out
}

// Entries lists every endpoint with its global index.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, r.Len())
	index := ExitIndex
	for _, c := range r.categories {
		for _, e := range c.Endpoints {
			index++
			entries = append(entries, Entry{Index: index, Category: c.Name, Endpoint: e})
		}
	}
	return entries
}

// Resolve maps a global 1-based index to its endpoint.
func (r *Registry) Resolve(index int) (Endpoint, error) {
	if index == ExitIndex {
		return nil, ErrReservedIndex
	}
	if index < 0 {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	remaining := index
	for _, c := range r.categories {
		if remaining <= len(c.Endpoints) {
			return c.Endpoints[remaining-1], nil
		}
		remaining -= len(c.Endpoints)
	}
	return nil, fmt.Errorf("%w: %d", ErrOutOfRange, index)
}

// ResolveInput parses a raw menu answer and resolves it.
func (r *Registry) ResolveInput(input string) (Endpoint, error) {
	index, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSelection, input)
	}
	return r.Resolve(index)
}
