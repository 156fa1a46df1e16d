// Package render holds the filter surface consumed by the external
// templating engine. Filters are plain polymorphic objects registered in
// order against one registry at startup; the renderer itself lives outside
// this module.
package render

import "fmt"

// Filter transforms a template value. Implementations must be safe for
// concurrent use, since the serving layer renders requests in parallel.
type Filter interface {
	Name() string
	Apply(input string, args ...string) (string, error)
}

// Registry is an ordered collection of filters. Registration order is
// preserved so the templating builder can install them deterministically.
type Registry struct {
	filters []Filter
	byName  map[string]Filter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Filter)}
}

// Register appends a filter. Registering a duplicate name is an error.
func (r *Registry) Register(f Filter) error {
	if _, ok := r.byName[f.Name()]; ok {
		return fmt.Errorf("filter %q already registered", f.Name())
	}
	r.filters = append(r.filters, f)
	r.byName[f.Name()] = f
	return nil
}

// Lookup finds a filter by name.
func (r *Registry) Lookup(name string) (Filter, bool) {
	f, ok := r.byName[name]
	return f, ok
}

// Filters returns the filters in registration order.
func (r *Registry) Filters() []Filter {
	out := make([]Filter, len(r.filters))
	copy(out, r.filters)
	return out
}
