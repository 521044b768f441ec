package engines

import "fmt"

// Registry is the static engine table, read-only at runtime.
type Registry struct {
	descriptors map[string]Descriptor
	order       []string
}

// NewRegistry builds a registry from descriptors. Codes must be unique and
// non-empty, and every descriptor needs an adapter.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{descriptors: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.Code == "" {
			return nil, ErrEmptyCode
		}
		if d.Adapter == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilAdapter, d.Code)
		}
		if _, exists := r.descriptors[d.Code]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, d.Code)
		}
		if d.MaxResults <= 0 {
			d.MaxResults = 10
		}
		r.descriptors[d.Code] = d
		r.order = append(r.order, d.Code)
	}
	return r, nil
}

// Get looks up a descriptor by source code.
func (r *Registry) Get(code string) (Descriptor, bool) {
	d, ok := r.descriptors[code]
	return d, ok
}

// Codes returns all registered codes in registration order.
func (r *Registry) Codes() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// PrimaryCodes returns the codes of primary engines in registration order.
func (r *Registry) PrimaryCodes() []string {
	var out []string
	for _, code := range r.order {
		if r.descriptors[code].Primary {
			out = append(out, code)
		}
	}
	return out
}

// Len returns the number of registered engines.
func (r *Registry) Len() int {
	return len(r.order)
}
