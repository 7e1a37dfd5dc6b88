package schema

import (
	"fmt"

	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
)

// Registry is the ordered set of known schemas. It is never mutated after
// NewRegistry returns and can be shared across goroutines.
type Registry struct {
	schemas []Schema
	index   map[string]int
}

// NewRegistry validates every schema and rejects duplicate names. Iteration
// order follows the argument order.
func NewRegistry(schemas ...Schema) (*Registry, error) {
	r := &Registry{
		schemas: make([]Schema, 0, len(schemas)),
		index:   make(map[string]int, len(schemas)),
	}
	for _, s := range schemas {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.index[s.Name]; dup {
			return nil, &errspkg.SchemaError{Schema: s.Name, Reason: "duplicate schema name"}
		}
		r.index[s.Name] = len(r.schemas)
		r.schemas = append(r.schemas, s)
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics on error, for static schema sets.
func MustRegistry(schemas ...Schema) *Registry {
	r, err := NewRegistry(schemas...)
	if err != nil {
		panic(fmt.Sprintf("schemaflow: %v", err))
	}
	return r
}

// Schemas returns a copy of the schemas in registry order.
func (r *Registry) Schemas() []Schema {
	out := make([]Schema, len(r.schemas))
	copy(out, r.schemas)
	return out
}

// Names returns the schema names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.schemas))
	for i, s := range r.schemas {
		names[i] = s.Name
	}
	return names
}

func (r *Registry) Lookup(name string) (Schema, bool) {
	i, ok := r.index[name]
	if !ok {
		return Schema{}, false
	}
	return r.schemas[i], true
}

func (r *Registry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

func (r *Registry) Len() int {
	return len(r.schemas)
}
