package schema

import (
	"fmt"
	"regexp"

	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
)

var (
	schemaNamePattern    = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)
	attributeNamePattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
)

// Attribute is one field definition of the DSL.
type Attribute struct {
	Name        string
	Required    bool
	Description string
	Shape       Shape
}

// Schema declares one event kind. Name doubles as the wire type tag.
type Schema struct {
	Name        string
	Description string
	Attributes  []Attribute
}

// Root returns the attribute tree as an Object shape.
func (s Schema) Root() Object {
	return Object{Attributes: s.Attributes}
}

// Validate checks the schema invariants and returns a *SchemaError describing
// the first violation.
func (s Schema) Validate() error {
	if s.Name == "" {
		return &errspkg.SchemaError{Reason: "schema name is required"}
	}
	if !schemaNamePattern.MatchString(s.Name) {
		return &errspkg.SchemaError{Schema: s.Name, Reason: "schema name must be kebab-case and start with a letter"}
	}
	return validateAttributes(s.Name, "", s.Attributes)
}

func validateAttributes(schemaName, parent string, attrs []Attribute) error {
	seen := make(map[string]struct{}, len(attrs))
	for _, attr := range attrs {
		path := joinPath(parent, attr.Name)
		if !attributeNamePattern.MatchString(attr.Name) {
			return &errspkg.SchemaError{Schema: schemaName, Attribute: path, Reason: "attribute name must be an identifier"}
		}
		if _, dup := seen[attr.Name]; dup {
			return &errspkg.SchemaError{Schema: schemaName, Attribute: path, Reason: "duplicate attribute name"}
		}
		seen[attr.Name] = struct{}{}
		if err := validateShape(schemaName, path, attr.Shape); err != nil {
			return err
		}
	}
	return nil
}

func validateShape(schemaName, path string, shape Shape) error {
	fail := func(format string, args ...any) error {
		return &errspkg.SchemaError{Schema: schemaName, Attribute: path, Reason: fmt.Sprintf(format, args...)}
	}

	switch s := shape.(type) {
	case nil:
		return fail("attribute has no shape")
	case Primitive:
		if !s.Valid() {
			return fail("unknown primitive type %q", string(s))
		}
	case Object:
		return validateAttributes(schemaName, path, s.Attributes)
	case Enum:
		if len(s.Values) == 0 {
			return fail("enum must not be empty")
		}
		numeric := s.Numeric()
		for _, v := range s.Values {
			switch v.(type) {
			case string:
				if numeric {
					return fail("enum mixes strings and numbers")
				}
			case float64:
				if !numeric {
					return fail("enum mixes strings and numbers")
				}
			default:
				return fail("enum values must be strings or numbers, got %T", v)
			}
		}
	case OneOf:
		if len(s.Variants) == 0 {
			return fail("oneOf must not be empty")
		}
		for i, variant := range s.Variants {
			variantPath := fmt.Sprintf("%s.oneOf[%d]", path, i)
			switch variant.(type) {
			case Primitive, Object:
				if err := validateShape(schemaName, variantPath, variant); err != nil {
					return err
				}
			default:
				return &errspkg.SchemaError{Schema: schemaName, Attribute: variantPath, Reason: "oneOf variants must be a primitive or an object"}
			}
		}
	case ArrayOf:
		switch el := s.Element.(type) {
		case Primitive, Object:
			return validateShape(schemaName, path+"[]", el)
		case PrimitiveUnion:
			if len(el.Types) == 0 {
				return fail("arrayOf must not be empty")
			}
			for _, p := range el.Types {
				if !p.Valid() {
					return fail("unknown primitive type %q", string(p))
				}
			}
		case nil:
			return fail("arrayOf must not be empty")
		default:
			return fail("arrayOf element must be a primitive, an object or a list of primitives")
		}
	case PrimitiveUnion:
		return fail("a primitive list is only allowed as an arrayOf element")
	default:
		return fail("unsupported shape %T", shape)
	}
	return nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
