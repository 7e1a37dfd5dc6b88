// Package validate compiles a schema attribute tree into a sanitizer that
// checks required fields and projects only declared fields into a fresh value.
package validate

import (
	"fmt"
	"reflect"

	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
	"github.com/drblury/schemaflow/internal/runtime/jsoncodec"
	"github.com/drblury/schemaflow/internal/runtime/schema"
)

// projector checks value at path and returns its projection.
type projector func(value any, path string) (any, error)

type field struct {
	name     string
	required bool
	project  projector
}

type object struct {
	fields   []field
	presence Presence
}

// Sanitizer is the compiled form of one schema. It holds no mutable state and
// may be shared between goroutines.
type Sanitizer struct {
	schema schema.Schema
	opts   Options
	root   object
}

// Compile builds a Sanitizer for s. The schema is expected to be valid, which
// holds for anything that came out of a schema.Registry.
func Compile(s schema.Schema, opts Options) *Sanitizer {
	c := compiler{opts: opts}
	return &Sanitizer{
		schema: s,
		opts:   opts,
		root:   c.object(s.Attributes),
	}
}

// Sanitize compiles s and runs it once over input.
func Sanitize(s schema.Schema, input any, opts Options) (map[string]any, error) {
	return Compile(s, opts).Sanitize(input)
}

func (s *Sanitizer) Schema() schema.Schema { return s.schema }

func (s *Sanitizer) Options() Options { return s.opts }

// Sanitize checks input against the schema and returns a new map holding only
// declared fields. The first failure aborts the walk and is returned as a
// *errors.ValidationError; input is never modified.
func (s *Sanitizer) Sanitize(input any) (map[string]any, error) {
	m, err := toObject(input)
	if err != nil {
		return nil, err
	}
	return s.root.apply(m, "")
}

func toObject(input any) (map[string]any, error) {
	switch v := input.(type) {
	case map[string]any:
		return v, nil
	case nil:
		return nil, &errspkg.ValidationError{Reason: "expected object, got null"}
	}

	normalized, err := jsoncodec.Normalize(input)
	if err != nil {
		return nil, &errspkg.ValidationError{Reason: fmt.Sprintf("input is not JSON encodable: %v", err)}
	}
	m, ok := normalized.(map[string]any)
	if !ok {
		return nil, &errspkg.ValidationError{Reason: fmt.Sprintf("expected object, got %s", describe(normalized))}
	}
	return m, nil
}

func (o object) apply(in map[string]any, path string) (map[string]any, error) {
	out := make(map[string]any, len(o.fields))
	for _, f := range o.fields {
		fieldPath := joinPath(path, f.name)
		value, ok := in[f.name]
		if !ok || missing(value, o.presence) {
			if f.required {
				return nil, errspkg.Missing(fieldPath)
			}
			continue
		}
		projected, err := f.project(value, fieldPath)
		if err != nil {
			return nil, err
		}
		out[f.name] = projected
	}
	return out, nil
}

type compiler struct {
	opts Options
}

func (c compiler) strict() bool { return c.opts.Mode == ModeStrict }

func (c compiler) object(attrs []schema.Attribute) object {
	fields := make([]field, 0, len(attrs))
	for _, attr := range attrs {
		fields = append(fields, field{
			name:     attr.Name,
			required: attr.Required,
			project:  c.shape(attr.Shape),
		})
	}
	return object{fields: fields, presence: c.opts.Presence}
}

func (c compiler) shape(shape schema.Shape) projector {
	switch s := shape.(type) {
	case schema.Primitive:
		if !c.strict() {
			return verbatim
		}
		return primitiveCheck(s)
	case schema.Object:
		return c.objectProjector(s)
	case schema.Enum:
		if !c.strict() {
			return verbatim
		}
		return enumCheck(s)
	case schema.OneOf:
		if !c.strict() {
			return verbatim
		}
		return c.oneOfCheck(s)
	case schema.ArrayOf:
		return c.array(s)
	case schema.PrimitiveUnion:
		if !c.strict() {
			return verbatim
		}
		return unionCheck(s)
	}
	return func(_ any, path string) (any, error) {
		return nil, &errspkg.ValidationError{Path: path, Reason: fmt.Sprintf("unsupported shape %T", shape)}
	}
}

func (c compiler) objectProjector(s schema.Object) projector {
	nested := c.object(s.Attributes)
	return func(value any, path string) (any, error) {
		m, ok := asObject(value)
		if !ok {
			return nil, &errspkg.ValidationError{Path: path, Reason: "expected object, got " + describe(value)}
		}
		return nested.apply(m, path)
	}
}

func (c compiler) array(s schema.ArrayOf) projector {
	if obj, ok := s.ObjectElement(); ok {
		element := c.objectProjector(obj)
		return func(value any, path string) (any, error) {
			items, ok := asArray(value)
			if !ok {
				return nil, &errspkg.ValidationError{Path: path, Reason: "expected array, got " + describe(value)}
			}
			out := make([]any, len(items))
			for i, item := range items {
				projected, err := element(item, indexPath(path, i))
				if err != nil {
					return nil, err
				}
				out[i] = projected
			}
			return out, nil
		}
	}

	var element projector
	if c.strict() {
		element = c.shape(s.Element)
	}
	return func(value any, path string) (any, error) {
		items, ok := asArray(value)
		if !ok {
			return nil, &errspkg.ValidationError{Path: path, Reason: "expected array, got " + describe(value)}
		}
		if element != nil {
			for i, item := range items {
				if _, err := element(item, indexPath(path, i)); err != nil {
					return nil, err
				}
			}
		}
		return value, nil
	}
}

func (c compiler) oneOfCheck(s schema.OneOf) projector {
	variants := make([]projector, len(s.Variants))
	for i, v := range s.Variants {
		variants[i] = c.shape(v)
	}
	return func(value any, path string) (any, error) {
		for _, variant := range variants {
			if _, err := variant(value, path); err == nil {
				return value, nil
			}
		}
		return nil, &errspkg.ValidationError{Path: path, Reason: "value matches no oneOf variant"}
	}
}

// asObject accepts generic maps directly and normalizes typed maps and
// structs through their JSON form.
func asObject(value any) (map[string]any, bool) {
	if m, ok := value.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map && rv.Kind() != reflect.Struct {
		return nil, false
	}
	normalized, err := jsoncodec.Normalize(value)
	if err != nil {
		return nil, false
	}
	m, ok := normalized.(map[string]any)
	return m, ok
}

func asArray(value any) ([]any, bool) {
	if items, ok := value.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func verbatim(value any, _ string) (any, error) {
	return value, nil
}

func primitiveCheck(p schema.Primitive) projector {
	return func(value any, path string) (any, error) {
		if !isPrimitive(p, value) {
			return nil, &errspkg.ValidationError{Path: path, Reason: fmt.Sprintf("expected %s, got %s", p, describe(value))}
		}
		return value, nil
	}
}

func unionCheck(u schema.PrimitiveUnion) projector {
	return func(value any, path string) (any, error) {
		for _, p := range u.Types {
			if isPrimitive(p, value) {
				return value, nil
			}
		}
		return nil, &errspkg.ValidationError{Path: path, Reason: fmt.Sprintf("expected one of %v, got %s", u.Types, describe(value))}
	}
}

func enumCheck(e schema.Enum) projector {
	return func(value any, path string) (any, error) {
		for _, lit := range e.Values {
			if literalEqual(lit, value) {
				return value, nil
			}
		}
		return nil, &errspkg.ValidationError{Path: path, Reason: fmt.Sprintf("value %v is not one of %v", value, e.Values)}
	}
}

func isPrimitive(p schema.Primitive, value any) bool {
	switch p {
	case schema.String:
		_, ok := value.(string)
		return ok
	case schema.Boolean:
		_, ok := value.(bool)
		return ok
	case schema.Number:
		_, ok := toFloat(value)
		return ok
	}
	return false
}

func literalEqual(lit, value any) bool {
	switch l := lit.(type) {
	case string:
		s, ok := value.(string)
		return ok && s == l
	case float64:
		f, ok := toFloat(value)
		return ok && f == l
	}
	return false
}

func toFloat(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

func missing(value any, presence Presence) bool {
	if value == nil {
		return true
	}
	if presence != PresenceTruthy {
		return false
	}
	switch v := value.(type) {
	case string:
		return v == ""
	case bool:
		return !v
	}
	if f, ok := toFloat(value); ok {
		return f == 0
	}
	return false
}

func describe(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	if _, ok := toFloat(value); ok {
		return "number"
	}
	return fmt.Sprintf("%T", value)
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
