// Package schema holds the attribute DSL used to declare events: a sealed sum
// type of shapes, the event schema that owns an attribute tree, a loader for
// YAML and JSON schema documents, and the read-only Registry built from them.
package schema

// Kind names the variant of a Shape.
type Kind string

const (
	KindPrimitive Kind = "primitive"
	KindObject    Kind = "object"
	KindEnum      Kind = "enum"
	KindOneOf     Kind = "oneOf"
	KindArrayOf   Kind = "arrayOf"
	KindUnion     Kind = "union"
)

// Shape is implemented by Primitive, Object, Enum, OneOf, ArrayOf and
// PrimitiveUnion. The set is closed; consumers switch over it exhaustively.
type Shape interface {
	Kind() Kind
	isShape()
}

// Primitive is a leaf type tag.
type Primitive string

const (
	String  Primitive = "string"
	Number  Primitive = "number"
	Boolean Primitive = "boolean"
)

// Valid reports whether p is one of the three known tags.
func (p Primitive) Valid() bool {
	switch p {
	case String, Number, Boolean:
		return true
	}
	return false
}

func (Primitive) Kind() Kind { return KindPrimitive }
func (Primitive) isShape()   {}

// Object is a nested record with ordered child attributes.
type Object struct {
	Attributes []Attribute
}

func (Object) Kind() Kind { return KindObject }
func (Object) isShape()   {}

// Enum restricts a value to one of its literals. Values are either all string
// or all float64.
type Enum struct {
	Values []any
}

func (Enum) Kind() Kind { return KindEnum }
func (Enum) isShape()   {}

// Numeric reports whether the enum literals are numbers.
func (e Enum) Numeric() bool {
	if len(e.Values) == 0 {
		return false
	}
	_, ok := e.Values[0].(float64)
	return ok
}

// OneOf accepts a value matching at least one variant. Variants are Primitive
// or Object.
type OneOf struct {
	Variants []Shape
}

func (OneOf) Kind() Kind { return KindOneOf }
func (OneOf) isShape()   {}

// ArrayOf is a sequence whose elements conform to Element, which is a
// Primitive, an Object or a PrimitiveUnion.
type ArrayOf struct {
	Element Shape
}

func (ArrayOf) Kind() Kind { return KindArrayOf }
func (ArrayOf) isShape()   {}

// ObjectElement returns the element object for arrays of objects.
func (a ArrayOf) ObjectElement() (Object, bool) {
	obj, ok := a.Element.(Object)
	return obj, ok
}

// PrimitiveUnion is the heterogeneous element type of an arrayOf list.
type PrimitiveUnion struct {
	Types []Primitive
}

func (PrimitiveUnion) Kind() Kind { return KindUnion }
func (PrimitiveUnion) isShape()   {}
