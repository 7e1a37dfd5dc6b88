package emit

import (
	"bytes"
	"encoding/json"

	"github.com/drblury/schemaflow/internal/runtime/jsoncodec"
	"github.com/drblury/schemaflow/internal/runtime/schema"
)

// JSONSchemaDialect is the $schema value of emitted documents.
const JSONSchemaDialect = "https://json-schema.org/draft/2020-12/schema"

// JSONSchemaNode is one node of an emitted JSON Schema document. Field order
// is the key order in the output.
type JSONSchemaNode struct {
	Schema               string            `json:"$schema,omitempty"`
	ID                   string            `json:"$id,omitempty"`
	Title                string            `json:"title,omitempty"`
	Description          string            `json:"description,omitempty"`
	Type                 any               `json:"type,omitempty"`
	Enum                 []any             `json:"enum,omitempty"`
	AnyOf                []*JSONSchemaNode `json:"anyOf,omitempty"`
	Properties           *Properties       `json:"properties,omitempty"`
	Required             []string          `json:"required,omitempty"`
	AdditionalProperties *bool             `json:"additionalProperties,omitempty"`
	Items                *JSONSchemaNode   `json:"items,omitempty"`
	Const                any               `json:"const,omitempty"`
}

// Properties keeps declaration order when encoded.
type Properties struct {
	Keys  []string
	Nodes map[string]*JSONSchemaNode
}

func (p *Properties) add(key string, node *JSONSchemaNode) {
	if p.Nodes == nil {
		p.Nodes = make(map[string]*JSONSchemaNode)
	}
	p.Keys = append(p.Keys, key)
	p.Nodes[key] = node
}

func (p *Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range p.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := jsoncodec.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := jsoncodec.Marshal(p.Nodes[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSONSchemaFor builds the document describing the data of s. Objects set
// additionalProperties to false, except inside oneOf variants, whose values
// are kept verbatim with any extra keys.
func JSONSchemaFor(s schema.Schema) *JSONSchemaNode {
	root := objectNode(s.Attributes)
	root.Schema = JSONSchemaDialect
	root.ID = s.Name + ".json"
	root.Title = DataTypeName(s.Name)
	root.Description = s.Description
	return root
}

// EnvelopeJSONSchemaFor describes the full envelope of s with data inlined.
func EnvelopeJSONSchemaFor(s schema.Schema) *JSONSchemaNode {
	data := objectNode(s.Attributes)
	data.Description = s.Description

	props := &Properties{}
	props.add("type", &JSONSchemaNode{Const: s.Name})
	props.add("data", data)
	props.add("timestamp", &JSONSchemaNode{Type: "integer"})
	props.add("source", &JSONSchemaNode{Type: "string"})
	props.add("id", &JSONSchemaNode{Type: "string", Description: "UUID in canonical 8-4-4-4-12 form"})

	return &JSONSchemaNode{
		Schema:               JSONSchemaDialect,
		ID:                   s.Name + ".envelope.json",
		Title:                EventTypeName(s.Name),
		Type:                 "object",
		Properties:           props,
		Required:             []string{"type", "data", "timestamp", "source", "id"},
		AdditionalProperties: boolPtr(false),
	}
}

// MarshalJSONSchema encodes node with two-space indentation and a trailing newline.
func MarshalJSONSchema(node *JSONSchemaNode) ([]byte, error) {
	compact, err := jsoncodec.Marshal(node)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func shapeNode(shape schema.Shape) *JSONSchemaNode {
	switch s := shape.(type) {
	case schema.Primitive:
		return &JSONSchemaNode{Type: string(s)}
	case schema.Object:
		return objectNode(s.Attributes)
	case schema.Enum:
		kind := "string"
		if s.Numeric() {
			kind = "number"
		}
		return &JSONSchemaNode{Type: kind, Enum: append([]any(nil), s.Values...)}
	case schema.OneOf:
		variants := make([]*JSONSchemaNode, len(s.Variants))
		for i, v := range s.Variants {
			variants[i] = shapeNode(v)
			openObjects(variants[i])
		}
		return &JSONSchemaNode{AnyOf: variants}
	case schema.ArrayOf:
		return &JSONSchemaNode{Type: "array", Items: shapeNode(s.Element)}
	case schema.PrimitiveUnion:
		types := make([]string, len(s.Types))
		for i, p := range s.Types {
			types[i] = string(p)
		}
		return &JSONSchemaNode{Type: types}
	}
	return &JSONSchemaNode{}
}

func objectNode(attrs []schema.Attribute) *JSONSchemaNode {
	node := &JSONSchemaNode{
		Type:                 "object",
		Properties:           &Properties{},
		AdditionalProperties: boolPtr(false),
	}
	for _, attr := range attrs {
		child := shapeNode(attr.Shape)
		if attr.Description != "" {
			child.Description = attr.Description
		}
		node.Properties.add(attr.Name, child)
		if attr.Required {
			node.Required = append(node.Required, attr.Name)
		}
	}
	return node
}

// openObjects drops additionalProperties from node and everything below it.
func openObjects(node *JSONSchemaNode) {
	if node == nil {
		return
	}
	node.AdditionalProperties = nil
	if node.Properties != nil {
		for _, child := range node.Properties.Nodes {
			openObjects(child)
		}
	}
	for _, v := range node.AnyOf {
		openObjects(v)
	}
	openObjects(node.Items)
}

func boolPtr(b bool) *bool { return &b }
