package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
	"github.com/drblury/schemaflow/internal/runtime/jsoncodec"
)

// DefaultPatterns is used by LoadFS when no glob pattern is given.
var DefaultPatterns = []string{"*.yaml", "*.yml", "*.json"}

var discriminators = []string{"type", "attributes", "enum", "oneOf", "arrayOf"}

var (
	schemaKeys    = map[string]struct{}{"name": {}, "description": {}, "attributes": {}}
	attributeKeys = map[string]struct{}{
		"name": {}, "required": {}, "description": {},
		"type": {}, "attributes": {}, "enum": {}, "oneOf": {}, "arrayOf": {},
	}
)

// LoadYAML reads every schema from a YAML stream. A stream may hold several
// documents, and a document may be a single schema or a list of schemas.
func LoadYAML(r io.Reader) ([]Schema, error) {
	dec := yaml.NewDecoder(r)
	var out []Schema
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode yaml schema document: %w", err)
		}
		if doc == nil {
			continue
		}
		schemas, err := parseDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, schemas...)
	}
	return out, nil
}

// LoadJSON reads a JSON schema document holding one schema or a list of schemas.
func LoadJSON(r io.Reader) ([]Schema, error) {
	var doc any
	if err := jsoncodec.Decode(r, &doc); err != nil {
		return nil, fmt.Errorf("decode json schema document: %w", err)
	}
	return parseDocument(doc)
}

// LoadFile loads a single schema file, choosing the decoder by extension.
func LoadFile(fsys fs.FS, name string) ([]Schema, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}

	var schemas []Schema
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		schemas, err = LoadJSON(bytes.NewReader(data))
	case ".yaml", ".yml":
		schemas, err = LoadYAML(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported schema file extension %q", path.Ext(name))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return schemas, nil
}

// LoadFS discovers schema files matching patterns, loads them in lexical path
// order and builds a Registry.
func LoadFS(fsys fs.FS, patterns ...string) (*Registry, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range patterns {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)

	var all []Schema
	for _, file := range files {
		schemas, err := LoadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		all = append(all, schemas...)
	}
	return NewRegistry(all...)
}

// Parse converts one decoded schema document into a validated Schema.
func Parse(doc map[string]any) (Schema, error) {
	name, _ := doc["name"].(string)
	if raw, ok := doc["name"]; ok && name == "" && raw != nil {
		return Schema{}, &errspkg.SchemaError{Reason: fmt.Sprintf("schema name must be a string, got %T", raw)}
	}
	if err := checkKeys(doc, schemaKeys, name, ""); err != nil {
		return Schema{}, err
	}

	description, err := optionalString(doc, "description", name, "")
	if err != nil {
		return Schema{}, err
	}

	attrs, err := parseAttributeList(doc["attributes"], name, "")
	if err != nil {
		return Schema{}, err
	}

	s := Schema{Name: name, Description: description, Attributes: attrs}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

func parseDocument(doc any) ([]Schema, error) {
	switch d := normalize(doc).(type) {
	case map[string]any:
		s, err := Parse(d)
		if err != nil {
			return nil, err
		}
		return []Schema{s}, nil
	case []any:
		out := make([]Schema, 0, len(d))
		for i, item := range d {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, &errspkg.SchemaError{Reason: fmt.Sprintf("document entry %d is not a mapping", i)}
			}
			s, err := Parse(m)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &errspkg.SchemaError{Reason: fmt.Sprintf("schema document must be a mapping or a list, got %T", doc)}
	}
}

func parseAttributeList(raw any, schemaName, parent string) ([]Attribute, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &errspkg.SchemaError{Schema: schemaName, Attribute: parent, Reason: "attributes must be a list"}
	}

	attrs := make([]Attribute, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &errspkg.SchemaError{Schema: schemaName, Attribute: joinPath(parent, fmt.Sprintf("[%d]", i)), Reason: "attribute must be a mapping"}
		}
		attr, err := parseAttribute(m, schemaName, parent)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func parseAttribute(m map[string]any, schemaName, parent string) (Attribute, error) {
	name, _ := m["name"].(string)
	path := joinPath(parent, name)
	if name == "" {
		return Attribute{}, &errspkg.SchemaError{Schema: schemaName, Attribute: parent, Reason: "attribute name is required"}
	}
	if err := checkKeys(m, attributeKeys, schemaName, path); err != nil {
		return Attribute{}, err
	}

	var present []string
	for _, key := range discriminators {
		if _, ok := m[key]; ok {
			present = append(present, key)
		}
	}
	switch len(present) {
	case 0:
		return Attribute{}, &errspkg.SchemaError{Schema: schemaName, Attribute: path, Reason: "attribute must declare one of type, attributes, enum, oneOf or arrayOf"}
	case 1:
	default:
		return Attribute{}, &errspkg.SchemaError{Schema: schemaName, Attribute: path, Reason: fmt.Sprintf("attribute declares several shapes: %s", strings.Join(present, ", "))}
	}

	required := false
	if raw, ok := m["required"]; ok {
		b, isBool := raw.(bool)
		if !isBool {
			return Attribute{}, &errspkg.SchemaError{Schema: schemaName, Attribute: path, Reason: "required must be a boolean"}
		}
		required = b
	}
	description, err := optionalString(m, "description", schemaName, path)
	if err != nil {
		return Attribute{}, err
	}

	shape, err := parseShape(present[0], m[present[0]], schemaName, path)
	if err != nil {
		return Attribute{}, err
	}

	return Attribute{Name: name, Required: required, Description: description, Shape: shape}, nil
}

func parseShape(key string, raw any, schemaName, path string) (Shape, error) {
	fail := func(reason string) error {
		return &errspkg.SchemaError{Schema: schemaName, Attribute: path, Reason: reason}
	}

	switch key {
	case "type":
		tag, ok := raw.(string)
		if !ok {
			return nil, fail("type must be a primitive tag")
		}
		return Primitive(tag), nil
	case "attributes":
		attrs, err := parseAttributeList(raw, schemaName, path)
		if err != nil {
			return nil, err
		}
		return Object{Attributes: attrs}, nil
	case "enum":
		list, ok := raw.([]any)
		if !ok {
			return nil, fail("enum must be a list")
		}
		values := make([]any, 0, len(list))
		for _, v := range list {
			values = append(values, literal(v))
		}
		return Enum{Values: values}, nil
	case "oneOf":
		list, ok := raw.([]any)
		if !ok {
			return nil, fail("oneOf must be a list")
		}
		variants := make([]Shape, 0, len(list))
		for i, item := range list {
			variant, err := parseInlineShape(item, schemaName, fmt.Sprintf("%s.oneOf[%d]", path, i))
			if err != nil {
				return nil, err
			}
			variants = append(variants, variant)
		}
		return OneOf{Variants: variants}, nil
	case "arrayOf":
		return parseArrayOf(raw, schemaName, path)
	}
	return nil, fail("unknown shape " + key)
}

// parseInlineShape handles oneOf variants: a primitive tag, a list of
// attributes, or a mapping with an attributes key.
func parseInlineShape(raw any, schemaName, path string) (Shape, error) {
	switch v := raw.(type) {
	case string:
		return Primitive(v), nil
	case []any:
		attrs, err := parseAttributeList(v, schemaName, path)
		if err != nil {
			return nil, err
		}
		return Object{Attributes: attrs}, nil
	case map[string]any:
		if err := checkKeys(v, map[string]struct{}{"attributes": {}}, schemaName, path); err != nil {
			return nil, err
		}
		attrs, err := parseAttributeList(v["attributes"], schemaName, path)
		if err != nil {
			return nil, err
		}
		return Object{Attributes: attrs}, nil
	}
	return nil, &errspkg.SchemaError{Schema: schemaName, Attribute: path, Reason: fmt.Sprintf("variant must be a primitive tag or an object, got %T", raw)}
}

func parseArrayOf(raw any, schemaName, path string) (Shape, error) {
	list, isList := raw.([]any)
	if !isList {
		element, err := parseInlineShape(raw, schemaName, path+"[]")
		if err != nil {
			return nil, err
		}
		return ArrayOf{Element: element}, nil
	}
	if len(list) == 0 {
		return ArrayOf{Element: PrimitiveUnion{}}, nil
	}

	if _, ok := list[0].(string); ok {
		types := make([]Primitive, 0, len(list))
		for _, item := range list {
			tag, ok := item.(string)
			if !ok {
				return nil, &errspkg.SchemaError{Schema: schemaName, Attribute: path, Reason: "arrayOf mixes primitive tags and attributes"}
			}
			types = append(types, Primitive(tag))
		}
		return ArrayOf{Element: PrimitiveUnion{Types: types}}, nil
	}

	attrs, err := parseAttributeList(list, schemaName, path+"[]")
	if err != nil {
		return nil, err
	}
	return ArrayOf{Element: Object{Attributes: attrs}}, nil
}

func checkKeys(m map[string]any, allowed map[string]struct{}, schemaName, path string) error {
	var unknown []string
	for key := range m {
		if _, ok := allowed[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &errspkg.SchemaError{Schema: schemaName, Attribute: path, Reason: "unknown keys: " + strings.Join(unknown, ", ")}
}

func optionalString(m map[string]any, key, schemaName, path string) (string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &errspkg.SchemaError{Schema: schemaName, Attribute: path, Reason: key + " must be a string"}
	}
	return s, nil
}

// literal folds YAML integer kinds into float64 so enums compare like decoded JSON.
func literal(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	}
	return v
}

// normalize turns map[any]any nodes (YAML mappings with non-string keys) into
// map[string]any recursively.
func normalize(v any) any {
	switch n := v.(type) {
	case map[string]any:
		for k, child := range n {
			n[k] = normalize(child)
		}
		return n
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, child := range n {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		for i, child := range n {
			n[i] = normalize(child)
		}
		return n
	}
	return v
}
