package schema

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
)

func TestLoadYAMLBuildsShapes(t *testing.T) {
	doc := `
name: property-listed
description: listed
attributes:
  - name: propertyId
    type: string
    required: true
  - name: floor
    enum: [0, 1, 2]
  - name: deletedBy
    oneOf:
      - string
      - attributes:
          - name: userId
            type: string
  - name: rooms
    arrayOf:
      attributes:
        - name: name
          type: string
          required: true
  - name: features
    arrayOf: [string, number]
`
	schemas, err := LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, schemas, 1)

	s := schemas[0]
	assert.Equal(t, "property-listed", s.Name)
	assert.Equal(t, "listed", s.Description)
	require.Len(t, s.Attributes, 5)

	assert.Equal(t, Attribute{Name: "propertyId", Required: true, Shape: String}, s.Attributes[0])
	assert.Equal(t, Enum{Values: []any{0.0, 1.0, 2.0}}, s.Attributes[1].Shape)
	assert.True(t, s.Attributes[1].Shape.(Enum).Numeric())

	oneOf, ok := s.Attributes[2].Shape.(OneOf)
	require.True(t, ok)
	require.Len(t, oneOf.Variants, 2)
	assert.Equal(t, String, oneOf.Variants[0])
	assert.Equal(t, Object{Attributes: []Attribute{{Name: "userId", Shape: String}}}, oneOf.Variants[1])

	rooms, ok := s.Attributes[3].Shape.(ArrayOf)
	require.True(t, ok)
	obj, ok := rooms.ObjectElement()
	require.True(t, ok)
	assert.Equal(t, "name", obj.Attributes[0].Name)

	assert.Equal(t, ArrayOf{Element: PrimitiveUnion{Types: []Primitive{String, Number}}}, s.Attributes[4].Shape)
}

func TestLoadYAMLMultiDocumentAndLists(t *testing.T) {
	doc := `
- name: a-one
  attributes:
    - name: x
      type: string
- name: a-two
---
name: b-one
---
`
	schemas, err := LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, schemas, 3)
	assert.Equal(t, "a-one", schemas[0].Name)
	assert.Equal(t, "a-two", schemas[1].Name)
	assert.Equal(t, "b-one", schemas[2].Name)
}

func TestLoadJSON(t *testing.T) {
	doc := `[
		{"name": "agency-created", "attributes": [
			{"name": "address", "required": true, "attributes": [
				{"name": "street", "type": "string", "required": true}
			]},
			{"name": "tier", "enum": ["basic", "premium"]}
		]}
	]`
	schemas, err := LoadJSON(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, schemas, 1)

	address := schemas[0].Attributes[0]
	assert.True(t, address.Required)
	assert.Equal(t, Object{Attributes: []Attribute{{Name: "street", Required: true, Shape: String}}}, address.Shape)
	assert.Equal(t, Enum{Values: []any{"basic", "premium"}}, schemas[0].Attributes[1].Shape)
}

func TestParseRejectsMalformedSchemas(t *testing.T) {
	tests := []struct {
		name       string
		doc        string
		wantAttr   string
		wantReason string
	}{
		{
			name:       "no discriminator",
			doc:        "name: ev\nattributes:\n  - name: x\n    required: true\n",
			wantAttr:   "x",
			wantReason: "must declare one of",
		},
		{
			name:       "two discriminators",
			doc:        "name: ev\nattributes:\n  - name: x\n    type: string\n    enum: [a]\n",
			wantAttr:   "x",
			wantReason: "several shapes: type, enum",
		},
		{
			name:       "empty enum",
			doc:        "name: ev\nattributes:\n  - name: x\n    enum: []\n",
			wantAttr:   "x",
			wantReason: "enum must not be empty",
		},
		{
			name:       "mixed enum",
			doc:        "name: ev\nattributes:\n  - name: x\n    enum: [a, 1]\n",
			wantAttr:   "x",
			wantReason: "mixes strings and numbers",
		},
		{
			name:       "boolean enum",
			doc:        "name: ev\nattributes:\n  - name: x\n    enum: [true]\n",
			wantAttr:   "x",
			wantReason: "strings or numbers",
		},
		{
			name:       "empty oneOf",
			doc:        "name: ev\nattributes:\n  - name: x\n    oneOf: []\n",
			wantAttr:   "x",
			wantReason: "oneOf must not be empty",
		},
		{
			name:       "empty arrayOf",
			doc:        "name: ev\nattributes:\n  - name: x\n    arrayOf: []\n",
			wantAttr:   "x",
			wantReason: "arrayOf must not be empty",
		},
		{
			name:       "unknown primitive",
			doc:        "name: ev\nattributes:\n  - name: x\n    type: date\n",
			wantAttr:   "x",
			wantReason: `unknown primitive type "date"`,
		},
		{
			name:       "nested problem carries path",
			doc:        "name: ev\nattributes:\n  - name: address\n    attributes:\n      - name: street\n",
			wantAttr:   "address.street",
			wantReason: "must declare one of",
		},
		{
			name:       "array element path",
			doc:        "name: ev\nattributes:\n  - name: rooms\n    arrayOf:\n      - name: size\n        type: huge\n",
			wantAttr:   "rooms[].size",
			wantReason: "unknown primitive",
		},
		{
			name:       "duplicate attribute",
			doc:        "name: ev\nattributes:\n  - name: x\n    type: string\n  - name: x\n    type: number\n",
			wantAttr:   "x",
			wantReason: "duplicate attribute name",
		},
		{
			name:       "non identifier attribute",
			doc:        "name: ev\nattributes:\n  - name: first-name\n    type: string\n",
			wantAttr:   "first-name",
			wantReason: "must be an identifier",
		},
		{
			name:       "unknown attribute key",
			doc:        "name: ev\nattributes:\n  - name: x\n    type: string\n    format: email\n",
			wantAttr:   "x",
			wantReason: "unknown keys: format",
		},
		{
			name:       "required not boolean",
			doc:        "name: ev\nattributes:\n  - name: x\n    type: string\n    required: sometimes\n",
			wantAttr:   "x",
			wantReason: "required must be a boolean",
		},
		{
			name:       "schema name not kebab",
			doc:        "name: AgencyCreated\n",
			wantReason: "kebab-case",
		},
		{
			name:       "schema name starts with a digit",
			doc:        "name: 2fa-enabled\n",
			wantReason: "start with a letter",
		},
		{
			name:       "missing schema name",
			doc:        "description: nameless\n",
			wantReason: "schema name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadYAML(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, errspkg.ErrSchema)

			var schemaErr *errspkg.SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.wantAttr, schemaErr.Attribute)
			assert.Contains(t, schemaErr.Reason, tt.wantReason)
		})
	}
}

func TestLoadFSIsSortedAndRejectsDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"b.yaml":     {Data: []byte("name: second\n")},
		"a.json":     {Data: []byte(`{"name": "first"}`)},
		"c.yml":      {Data: []byte("name: third\n")},
		"README.txt": {Data: []byte("ignored")},
	}

	reg, err := LoadFS(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, reg.Names())

	fsys["d.yaml"] = &fstest.MapFile{Data: []byte("name: first\n")}
	_, err = LoadFS(fsys)
	var schemaErr *errspkg.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "first", schemaErr.Schema)
	assert.Equal(t, "duplicate schema name", schemaErr.Reason)
}

func TestLoadFileErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"schema.toml": {Data: []byte("name = 'x'")},
		"bad.yaml":    {Data: []byte("name: [unterminated")},
	}

	_, err := LoadFile(fsys, "schema.toml")
	assert.ErrorContains(t, err, "unsupported schema file extension")

	_, err = LoadFile(fsys, "bad.yaml")
	assert.ErrorContains(t, err, "bad.yaml")

	_, err = LoadFile(fsys, "missing.yaml")
	assert.Error(t, err)
}
