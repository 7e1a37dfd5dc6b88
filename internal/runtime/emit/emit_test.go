package emit_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/schemaflow/internal/runtime/emit"
	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
	"github.com/drblury/schemaflow/internal/runtime/jsoncodec"
	"github.com/drblury/schemaflow/internal/runtime/schema"
	"github.com/drblury/schemaflow/internal/runtime/schema/schematest"
	"github.com/drblury/schemaflow/internal/runtime/validate"
)

func TestTypeName(t *testing.T) {
	tests := map[string]string{
		"agency-created":   "AgencyCreated",
		"property-deleted": "PropertyDeleted",
		"ping":             "Ping",
		"v2-user-moved":    "V2UserMoved",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, emit.TypeName(in))
		})
	}
	assert.Equal(t, "AgencyCreatedData", emit.DataTypeName("agency-created"))
	assert.Equal(t, "AgencyCreatedEvent", emit.EventTypeName("agency-created"))
}

func TestTypeScriptTypesRendersNestedObjects(t *testing.T) {
	out := emit.TypeScriptTypes(schematest.Registry(t))

	assert.True(t, strings.HasPrefix(out, emit.Header+"\n"))
	assert.Contains(t, out, `/** An agency joined the platform. */
export type AgencyCreatedData = {
  agencyId: string;
  name: string;
  /** Postal address of the head office. */
  address: {
    street: string;
    city: string;
    postcode?: string;
  };
  contactPhone?: string;
  tier: "basic" | "premium";
  tags?: Array<string>;
};

export type AgencyCreatedEvent = {
  type: "agency-created";
  data: AgencyCreatedData;
  timestamp: number;
  source: string;
  id: string;
};
`)
}

func TestTypeScriptTypesRendersUnionsAndArrays(t *testing.T) {
	out := emit.TypeScriptTypes(schematest.Registry(t))

	assert.Contains(t, out, `  deletedBy?: string | {
    userId: string;
    role?: "admin" | "agent";
  };
`)
	assert.Contains(t, out, `  rooms: Array<{
    name: string;
    area?: number;
    features?: Array<string | number>;
  }>;
`)
	assert.Contains(t, out, "  floor?: 0 | 1 | 2;\n")
	assert.Contains(t, out, `export type AnyEvent =
  | AgencyCreatedEvent
  | PropertyDeletedEvent
  | PropertyListedEvent;
`)
	assert.Contains(t, out, `export const eventTypes = ["agency-created", "property-deleted", "property-listed"] as const;`)
}

func TestTypeScriptTypesDeepNesting(t *testing.T) {
	doc := `
name: deep-event
attributes:
  - name: a
    required: true
    attributes:
      - name: b
        arrayOf:
          - name: c
            oneOf:
              - number
              - - name: d
                  required: true
                  arrayOf: [boolean, string]
`
	schemas, err := schema.LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)
	reg := schema.MustRegistry(schemas...)

	assert.Contains(t, emit.TypeScriptTypes(reg), `export type DeepEventData = {
  a: {
    b?: Array<{
      c?: number | {
        d: Array<boolean | string>;
      };
    }>;
  };
};`)
}

func TestTypeScriptTypesEmptyRegistry(t *testing.T) {
	out := emit.TypeScriptTypes(schema.MustRegistry())
	assert.Contains(t, out, "export type AnyEvent = never;")
	assert.Contains(t, out, "export const eventTypes = [] as const;")
}

func TestTypeScriptSanitizersPresenceMode(t *testing.T) {
	out := emit.TypeScriptSanitizers(schematest.Registry(t), validate.Options{})

	assert.Contains(t, out, `import type { AgencyCreatedData, PropertyDeletedData, PropertyListedData } from "./types";`)
	assert.Contains(t, out, "export function sanitizeAgencyCreated(input: unknown): AgencyCreatedData {")
	assert.Contains(t, out, "  return value !== undefined && value !== null;")
	assert.Contains(t, out, "throw new ValidationError(`address.street`);")
	assert.Contains(t, out, "throw new ValidationError(`rooms[${i1}].name`);")
	assert.Contains(t, out, "    out[\"tags\"] = expectArray(src[\"tags\"], `tags`);")
	assert.Contains(t, out, `  "property-listed": sanitizePropertyListed,`)
	assert.NotContains(t, out, "function expectType")

	// optional fields have no else branch
	assert.NotContains(t, out, "throw new ValidationError(`contactPhone`);")
}

func TestTypeScriptSanitizersStrictAndTruthy(t *testing.T) {
	out := emit.TypeScriptSanitizers(schematest.Registry(t), validate.Options{Mode: validate.ModeStrict, Presence: validate.PresenceTruthy})

	assert.Contains(t, out, "  return Boolean(value);")
	assert.Contains(t, out, "function expectType(")
	assert.Contains(t, out, "expectLiteral(src[\"tier\"], [\"basic\", \"premium\"], `tier`)")
	assert.Contains(t, out, "expectType(src[\"agencyId\"], [\"string\"], `agencyId`)")
	assert.Contains(t, out, "expectVariant(src[\"deletedBy\"], `deletedBy`, [")
	assert.Contains(t, out, "=> typeof x")
	assert.Contains(t, out, "passes(() => {")
	assert.Contains(t, out, "expectType(e")
}

func TestTypeScriptEnumLiteralsUseJSONEscapes(t *testing.T) {
	reg := schema.MustRegistry(schema.Schema{Name: "alarm-raised", Attributes: []schema.Attribute{
		{Name: "sound", Required: true, Shape: schema.Enum{Values: []any{"bell\a", "tab\v", `quote"`}}},
	}})
	want := `"bell\u0007" | "tab\u000b" | "quote\""`

	tests := map[string]string{
		"types":      emit.TypeScriptTypes(reg),
		"sanitizers": emit.TypeScriptSanitizers(reg, validate.Options{Mode: validate.ModeStrict}),
	}
	for name, out := range tests {
		t.Run(name, func(t *testing.T) {
			assert.NotContains(t, out, `\a`)
			assert.NotContains(t, out, `\v`)
			assert.Contains(t, out, `"bell\u0007"`)
			assert.Contains(t, out, `"quote\""`)
		})
	}
	assert.Contains(t, tests["types"], want)
}

func TestJSONSchemaKeepsDeclarationOrder(t *testing.T) {
	s := schematest.Schema(t, "agency-created")
	data, err := emit.MarshalJSONSchema(emit.JSONSchemaFor(s))
	require.NoError(t, err)
	text := string(data)

	order := []string{`"agencyId"`, `"address"`, `"contactPhone"`, `"tier"`, `"tags"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(text, key)
		require.Greater(t, idx, last, "key %s out of order", key)
		last = idx
	}
	assert.True(t, strings.HasSuffix(text, "}\n"))
	assert.Contains(t, text, "\n  \"$schema\": \"https://json-schema.org/draft/2020-12/schema\"")

	var doc map[string]any
	require.NoError(t, jsoncodec.Unmarshal(data, &doc))
	assert.Equal(t, "agency-created.json", doc["$id"])
	assert.Equal(t, "AgencyCreatedData", doc["title"])
	assert.Equal(t, []any{"agencyId", "name", "address", "tier"}, doc["required"])
	assert.Equal(t, false, doc["additionalProperties"])

	props := doc["properties"].(map[string]any)
	address := props["address"].(map[string]any)
	assert.Equal(t, []any{"street", "city"}, address["required"])
	assert.Equal(t, "Postal address of the head office.", address["description"])
	assert.Equal(t, map[string]any{"type": "string", "enum": []any{"basic", "premium"}}, props["tier"])
	assert.Equal(t, map[string]any{"type": "array", "items": map[string]any{"type": "string"}}, props["tags"])
}

func TestJSONSchemaOneOfNestedObjectsStayOpen(t *testing.T) {
	s := schema.Schema{Name: "owner-changed", Attributes: []schema.Attribute{
		{Name: "owner", Required: true, Shape: schema.OneOf{Variants: []schema.Shape{
			schema.String,
			schema.Object{Attributes: []schema.Attribute{
				{Name: "address", Shape: schema.Object{Attributes: []schema.Attribute{
					{Name: "city", Shape: schema.String},
				}}},
			}},
		}}},
		{Name: "office", Shape: schema.Object{Attributes: []schema.Attribute{
			{Name: "city", Shape: schema.String},
		}}},
	}}
	data, err := emit.MarshalJSONSchema(emit.JSONSchemaFor(s))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, jsoncodec.Unmarshal(data, &doc))

	props := doc["properties"].(map[string]any)
	member := props["owner"].(map[string]any)["anyOf"].([]any)[1].(map[string]any)
	address := member["properties"].(map[string]any)["address"].(map[string]any)
	assert.NotContains(t, member, "additionalProperties")
	assert.NotContains(t, address, "additionalProperties")
	assert.Equal(t, false, props["office"].(map[string]any)["additionalProperties"])

	// the validator keeps the extra key, which the document must accept
	sanitized, err := validate.Compile(s, validate.Options{Mode: validate.ModeStrict}).Sanitize(map[string]any{
		"owner": map[string]any{"address": map[string]any{"city": "Leeds"}, "team": "north"},
	})
	require.NoError(t, err)
	assert.Equal(t, "north", sanitized["owner"].(map[string]any)["team"])
}

func TestJSONSchemaUnionsAndArrays(t *testing.T) {
	reg := schematest.Registry(t)

	deleted, _ := reg.Lookup("property-deleted")
	data, err := emit.MarshalJSONSchema(emit.JSONSchemaFor(deleted))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, jsoncodec.Unmarshal(data, &doc))
	deletedBy := doc["properties"].(map[string]any)["deletedBy"].(map[string]any)
	variants := deletedBy["anyOf"].([]any)
	require.Len(t, variants, 2)
	assert.Equal(t, map[string]any{"type": "string"}, variants[0])
	member := variants[1].(map[string]any)
	assert.Equal(t, "object", member["type"])
	assert.Equal(t, []any{"userId"}, member["required"])
	// oneOf members keep extra keys at run time, so the document must allow them
	assert.NotContains(t, member, "additionalProperties")
	assert.Equal(t, false, doc["additionalProperties"])

	listed, _ := reg.Lookup("property-listed")
	data, err = emit.MarshalJSONSchema(emit.JSONSchemaFor(listed))
	require.NoError(t, err)
	require.NoError(t, jsoncodec.Unmarshal(data, &doc))
	props := doc["properties"].(map[string]any)
	items := props["rooms"].(map[string]any)["items"].(map[string]any)
	features := items["properties"].(map[string]any)["features"].(map[string]any)
	assert.Equal(t, map[string]any{"type": []any{"string", "number"}}, features["items"])
	assert.Equal(t, map[string]any{"type": "number", "enum": []any{0.0, 1.0, 2.0}}, props["floor"])
}

func TestEnvelopeJSONSchema(t *testing.T) {
	data, err := emit.MarshalJSONSchema(emit.EnvelopeJSONSchemaFor(schematest.Schema(t, "agency-created")))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, jsoncodec.Unmarshal(data, &doc))
	assert.Equal(t, []any{"type", "data", "timestamp", "source", "id"}, doc["required"])
	props := doc["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"const": "agency-created"}, props["type"])
	assert.Equal(t, map[string]any{"type": "integer"}, props["timestamp"])
}

func TestGenerateIsDeterministic(t *testing.T) {
	reg := schematest.Registry(t)
	opts := emit.Options{Validation: validate.Options{Mode: validate.ModeStrict}}

	first, err := emit.Generate(reg, opts)
	require.NoError(t, err)
	second, err := emit.Generate(schematest.Registry(t), opts)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Path, second[i].Path)
		assert.Equal(t, first[i].Content, second[i].Content, "file %s differs between runs", first[i].Path)
	}

	paths := make([]string, len(first))
	for i, f := range first {
		paths[i] = f.Path
	}
	assert.Equal(t, []string{
		"types.ts",
		"validators.ts",
		"schemas/agency-created.json",
		"schemas/agency-created.envelope.json",
		"schemas/property-deleted.json",
		"schemas/property-deleted.envelope.json",
		"schemas/property-listed.json",
		"schemas/property-listed.envelope.json",
	}, paths)
}

func TestGenerateTargetsAndErrors(t *testing.T) {
	reg := schematest.Registry(t)

	files, err := emit.Generate(reg, emit.Options{Targets: []emit.Target{emit.TargetJSONSchema}, SchemaDir: "json"})
	require.NoError(t, err)
	require.Len(t, files, 6)
	assert.Equal(t, "json/agency-created.json", files[0].Path)

	_, err = emit.Generate(reg, emit.Options{Targets: []emit.Target{"protobuf"}})
	assert.ErrorContains(t, err, `unknown generation target "protobuf"`)

	_, err = emit.Generate(nil, emit.Options{})
	assert.ErrorIs(t, err, errspkg.ErrRegistryRequired)
}
