// Package schematest provides a shared set of event schemas for tests.
package schematest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/drblury/schemaflow/internal/runtime/schema"
)

// Names lists the fixture schemas in registry order.
var Names = []string{"agency-created", "property-deleted", "property-listed"}

// YAML holds three schemas covering every shape: nested objects, enums,
// oneOf with an inline object, arrays of objects and arrays of primitive unions.
const YAML = `
name: agency-created
description: An agency joined the platform.
attributes:
  - name: agencyId
    type: string
    required: true
  - name: name
    type: string
    required: true
  - name: address
    required: true
    description: Postal address of the head office.
    attributes:
      - name: street
        type: string
        required: true
      - name: city
        type: string
        required: true
      - name: postcode
        type: string
  - name: contactPhone
    type: string
  - name: tier
    required: true
    enum: [basic, premium]
  - name: tags
    arrayOf: string
---
name: property-deleted
description: A property was removed from the catalogue.
attributes:
  - name: propertyId
    type: string
    required: true
  - name: reason
    enum: [sold, withdrawn, duplicate]
  - name: deletedBy
    oneOf:
      - string
      - - name: userId
          type: string
          required: true
        - name: role
          enum: [admin, agent]
---
name: property-listed
description: A property was put on the market.
attributes:
  - name: propertyId
    type: string
    required: true
  - name: price
    type: number
    required: true
  - name: furnished
    type: boolean
  - name: rooms
    required: true
    arrayOf:
      - name: name
        type: string
        required: true
      - name: area
        type: number
      - name: features
        arrayOf: [string, number]
  - name: floor
    enum: [0, 1, 2]
  - name: agent
    attributes:
      - name: agentId
        type: string
        required: true
      - name: email
        type: string
`

// Registry loads the fixture schemas.
func Registry(t testing.TB) *schema.Registry {
	t.Helper()
	schemas, err := schema.LoadYAML(strings.NewReader(YAML))
	require.NoError(t, err)
	reg, err := schema.NewRegistry(schemas...)
	require.NoError(t, err)
	return reg
}

// Schema returns one fixture schema by name.
func Schema(t testing.TB, name string) schema.Schema {
	t.Helper()
	s, ok := Registry(t).Lookup(name)
	require.True(t, ok, "fixture schema %q", name)
	return s
}

// AgencyCreated returns a valid agency-created payload with one unknown field
// at the top level and one inside the address.
func AgencyCreated() map[string]any {
	return map[string]any{
		"agencyId": "ag-1",
		"name":     "Acme Lettings",
		"address": map[string]any{
			"street":   "1 High Street",
			"city":     "Leeds",
			"internal": "drop me",
		},
		"tier":       "premium",
		"extraField": 123,
	}
}

// PropertyListed returns a valid property-listed payload with three rooms.
func PropertyListed() map[string]any {
	return map[string]any{
		"propertyId": "p-9",
		"price":      250000.0,
		"rooms": []any{
			map[string]any{"name": "kitchen", "area": 12.5, "colour": "white"},
			map[string]any{"name": "lounge", "features": []any{"fireplace", 2.0}},
			map[string]any{"name": "bedroom"},
		},
	}
}

// PropertyDeleted returns a valid property-deleted payload.
func PropertyDeleted() map[string]any {
	return map[string]any{
		"propertyId": "p-9",
		"reason":     "sold",
		"deletedBy":  map[string]any{"userId": "u-1", "role": "agent"},
	}
}

// Payload returns the valid fixture payload for a schema name.
func Payload(name string) map[string]any {
	switch name {
	case "agency-created":
		return AgencyCreated()
	case "property-deleted":
		return PropertyDeleted()
	case "property-listed":
		return PropertyListed()
	}
	return nil
}
