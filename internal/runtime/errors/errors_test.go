package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"ErrServiceRequired", ErrServiceRequired, "schemaflow: event service is required"},
		{"ErrHandlerRequired", ErrHandlerRequired, "schemaflow: handler function is required"},
		{"ErrHandlerNameNeeded", ErrHandlerNameNeeded, "schemaflow: handler name is required"},
		{"ErrPublisherRequired", ErrPublisherRequired, "schemaflow: publisher is required"},
		{"ErrTopicRequired", ErrTopicRequired, "schemaflow: topic is required"},
		{"ErrConfigRequired", ErrConfigRequired, "schemaflow: configuration is required"},
		{"ErrLoggerRequired", ErrLoggerRequired, "schemaflow: logger is required"},
		{"ErrRegistryRequired", ErrRegistryRequired, "schemaflow: schema registry is required"},
		{"ErrProtocolRequired", ErrProtocolRequired, "schemaflow: envelope protocol is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		wantMsg  string
	}{
		{
			name:     "schema",
			err:      &SchemaError{Schema: "agency-created", Attribute: "address.street", Reason: "no shape"},
			sentinel: ErrSchema,
			wantMsg:  `schemaflow: invalid schema "agency-created" attribute "address.street": no shape`,
		},
		{
			name:     "schema without attribute",
			err:      &SchemaError{Reason: "schema name is required"},
			sentinel: ErrSchema,
			wantMsg:  "schemaflow: invalid schema: schema name is required",
		},
		{
			name:     "validation",
			err:      Missing("rooms[1].name"),
			sentinel: ErrValidation,
			wantMsg:  `schemaflow: validation failed at "rooms[1].name": required field is missing`,
		},
		{
			name:     "configuration",
			err:      &ConfigurationError{Setting: "Source", Reason: "publisher identity is not set"},
			sentinel: ErrConfiguration,
			wantMsg:  "schemaflow: missing configuration Source: publisher identity is not set",
		},
		{
			name:     "type mismatch",
			err:      &TypeMismatchError{Expected: "agency-created", Actual: "property-deleted"},
			sentinel: ErrTypeMismatch,
			wantMsg:  `schemaflow: type tag mismatch: expected "agency-created", got "property-deleted"`,
		},
		{
			name:     "envelope",
			err:      &EnvelopeValidationError{Field: "id", Reason: "must be a UUID"},
			sentinel: ErrEnvelopeValidation,
			wantMsg:  `schemaflow: invalid envelope field "id": must be a UUID`,
		},
		{
			name:     "unknown type",
			err:      &UnknownEventTypeError{Type: "nope", SupportedTypes: []string{"a", "b"}},
			sentinel: ErrUnknownEventType,
			wantMsg:  `schemaflow: unknown event type "nope" (supported: a, b)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.NotErrorIs(t, tt.err, ErrTopicRequired)
		})
	}
}

func TestEnvelopeValidationErrorUnwrapsCause(t *testing.T) {
	cause := Missing("address.street")
	err := error(&EnvelopeValidationError{Field: "data", Reason: "does not match schema", Err: cause})

	assert.ErrorIs(t, err, ErrEnvelopeValidation)
	assert.ErrorIs(t, err, ErrValidation)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "address.street", validation.Path)
}

func TestConfigValidationError(t *testing.T) {
	inner := errors.New("invalid port")
	err := ConfigValidationError{Err: inner}

	assert.Equal(t, "schemaflow: invalid configuration: invalid port", err.Error())
	assert.Equal(t, inner, err.Unwrap())
}

func TestNewConfigValidationError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.NoError(t, NewConfigValidationError(nil))
	})

	t.Run("wraps error correctly", func(t *testing.T) {
		inner := errors.New("bad config")
		err := NewConfigValidationError(inner)

		var cfgErr ConfigValidationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, inner, cfgErr.Err)
		assert.ErrorIs(t, err, inner)
	})
}
