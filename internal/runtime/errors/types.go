package errors

import (
	"fmt"
	"strings"
)

// SchemaError reports a malformed schema document. It is raised while loading
// and never at run time.
type SchemaError struct {
	// Schema is the name of the offending schema, empty when the name itself is the problem.
	Schema string
	// Attribute is the dotted path of the offending attribute, empty for schema-level problems.
	Attribute string
	Reason    string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schemaflow: invalid schema")
	if e.Schema != "" {
		fmt.Fprintf(&b, " %q", e.Schema)
	}
	if e.Attribute != "" {
		fmt.Fprintf(&b, " attribute %q", e.Attribute)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// Is implements errors.Is for SchemaError.
func (e *SchemaError) Is(target error) bool {
	if target == ErrSchema {
		return true
	}
	_, ok := target.(*SchemaError)
	return ok
}

// ValidationError reports the first field of an input that failed sanitizing.
// Path uses dot and bracket notation, for example "rooms[1].name".
type ValidationError struct {
	Path   string
	Reason string
}

// Missing builds the ValidationError for an absent required field.
func Missing(path string) *ValidationError {
	return &ValidationError{Path: path, Reason: "required field is missing"}
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("schemaflow: validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("schemaflow: validation failed at %q: %s", e.Path, e.Reason)
}

// Is implements errors.Is for ValidationError.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	_, ok := target.(*ValidationError)
	return ok
}

// ConfigurationError reports a setting that must be present for the call.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("schemaflow: missing configuration %s: %s", e.Setting, e.Reason)
}

// Is implements errors.Is for ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	if target == ErrConfiguration {
		return true
	}
	_, ok := target.(*ConfigurationError)
	return ok
}

// TypeMismatchError reports a bus entry whose type tag names another schema.
type TypeMismatchError struct {
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("schemaflow: type tag mismatch: expected %q, got %q", e.Expected, e.Actual)
}

// Is implements errors.Is for TypeMismatchError.
func (e *TypeMismatchError) Is(target error) bool {
	if target == ErrTypeMismatch {
		return true
	}
	_, ok := target.(*TypeMismatchError)
	return ok
}

// EnvelopeValidationError reports the first envelope field that failed
// structural validation. Err carries the underlying cause, if any.
type EnvelopeValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *EnvelopeValidationError) Error() string {
	msg := fmt.Sprintf("schemaflow: invalid envelope field %q: %s", e.Field, e.Reason)
	if e.Field == "" {
		msg = "schemaflow: invalid envelope: " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EnvelopeValidationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for EnvelopeValidationError.
func (e *EnvelopeValidationError) Is(target error) bool {
	if target == ErrEnvelopeValidation {
		return true
	}
	_, ok := target.(*EnvelopeValidationError)
	return ok
}

// UnknownEventTypeError reports a dispatch on a type tag no schema declares.
type UnknownEventTypeError struct {
	Type           string
	SupportedTypes []string
}

func (e *UnknownEventTypeError) Error() string {
	return fmt.Sprintf("schemaflow: unknown event type %q (supported: %s)", e.Type, strings.Join(e.SupportedTypes, ", "))
}

// Is implements errors.Is for UnknownEventTypeError.
func (e *UnknownEventTypeError) Is(target error) bool {
	if target == ErrUnknownEventType {
		return true
	}
	_, ok := target.(*UnknownEventTypeError)
	return ok
}
