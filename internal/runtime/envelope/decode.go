package envelope

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
	"github.com/drblury/schemaflow/internal/runtime/jsoncodec"
)

var envelopeFields = map[string]struct{}{
	"type":      {},
	"data":      {},
	"timestamp": {},
	"source":    {},
	"id":        {},
}

// decodeInput turns any accepted input form into a JSON object.
func decodeInput(input any) (map[string]any, error) {
	switch v := input.(type) {
	case nil:
		return nil, &errspkg.EnvelopeValidationError{Reason: "input is null"}
	case map[string]any:
		return v, nil
	case BusEntry:
		return busEntryMap(v.Body, v.TypeTag), nil
	case *BusEntry:
		if v == nil {
			return nil, &errspkg.EnvelopeValidationError{Reason: "input is null"}
		}
		return busEntryMap(v.Body, v.TypeTag), nil
	case PublishInput:
		return busEntryMap(v.Body, v.TypeTag), nil
	case *PublishInput:
		if v == nil {
			return nil, &errspkg.EnvelopeValidationError{Reason: "input is null"}
		}
		return busEntryMap(v.Body, v.TypeTag), nil
	case Envelope:
		return envelopeMap(v), nil
	case *Envelope:
		if v == nil {
			return nil, &errspkg.EnvelopeValidationError{Reason: "input is null"}
		}
		return envelopeMap(*v), nil
	case []byte:
		return decodeJSON(v, "")
	case string:
		return decodeJSON([]byte(v), "")
	}

	normalized, err := jsoncodec.Normalize(input)
	if err != nil {
		return nil, &errspkg.EnvelopeValidationError{Reason: "input cannot be encoded as JSON", Err: err}
	}
	m, ok := normalized.(map[string]any)
	if !ok {
		return nil, &errspkg.EnvelopeValidationError{Reason: "expected object, got " + describe(normalized)}
	}
	return m, nil
}

func busEntryMap(body, tag string) map[string]any {
	m := map[string]any{"body": body}
	if tag != "" {
		m["typeTag"] = tag
	}
	return m
}

func envelopeMap(e Envelope) map[string]any {
	var data any
	if e.Data != nil {
		data = e.Data
	}
	return map[string]any{
		"type":      e.Type,
		"data":      data,
		"timestamp": e.Timestamp,
		"source":    e.Source,
		"id":        e.ID,
	}
}

func decodeJSON(data []byte, field string) (map[string]any, error) {
	var v any
	if err := jsoncodec.Unmarshal(data, &v); err != nil {
		return nil, &errspkg.EnvelopeValidationError{Field: field, Reason: "is not valid JSON", Err: err}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &errspkg.EnvelopeValidationError{Field: field, Reason: "expected object, got " + describe(v)}
	}
	return m, nil
}

// unwrap returns the envelope object inside a bus entry, or m itself when it
// is not a wrapper. When expected is set, a differing type tag fails before
// the body is decoded.
func unwrap(m map[string]any, expected string) (map[string]any, string, error) {
	body, wrapped := m["body"]
	if !wrapped {
		return m, "", nil
	}

	var tag string
	if raw, ok := m["typeTag"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return nil, "", &errspkg.EnvelopeValidationError{Field: "typeTag", Reason: "must be a string, got " + describe(raw)}
		}
		tag = s
	}
	if expected != "" && tag != "" && tag != expected {
		return nil, tag, &errspkg.TypeMismatchError{Expected: expected, Actual: tag}
	}

	text, ok := body.(string)
	if !ok {
		return nil, tag, &errspkg.EnvelopeValidationError{Field: "body", Reason: "must be a JSON string, got " + describe(body)}
	}
	inner, err := decodeJSON([]byte(text), "body")
	if err != nil {
		return nil, tag, err
	}
	return inner, tag, nil
}

func checkTimestamp(m map[string]any) (int64, error) {
	raw, ok := m["timestamp"]
	if !ok {
		return 0, &errspkg.EnvelopeValidationError{Field: "timestamp", Reason: "is required"}
	}
	invalid := &errspkg.EnvelopeValidationError{Field: "timestamp", Reason: "must be a non-negative integer, got " + describe(raw)}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() < 0 {
			return 0, invalid
		}
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return 0, invalid
		}
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
		if f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
			return 0, invalid
		}
		return int64(f), nil
	}
	return 0, invalid
}

func checkString(m map[string]any, field string) (string, error) {
	raw, ok := m[field]
	if !ok {
		return "", &errspkg.EnvelopeValidationError{Field: field, Reason: "is required"}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &errspkg.EnvelopeValidationError{Field: field, Reason: "must be a string, got " + describe(raw)}
	}
	if s == "" {
		return "", &errspkg.EnvelopeValidationError{Field: field, Reason: "must not be empty"}
	}
	return s, nil
}

func checkKnownFields(m map[string]any) error {
	var unknown []string
	for k := range m {
		if _, ok := envelopeFields[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &errspkg.EnvelopeValidationError{Field: unknown[0], Reason: "is not an envelope field"}
}

func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("string %q", t)
	case bool:
		return fmt.Sprintf("boolean %t", t)
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("number %v", v)
	}
	return fmt.Sprintf("%T", v)
}
