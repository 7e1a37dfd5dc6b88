package envelope

import (
	"fmt"

	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
	"github.com/drblury/schemaflow/internal/runtime/ids"
	"github.com/drblury/schemaflow/internal/runtime/jsoncodec"
	"github.com/drblury/schemaflow/internal/runtime/logging"
	"github.com/drblury/schemaflow/internal/runtime/metrics"
	"github.com/drblury/schemaflow/internal/runtime/schema"
	"github.com/drblury/schemaflow/internal/runtime/validate"
)

// Codec builds and parses envelopes of one event type.
type Codec struct {
	protocol *Protocol
	schema   schema.Schema
	data     *validate.Sanitizer
}

// Name returns the event type tag.
func (c *Codec) Name() string { return c.schema.Name }

// Schema returns the schema the codec was compiled from.
func (c *Codec) Schema() schema.Schema { return c.schema }

// Sanitize validates raw and projects it onto the schema, using the build
// validation options.
func (c *Codec) Sanitize(raw any) (map[string]any, error) {
	return c.data.Sanitize(raw)
}

// BuildData sanitizes raw and stamps it into a new envelope with the current
// whole-second timestamp, the configured source and a fresh id.
func (c *Codec) BuildData(raw any) (Envelope, error) {
	env, err := c.buildData(raw)
	c.protocol.metrics.EnvelopeBuilt(c.Name(), metrics.Outcome(err))
	return env, err
}

func (c *Codec) buildData(raw any) (Envelope, error) {
	source := c.protocol.conf.Source
	if source == "" {
		return Envelope{}, &errspkg.ConfigurationError{Setting: "Source", Reason: "publisher identity is required to build envelopes"}
	}

	data, err := c.data.Sanitize(raw)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		Type:      c.Name(),
		Data:      data,
		Timestamp: c.protocol.now().Unix(),
		Source:    source,
		ID:        c.protocol.newID(),
	}, nil
}

// Build produces the publish arguments for raw: the envelope serialized as
// JSON, tagged with the event type and addressed to the configured destination.
func (c *Codec) Build(raw any) (PublishInput, error) {
	in, err := c.buildInput(raw)
	c.protocol.metrics.EnvelopeBuilt(c.Name(), metrics.Outcome(err))
	return in, err
}

func (c *Codec) buildInput(raw any) (PublishInput, error) {
	destination := c.protocol.conf.Destination
	if destination == "" {
		return PublishInput{}, &errspkg.ConfigurationError{Setting: "Destination", Reason: "bus destination is required to publish envelopes"}
	}

	env, err := c.buildData(raw)
	if err != nil {
		return PublishInput{}, err
	}
	body, err := jsoncodec.MarshalToString(env)
	if err != nil {
		return PublishInput{}, fmt.Errorf("encode %s envelope: %w", c.Name(), err)
	}

	return PublishInput{
		Destination: destination,
		TypeTag:     c.Name(),
		Publisher:   env.Source,
		Body:        body,
	}, nil
}

// Parse reads an envelope of this codec's type. input is a BusEntry,
// PublishInput, Envelope (or pointers to them), a decoded JSON object, or JSON
// as []byte or string. A value with a "body" key is treated as a bus entry: its
// type tag is checked before the body is decoded.
//
// The envelope is validated field by field in the order type, data,
// timestamp, source, id, and the first failure is returned. Data is checked
// with the same validation options as Build, so Parse accepts whatever Build
// produced. Envelope fields are always checked strictly.
func (c *Codec) Parse(input any) (Envelope, error) {
	outer, err := decodeInput(input)
	if err != nil {
		c.recordParse(err)
		return Envelope{}, err
	}
	inner, _, err := unwrap(outer, c.Name())
	if err != nil {
		c.recordParse(err)
		return Envelope{}, err
	}
	return c.parseEnvelope(inner)
}

// parseEnvelope validates an unwrapped envelope object and records the outcome.
func (c *Codec) parseEnvelope(m map[string]any) (Envelope, error) {
	env, err := c.validate(m)
	c.recordParse(err)
	return env, err
}

func (c *Codec) recordParse(err error) {
	c.protocol.metrics.EnvelopeParsed(c.Name(), metrics.Outcome(err))
	if err != nil {
		c.protocol.logger.Debug("Envelope rejected", logging.LogFields{
			"event_type": c.Name(),
			"error":      err.Error(),
		})
	}
}

func (c *Codec) validate(m map[string]any) (Envelope, error) {
	if err := c.checkType(m); err != nil {
		return Envelope{}, err
	}

	rawData, ok := m["data"]
	if !ok {
		return Envelope{}, &errspkg.EnvelopeValidationError{Field: "data", Reason: "is required"}
	}
	data, err := c.data.Sanitize(rawData)
	if err != nil {
		return Envelope{}, &errspkg.EnvelopeValidationError{Field: "data", Reason: "does not match schema " + c.Name(), Err: err}
	}

	timestamp, err := checkTimestamp(m)
	if err != nil {
		return Envelope{}, err
	}
	source, err := checkString(m, "source")
	if err != nil {
		return Envelope{}, err
	}
	id, err := checkString(m, "id")
	if err != nil {
		return Envelope{}, err
	}
	if !ids.IsEnvelopeID(id) {
		return Envelope{}, &errspkg.EnvelopeValidationError{Field: "id", Reason: fmt.Sprintf("%q is not a canonical UUID", id)}
	}

	if err := checkKnownFields(m); err != nil {
		return Envelope{}, err
	}

	return Envelope{
		Type:      c.Name(),
		Data:      data,
		Timestamp: timestamp,
		Source:    source,
		ID:        id,
	}, nil
}

func (c *Codec) checkType(m map[string]any) error {
	raw, ok := m["type"]
	if !ok {
		return &errspkg.EnvelopeValidationError{Field: "type", Reason: "is required"}
	}
	if s, ok := raw.(string); !ok || s != c.Name() {
		return &errspkg.EnvelopeValidationError{Field: "type", Reason: fmt.Sprintf("expected %q, got %s", c.Name(), describe(raw))}
	}
	return nil
}
