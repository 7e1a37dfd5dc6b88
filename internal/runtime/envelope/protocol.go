package envelope

import (
	"time"

	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
	"github.com/drblury/schemaflow/internal/runtime/ids"
	"github.com/drblury/schemaflow/internal/runtime/logging"
	"github.com/drblury/schemaflow/internal/runtime/metrics"
	"github.com/drblury/schemaflow/internal/runtime/schema"
	"github.com/drblury/schemaflow/internal/runtime/validate"
)

// Option customises a Protocol.
type Option func(*Protocol)

// WithValidation sets the options used to check data when building and
// parsing envelopes.
func WithValidation(opts validate.Options) Option {
	return func(p *Protocol) { p.validation = opts }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Protocol) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDGenerator overrides the envelope id source.
func WithIDGenerator(newID func() string) Option {
	return func(p *Protocol) {
		if newID != nil {
			p.newID = newID
		}
	}
}

// WithLogger sets the logger used for rejected envelopes.
func WithLogger(logger logging.ServiceLogger) Option {
	return func(p *Protocol) { p.logger = logging.OrNop(logger) }
}

// WithMetrics sets the recorder that counts build, parse and dispatch outcomes.
func WithMetrics(rec metrics.Recorder) Option {
	return func(p *Protocol) {
		if rec != nil {
			p.metrics = rec
		}
	}
}

// Protocol is the set of codecs for one registry.
type Protocol struct {
	registry   *schema.Registry
	conf       Config
	validation validate.Options
	now        func() time.Time
	newID      func() string
	logger     logging.ServiceLogger
	metrics    metrics.Recorder

	codecs map[string]*Codec
}

// NewProtocol compiles a codec for every schema in reg.
func NewProtocol(reg *schema.Registry, conf Config, opts ...Option) (*Protocol, error) {
	if reg == nil {
		return nil, errspkg.ErrRegistryRequired
	}

	p := &Protocol{
		registry: reg,
		conf:     conf,
		now:      time.Now,
		newID:    ids.NewEnvelopeID,
		logger:   logging.NewNopServiceLogger(),
		metrics:  metrics.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logging.LogFields{"component": "envelope"})

	p.codecs = make(map[string]*Codec, reg.Len())
	for _, s := range reg.Schemas() {
		p.codecs[s.Name] = &Codec{
			protocol: p,
			schema:   s,
			data:     validate.Compile(s, p.validation),
		}
	}
	return p, nil
}

// Config returns the configuration the protocol was built with.
func (p *Protocol) Config() Config { return p.conf }

// Registry returns the registry the protocol was built from.
func (p *Protocol) Registry() *schema.Registry { return p.registry }

// SupportedTypes lists the event types in registry order.
func (p *Protocol) SupportedTypes() []string { return p.registry.Names() }

// Codec returns the codec for eventType.
func (p *Protocol) Codec(eventType string) (*Codec, bool) {
	c, ok := p.codecs[eventType]
	return c, ok
}

func (p *Protocol) codecFor(eventType string) (*Codec, error) {
	c, ok := p.codecs[eventType]
	if !ok {
		return nil, &errspkg.UnknownEventTypeError{Type: eventType, SupportedTypes: p.SupportedTypes()}
	}
	return c, nil
}

// BuildData builds an envelope for eventType. See Codec.BuildData.
func (p *Protocol) BuildData(eventType string, raw any) (Envelope, error) {
	c, err := p.codecFor(eventType)
	if err != nil {
		p.metrics.EnvelopeBuilt(eventType, metrics.Outcome(err))
		return Envelope{}, err
	}
	return c.BuildData(raw)
}

// Build builds the publish arguments for eventType. See Codec.Build.
func (p *Protocol) Build(eventType string, raw any) (PublishInput, error) {
	c, err := p.codecFor(eventType)
	if err != nil {
		p.metrics.EnvelopeBuilt(eventType, metrics.Outcome(err))
		return PublishInput{}, err
	}
	return c.Build(raw)
}

// DispatchParse reads the type tag of input and parses it with the matching
// codec. input takes the same forms as Codec.Parse.
func (p *Protocol) DispatchParse(input any) (Envelope, error) {
	env, eventType, err := p.dispatch(input)
	p.metrics.EnvelopeDispatched(eventType, metrics.Outcome(err))
	if err != nil {
		p.logger.Debug("Envelope dispatch failed", logging.LogFields{
			"event_type": eventType,
			"error":      err.Error(),
		})
	}
	return env, err
}

func (p *Protocol) dispatch(input any) (Envelope, string, error) {
	outer, err := decodeInput(input)
	if err != nil {
		return Envelope{}, "", err
	}
	inner, tag, err := unwrap(outer, "")
	if err != nil {
		return Envelope{}, tag, err
	}

	raw, ok := inner["type"]
	if !ok {
		return Envelope{}, tag, &errspkg.EnvelopeValidationError{Field: "type", Reason: "is required"}
	}
	eventType, ok := raw.(string)
	if !ok {
		return Envelope{}, tag, &errspkg.EnvelopeValidationError{Field: "type", Reason: "must be a string, got " + describe(raw)}
	}

	c, err := p.codecFor(eventType)
	if err != nil {
		return Envelope{}, eventType, err
	}
	if tag != "" && tag != eventType {
		return Envelope{}, eventType, &errspkg.TypeMismatchError{Expected: eventType, Actual: tag}
	}
	env, err := c.parseEnvelope(inner)
	return env, eventType, err
}
