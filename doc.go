// Package schemaflow turns a set of event schemas into generated types and
// sanitizers, and carries events over a message bus inside a typed envelope.
//
// Schemas are written in YAML or JSON with a small attribute DSL: each
// attribute is a primitive, a nested object, an enum, a oneOf, an array of
// objects or an array of primitive unions. LoadFS reads a directory of
// schemas into a Registry, and Generate renders the registry into TypeScript
// declarations, TypeScript sanitizers and JSON Schema documents.
//
// At run time a Protocol compiles one sanitizer per schema and exposes
// BuildData, Build, Parse and DispatchParse. Build produces the arguments of
// a bus publish: a JSON envelope {type, data, timestamp, source, id} plus the
// type tag and publisher identity. DispatchParse routes an incoming entry to
// the codec named by its type and returns the validated envelope.
// Every failure is one of the typed errors (SchemaError, ValidationError,
// ConfigurationError, TypeMismatchError, EnvelopeValidationError,
// UnknownEventTypeError) and matches its sentinel through errors.Is.
//
// # Transports
//
// Service wires a Protocol to a Watermill router. The backing transport is
// selected by Config.PubSubSystem:
//   - channel: In-memory Go channels for tests and local development
//   - kafka: Consumer groups per client
//   - rabbitmq: Durable AMQP queues
//   - nats: NATS core with queue groups
//   - aws: SNS topics fanned out to SQS queues, with LocalStack support
//
// # Middleware
//
// The router retries failing handlers with exponential backoff, recovers
// from panics and, when Config.PoisonQueue is set, forwards envelopes the
// protocol rejects to the poison queue instead of dropping them. Prometheus
// router metrics and a /metrics endpoint are enabled by Config.MetricsEnabled.
package schemaflow
