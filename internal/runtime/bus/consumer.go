package bus

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/drblury/schemaflow/internal/runtime/envelope"
	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
	"github.com/drblury/schemaflow/internal/runtime/logging"
)

// ErrConsumerExists is returned when a consumer name is registered twice.
var ErrConsumerExists = errors.New("schemaflow: consumer already registered")

// HandlerFunc receives one parsed envelope. Returning an error triggers the
// retry middleware.
type HandlerFunc func(ctx context.Context, env envelope.Envelope) error

// ConsumerRegistration wires a handler onto the destination topic.
type ConsumerRegistration struct {
	Name string
	// Types limits the handler to these event types. Other envelopes are
	// acknowledged without calling the handler. Empty means all types.
	Types   []string
	Handler HandlerFunc
}

// RejectedEnvelopeError marks a message the protocol refused to parse. It is
// routed to the poison queue when one is configured and never retried.
type RejectedEnvelopeError struct {
	MessageUUID string
	Err         error
}

func (e *RejectedEnvelopeError) Error() string {
	return fmt.Sprintf("schemaflow: rejected message %s: %v", e.MessageUUID, e.Err)
}

func (e *RejectedEnvelopeError) Unwrap() error { return e.Err }

// IsRejected reports whether err carries a RejectedEnvelopeError.
func IsRejected(err error) bool {
	var rejected *RejectedEnvelopeError
	return errors.As(err, &rejected)
}

// Consume registers reg on the destination topic. Each message is parsed with
// DispatchParse inside a tracing span before the handler is called.
func (s *Service) Consume(reg ConsumerRegistration) error {
	if s == nil {
		return errspkg.ErrServiceRequired
	}
	if reg.Handler == nil {
		return errspkg.ErrHandlerRequired
	}
	if reg.Name == "" {
		return errspkg.ErrHandlerNameNeeded
	}
	topic := s.conf.Destination
	if topic == "" {
		return errspkg.ErrTopicRequired
	}
	for _, eventType := range reg.Types {
		if _, ok := s.protocol.Codec(eventType); !ok {
			return &errspkg.UnknownEventTypeError{Type: eventType, SupportedTypes: s.protocol.SupportedTypes()}
		}
	}

	s.consumersMu.Lock()
	defer s.consumersMu.Unlock()
	if _, ok := s.consumers[reg.Name]; ok {
		return fmt.Errorf("%w: %s", ErrConsumerExists, reg.Name)
	}
	s.consumers[reg.Name] = struct{}{}

	s.router.AddNoPublisherHandler(reg.Name, topic, s.transport.Subscriber, s.handle(reg))
	s.logger.Info("Consumer registered", logging.LogFields{
		"consumer": reg.Name,
		"topic":    topic,
		"types":    reg.Types,
	})
	return nil
}

func (s *Service) handle(reg ConsumerRegistration) message.NoPublishHandlerFunc {
	logger := s.logger.With(logging.LogFields{"consumer": reg.Name})

	return func(msg *message.Message) error {
		ctx, span := s.tracer.Start(msg.Context(), "schemaflow.consume",
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				attribute.String("messaging.message.id", msg.UUID),
				attribute.String("schemaflow.consumer", reg.Name),
			),
		)
		defer span.End()
		msg.SetContext(ctx)

		env, err := s.protocol.DispatchParse(EntryFromMessage(msg))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "envelope rejected")
			return s.reject(logger, msg, err)
		}
		span.SetAttributes(
			attribute.String("schemaflow.event_type", env.Type),
			attribute.String("schemaflow.envelope_id", env.ID),
			attribute.String("schemaflow.source", env.Source),
		)

		if len(reg.Types) > 0 && !slices.Contains(reg.Types, env.Type) {
			logger.Trace("Skipping envelope", logging.LogFields{"event_type": env.Type, "message_uuid": msg.UUID})
			return nil
		}

		if err := reg.Handler(ctx, env); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "handler failed")
			return err
		}
		return nil
	}
}

// reject drops the message, or hands it to the poison queue middleware when
// a poison queue is configured.
func (s *Service) reject(logger logging.ServiceLogger, msg *message.Message, err error) error {
	fields := logging.LogFields{
		"message_uuid": msg.UUID,
		"type_tag":     EntryFromMessage(msg).TypeTag,
	}
	if s.conf.PoisonQueue != "" {
		fields["poison_queue"] = s.conf.PoisonQueue
		logger.Error("Routing rejected envelope to poison queue", err, fields)
		return &RejectedEnvelopeError{MessageUUID: msg.UUID, Err: err}
	}
	logger.Error("Dropping rejected envelope", err, fields)
	return nil
}
