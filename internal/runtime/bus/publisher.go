package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/schemaflow/internal/runtime/envelope"
	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
	"github.com/drblury/schemaflow/internal/runtime/ids"
	"github.com/drblury/schemaflow/internal/runtime/logging"
	"github.com/drblury/schemaflow/internal/runtime/metadata"
)

// ErrMessageTooLarge is returned when an envelope body exceeds the transport's
// maximum message size.
var ErrMessageTooLarge = errors.New("schemaflow: envelope exceeds transport message size")

// NewMessage converts publish arguments into a Watermill message: the body is
// the payload, the type tag and publisher identity travel as metadata and the
// message UUID is a fresh ULID.
func NewMessage(in envelope.PublishInput) *message.Message {
	msg := message.NewMessage(ids.CreateULID(), []byte(in.Body))
	msg.Metadata = metadata.ToWatermill(metadata.ForEnvelope(in.TypeTag, in.Publisher))
	return msg
}

// EntryFromMessage reads the bus entry a subscriber received.
func EntryFromMessage(msg *message.Message) envelope.BusEntry {
	return envelope.BusEntry{
		Body:    string(msg.Payload),
		TypeTag: metadata.FromWatermill(msg.Metadata).TypeTag(),
	}
}

// Publish builds an envelope of eventType from raw and publishes it to the
// configured destination. The publish arguments are returned even when the
// transport rejects the message.
func (s *Service) Publish(ctx context.Context, eventType string, raw any) (envelope.PublishInput, error) {
	in, err := s.protocol.Build(eventType, raw)
	if err != nil {
		return envelope.PublishInput{}, err
	}
	return in, s.PublishEntry(ctx, in)
}

// PublishEntry publishes prebuilt publish arguments.
func (s *Service) PublishEntry(ctx context.Context, in envelope.PublishInput) error {
	if s == nil || s.transport.Publisher == nil {
		return errspkg.ErrPublisherRequired
	}
	if in.Destination == "" {
		return errspkg.ErrTopicRequired
	}
	if !s.capabilities.Fits(len(in.Body)) {
		return fmt.Errorf("%w: %d bytes, %s accepts %d", ErrMessageTooLarge, len(in.Body), s.capabilities.Name, s.capabilities.MaxMessageSize)
	}

	msg := NewMessage(in)
	if ctx != nil {
		msg.SetContext(ctx)
	}
	if err := s.transport.Publisher.Publish(in.Destination, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", in.TypeTag, in.Destination, err)
	}

	s.logger.Debug("Envelope published", logging.LogFields{
		"event_type":   in.TypeTag,
		"destination":  in.Destination,
		"message_uuid": msg.UUID,
	})
	return nil
}
