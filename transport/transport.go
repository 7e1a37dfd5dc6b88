// Package transport builds the Watermill publisher/subscriber pair that
// carries envelopes. Each backend lives in its own sub-package and registers
// a Builder under its name.
package transport

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transport combines a publisher and subscriber pair produced by a builder.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Close closes the subscriber and then the publisher. Transports sharing one
// pub/sub value for both sides rely on Close being idempotent.
func (t Transport) Close() error {
	var errs []error
	if t.Subscriber != nil {
		errs = append(errs, t.Subscriber.Close())
	}
	if t.Publisher != nil {
		errs = append(errs, t.Publisher.Close())
	}
	return errors.Join(errs...)
}

// Builder creates a transport from config.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error)

// Config provides the values transports read. It lets transport packages
// stay independent of the config package.
type Config interface {
	// GetPubSubSystem returns the transport name.
	GetPubSubSystem() string
	// GetClientName identifies this process to the broker, where supported.
	GetClientName() string

	// Kafka
	GetKafkaBrokers() []string
	GetKafkaConsumerGroup() string

	// RabbitMQ
	GetRabbitMQURL() string

	// NATS
	GetNATSURL() string

	// AWS
	GetAWSRegion() string
	GetAWSAccountID() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
}

// CapabilitiesProvider is implemented by transports that can report their capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
