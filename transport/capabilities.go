package transport

// Capabilities describes the delivery guarantees of a transport backend.
type Capabilities struct {
	// Name is the registered transport name.
	Name string

	// SupportsNativeDLQ indicates the backend dead-letters messages itself.
	// When false, the bus routes rejected envelopes to its poison queue.
	SupportsNativeDLQ bool
	// SupportsOrdering indicates messages on one topic arrive in publish order.
	SupportsOrdering bool
	// SupportsTracing indicates the backend propagates tracing headers natively.
	SupportsTracing bool
	// SupportsAck and SupportsNack indicate explicit acknowledgement and redelivery.
	SupportsAck  bool
	SupportsNack bool

	// MaxMessageSize is the largest body the backend accepts, in bytes (0 = unknown).
	MaxMessageSize int64
}

// RequiresDLQEmulation reports whether poison routing must happen in the router.
func (c Capabilities) RequiresDLQEmulation() bool {
	return !c.SupportsNativeDLQ
}

// SupportsReliableDelivery reports at-least-once delivery (ack and nack).
func (c Capabilities) SupportsReliableDelivery() bool {
	return c.SupportsAck && c.SupportsNack
}

// Fits reports whether a body of size bytes is within MaxMessageSize.
func (c Capabilities) Fits(size int) bool {
	return c.MaxMessageSize == 0 || int64(size) <= c.MaxMessageSize
}

// Capability sets of the built-in transports.
var (
	ChannelCapabilities = Capabilities{
		Name:             "channel",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
	}

	KafkaCapabilities = Capabilities{
		Name:             "kafka",
		SupportsOrdering: true,
		SupportsTracing:  true,
		SupportsAck:      true,
		MaxMessageSize:   1 << 20,
	}

	RabbitMQCapabilities = Capabilities{
		Name:              "rabbitmq",
		SupportsNativeDLQ: true,
		SupportsOrdering:  true,
		SupportsTracing:   true,
		SupportsAck:       true,
		SupportsNack:      true,
	}

	NATSCapabilities = Capabilities{
		Name:            "nats",
		SupportsTracing: true,
		MaxMessageSize:  1 << 20,
	}

	AWSCapabilities = Capabilities{
		Name:              "aws",
		SupportsNativeDLQ: true,
		SupportsOrdering:  true,
		SupportsTracing:   true,
		SupportsAck:       true,
		SupportsNack:      true,
		MaxMessageSize:    256 << 10,
	}
)
