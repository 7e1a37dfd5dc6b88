// Package transports imports all built-in transports for auto-registration.
// Import this package to have all transports registered with the default registry.
package transports

import (
	_ "github.com/drblury/schemaflow/transport/aws"
	_ "github.com/drblury/schemaflow/transport/channel"
	_ "github.com/drblury/schemaflow/transport/kafka"
	_ "github.com/drblury/schemaflow/transport/nats"
	_ "github.com/drblury/schemaflow/transport/rabbitmq"
)
