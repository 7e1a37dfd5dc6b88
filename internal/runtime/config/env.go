package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FromEnv reads a Config from environment variables named <PREFIX>_<SETTING>,
// for example SCHEMAFLOW_SOURCE or SCHEMAFLOW_KAFKA_BROKERS. Unset variables
// leave the zero value. Malformed numbers, booleans and durations are
// reported together.
func FromEnv(prefix string) (*Config, error) {
	r := envReader{prefix: strings.TrimSuffix(strings.ToUpper(prefix), "_")}

	conf := &Config{
		Source:             r.str("SOURCE"),
		Destination:        r.str("DESTINATION"),
		ValidationMode:     r.str("VALIDATION_MODE"),
		TruthyPresence:     r.boolean("TRUTHY_PRESENCE"),
		PubSubSystem:       r.str("PUBSUB_SYSTEM"),
		ClientName:         r.str("CLIENT_NAME"),
		KafkaBrokers:       r.list("KAFKA_BROKERS"),
		KafkaConsumerGroup: r.str("KAFKA_CONSUMER_GROUP"),
		RabbitMQURL:        r.str("RABBITMQ_URL"),
		NATSURL:            r.str("NATS_URL"),
		AWSRegion:          r.str("AWS_REGION"),
		AWSAccountID:       r.str("AWS_ACCOUNT_ID"),
		AWSAccessKeyID:     r.str("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: r.str("AWS_SECRET_ACCESS_KEY"),
		AWSEndpoint:        r.str("AWS_ENDPOINT"),
		PoisonQueue:        r.str("POISON_QUEUE"),

		RetryMaxRetries:      r.integer("RETRY_MAX_RETRIES"),
		RetryInitialInterval: r.duration("RETRY_INITIAL_INTERVAL"),
		RetryMaxInterval:     r.duration("RETRY_MAX_INTERVAL"),

		MetricsEnabled: r.boolean("METRICS_ENABLED"),
		MetricsPort:    r.integer("METRICS_PORT"),
	}
	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	return conf, nil
}

type envReader struct {
	prefix string
	errs   []error
}

func (r *envReader) key(name string) string {
	if r.prefix == "" {
		return name
	}
	return r.prefix + "_" + name
}

func (r *envReader) str(name string) string {
	return strings.TrimSpace(os.Getenv(r.key(name)))
}

func (r *envReader) list(name string) []string {
	var values []string
	for _, value := range strings.Split(r.str(name), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			values = append(values, value)
		}
	}
	return values
}

func (r *envReader) boolean(name string) bool {
	raw := strings.ToLower(r.str(name))
	switch raw {
	case "":
		return false
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	}
	r.errs = append(r.errs, fmt.Errorf("%s: invalid boolean %q", r.key(name), raw))
	return false
}

func (r *envReader) integer(name string) int {
	raw := r.str(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid integer %q", r.key(name), raw))
	}
	return n
}

func (r *envReader) duration(name string) time.Duration {
	raw := r.str(name)
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid duration %q", r.key(name), raw))
	}
	return d
}
