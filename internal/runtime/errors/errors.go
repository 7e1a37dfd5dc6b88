package errors

import sterrors "errors"

// Sentinels for the typed errors in types.go. Match them with errors.Is.
var (
	ErrSchema             = sterrors.New("schemaflow: invalid schema")
	ErrValidation         = sterrors.New("schemaflow: validation failed")
	ErrConfiguration      = sterrors.New("schemaflow: missing configuration")
	ErrTypeMismatch       = sterrors.New("schemaflow: type tag mismatch")
	ErrEnvelopeValidation = sterrors.New("schemaflow: invalid envelope")
	ErrUnknownEventType   = sterrors.New("schemaflow: unknown event type")
)

var (
	ErrServiceRequired   = sterrors.New("schemaflow: event service is required")
	ErrHandlerRequired   = sterrors.New("schemaflow: handler function is required")
	ErrHandlerNameNeeded = sterrors.New("schemaflow: handler name is required")
	ErrPublisherRequired = sterrors.New("schemaflow: publisher is required")
	ErrTopicRequired     = sterrors.New("schemaflow: topic is required")
	ErrConfigRequired    = sterrors.New("schemaflow: configuration is required")
	ErrLoggerRequired    = sterrors.New("schemaflow: logger is required")
	ErrRegistryRequired  = sterrors.New("schemaflow: schema registry is required")
	ErrProtocolRequired  = sterrors.New("schemaflow: envelope protocol is required")
)

// ConfigValidationError wraps the joined problems reported by Config.Validate.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return "schemaflow: invalid configuration: " + e.Err.Error()
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError returns nil when err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}
