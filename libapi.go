package schemaflow

import (
	"context"

	buspkg "github.com/drblury/schemaflow/internal/runtime/bus"
	configpkg "github.com/drblury/schemaflow/internal/runtime/config"
	emitpkg "github.com/drblury/schemaflow/internal/runtime/emit"
	envelopepkg "github.com/drblury/schemaflow/internal/runtime/envelope"
	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
	idspkg "github.com/drblury/schemaflow/internal/runtime/ids"
	jsoncodec "github.com/drblury/schemaflow/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/schemaflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/schemaflow/internal/runtime/metadata"
	metricspkg "github.com/drblury/schemaflow/internal/runtime/metrics"
	schemapkg "github.com/drblury/schemaflow/internal/runtime/schema"
	validatepkg "github.com/drblury/schemaflow/internal/runtime/validate"
	transportpkg "github.com/drblury/schemaflow/transport"

	// Built-in transports register themselves with the default registry.
	_ "github.com/drblury/schemaflow/transport/transports"
)

type (
	// Schema model
	Schema         = schemapkg.Schema
	Attribute      = schemapkg.Attribute
	Shape          = schemapkg.Shape
	Kind           = schemapkg.Kind
	Primitive      = schemapkg.Primitive
	Object         = schemapkg.Object
	Enum           = schemapkg.Enum
	OneOf          = schemapkg.OneOf
	ArrayOf        = schemapkg.ArrayOf
	PrimitiveUnion = schemapkg.PrimitiveUnion
	Registry       = schemapkg.Registry

	// Code generation
	GenerateOptions = emitpkg.Options
	GenerateTarget  = emitpkg.Target
	GeneratedFile   = emitpkg.File
	JSONSchemaNode  = emitpkg.JSONSchemaNode

	// Validation
	ValidationOptions = validatepkg.Options
	ValidationMode    = validatepkg.Mode
	Presence          = validatepkg.Presence
	Sanitizer         = validatepkg.Sanitizer

	// Envelope protocol
	Envelope       = envelopepkg.Envelope
	BusEntry       = envelopepkg.BusEntry
	PublishInput   = envelopepkg.PublishInput
	EnvelopeConfig = envelopepkg.Config
	Protocol       = envelopepkg.Protocol
	ProtocolOption = envelopepkg.Option
	Codec          = envelopepkg.Codec

	// Error taxonomy
	SchemaError             = errspkg.SchemaError
	ValidationError         = errspkg.ValidationError
	ConfigurationError      = errspkg.ConfigurationError
	TypeMismatchError       = errspkg.TypeMismatchError
	EnvelopeValidationError = errspkg.EnvelopeValidationError
	UnknownEventTypeError   = errspkg.UnknownEventTypeError
	ConfigValidationError   = errspkg.ConfigValidationError

	// Bus service
	Config                = configpkg.Config
	Service               = buspkg.Service
	ServiceDependencies   = buspkg.Dependencies
	ConsumerRegistration  = buspkg.ConsumerRegistration
	EnvelopeHandler       = buspkg.HandlerFunc
	RejectedEnvelopeError = buspkg.RejectedEnvelopeError
	Metadata              = metadatapkg.Metadata
	MetricsRecorder       = metricspkg.Recorder
	PrometheusRecorder    = metricspkg.PrometheusRecorder
	LogFields             = loggingpkg.LogFields
	ServiceLogger         = loggingpkg.ServiceLogger
	Transport             = transportpkg.Transport
	TransportBuilder      = transportpkg.Builder
	TransportConfig       = transportpkg.Config
	TransportRegistry     = transportpkg.Registry
	TransportCapabilities = transportpkg.Capabilities
	CapabilitiesProvider  = transportpkg.CapabilitiesProvider
)

const (
	KindPrimitive = schemapkg.KindPrimitive
	KindObject    = schemapkg.KindObject
	KindEnum      = schemapkg.KindEnum
	KindOneOf     = schemapkg.KindOneOf
	KindArrayOf   = schemapkg.KindArrayOf
	KindUnion     = schemapkg.KindUnion

	String  = schemapkg.String
	Number  = schemapkg.Number
	Boolean = schemapkg.Boolean

	TargetTypeScript = emitpkg.TargetTypeScript
	TargetJSONSchema = emitpkg.TargetJSONSchema

	ModePresence    = validatepkg.ModePresence
	ModeStrict      = validatepkg.ModeStrict
	PresenceDefined = validatepkg.PresenceDefined
	PresenceTruthy  = validatepkg.PresenceTruthy

	// Metadata keys set on every bus message carrying an envelope.
	MetadataKeyTypeTag   = metadatapkg.KeyTypeTag
	MetadataKeyPublisher = metadatapkg.KeyPublisher
)

var (
	LoadYAML       = schemapkg.LoadYAML
	LoadJSON       = schemapkg.LoadJSON
	LoadFile       = schemapkg.LoadFile
	LoadFS         = schemapkg.LoadFS
	ParseSchema    = schemapkg.Parse
	NewRegistry    = schemapkg.NewRegistry
	MustRegistry   = schemapkg.MustRegistry
	DefaultTargets = emitpkg.DefaultTargets

	Generate                 = emitpkg.Generate
	TypeScriptTypes          = emitpkg.TypeScriptTypes
	TypeScriptSanitizers     = emitpkg.TypeScriptSanitizers
	JSONSchemaFor            = emitpkg.JSONSchemaFor
	EnvelopeJSONSchemaFor    = emitpkg.EnvelopeJSONSchemaFor
	MarshalJSONSchema        = emitpkg.MarshalJSONSchema
	TypeName                 = emitpkg.TypeName
	ParseValidationMode      = validatepkg.ParseMode
	CompileSanitizer         = validatepkg.Compile
	Sanitize                 = validatepkg.Sanitize
	NewProtocol              = envelopepkg.NewProtocol
	WithValidation           = envelopepkg.WithValidation
	WithClock                = envelopepkg.WithClock
	WithIDGenerator          = envelopepkg.WithIDGenerator
	WithLogger               = envelopepkg.WithLogger
	WithMetrics              = envelopepkg.WithMetrics
	NewPrometheusRecorder    = metricspkg.NewPrometheusRecorder
	NopMetrics               = metricspkg.Nop
	NewService               = buspkg.NewService
	NewMessage               = buspkg.NewMessage
	EntryFromMessage         = buspkg.EntryFromMessage
	IsRejected               = buspkg.IsRejected
	ValidateConfig           = configpkg.ValidateConfig
	ConfigFromEnv            = configpkg.FromEnv
	NewSlogServiceLogger     = loggingpkg.NewSlogServiceLogger
	NewNopServiceLogger      = loggingpkg.NewNopServiceLogger
	NewEnvelopeID            = idspkg.NewEnvelopeID
	IsEnvelopeID             = idspkg.IsEnvelopeID
	CreateULID               = idspkg.CreateULID
	ForEnvelope              = metadatapkg.ForEnvelope
	Marshal                  = jsoncodec.Marshal
	MarshalIndent            = jsoncodec.MarshalIndent
	Unmarshal                = jsoncodec.Unmarshal
	Encode                   = jsoncodec.Encode
	Decode                   = jsoncodec.Decode
	DefaultTransportRegistry = transportpkg.DefaultRegistry
	RegisterTransport        = transportpkg.Register
	BuildTransport           = transportpkg.Build
	GetCapabilities          = transportpkg.GetCapabilities

	ErrSchema             = errspkg.ErrSchema
	ErrValidation         = errspkg.ErrValidation
	ErrConfiguration      = errspkg.ErrConfiguration
	ErrTypeMismatch       = errspkg.ErrTypeMismatch
	ErrEnvelopeValidation = errspkg.ErrEnvelopeValidation
	ErrUnknownEventType   = errspkg.ErrUnknownEventType

	ErrServiceRequired   = errspkg.ErrServiceRequired
	ErrHandlerRequired   = errspkg.ErrHandlerRequired
	ErrHandlerNameNeeded = errspkg.ErrHandlerNameNeeded
	ErrPublisherRequired = errspkg.ErrPublisherRequired
	ErrTopicRequired     = errspkg.ErrTopicRequired
	ErrConfigRequired    = errspkg.ErrConfigRequired
	ErrRegistryRequired  = errspkg.ErrRegistryRequired
	ErrProtocolRequired  = errspkg.ErrProtocolRequired
	ErrMessageTooLarge   = buspkg.ErrMessageTooLarge
	ErrConsumerExists    = buspkg.ErrConsumerExists
)

// ProtocolFromConfig builds a Protocol whose envelope settings and build
// validation options come from conf. Extra options are applied last.
func ProtocolFromConfig(reg *Registry, conf *Config, opts ...ProtocolOption) (*Protocol, error) {
	if conf == nil {
		return nil, ErrConfigRequired
	}
	validation, err := conf.ValidationOptions()
	if err != nil {
		return nil, errspkg.NewConfigValidationError(err)
	}
	base := []ProtocolOption{WithValidation(validation)}
	return NewProtocol(reg, conf.Envelope(), append(base, opts...)...)
}

// NewServiceFromConfig builds the Protocol for reg and a Service on top of it.
// The same logger is used for dispatch failures and bus lifecycle events.
func NewServiceFromConfig(ctx context.Context, reg *Registry, conf *Config, logger ServiceLogger, deps ServiceDependencies) (*Service, error) {
	protocol, err := ProtocolFromConfig(reg, conf, WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return NewService(ctx, conf, logger, protocol, deps)
}
