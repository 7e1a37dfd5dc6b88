// Package metrics counts envelope operations per event type and outcome.
package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
)

// Outcome label values.
const (
	OutcomeOK                = "ok"
	OutcomeValidationError   = "validation_error"
	OutcomeConfigError       = "configuration_error"
	OutcomeTypeMismatch      = "type_mismatch"
	OutcomeEnvelopeInvalid   = "envelope_invalid"
	OutcomeUnknownEventType  = "unknown_event_type"
	OutcomeUnclassifiedError = "error"
)

// Recorder receives one call per build, parse or dispatch.
type Recorder interface {
	EnvelopeBuilt(eventType, outcome string)
	EnvelopeParsed(eventType, outcome string)
	EnvelopeDispatched(eventType, outcome string)
}

// Outcome maps an operation error to its label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, errspkg.ErrTypeMismatch):
		return OutcomeTypeMismatch
	case errors.Is(err, errspkg.ErrEnvelopeValidation):
		return OutcomeEnvelopeInvalid
	case errors.Is(err, errspkg.ErrValidation):
		return OutcomeValidationError
	case errors.Is(err, errspkg.ErrConfiguration):
		return OutcomeConfigError
	case errors.Is(err, errspkg.ErrUnknownEventType):
		return OutcomeUnknownEventType
	}
	return OutcomeUnclassifiedError
}

type nopRecorder struct{}

func (nopRecorder) EnvelopeBuilt(string, string)      {}
func (nopRecorder) EnvelopeParsed(string, string)     {}
func (nopRecorder) EnvelopeDispatched(string, string) {}

// Nop returns a Recorder that discards everything.
func Nop() Recorder { return nopRecorder{} }

// PrometheusRecorder exports envelope counters under the schemaflow namespace.
type PrometheusRecorder struct {
	mu         sync.Mutex
	registered bool
	registerer prometheus.Registerer

	built      *prometheus.CounterVec
	parsed     *prometheus.CounterVec
	dispatched *prometheus.CounterVec
}

func newEnvelopeCounterVec(name, help string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "schemaflow",
			Subsystem: "envelopes",
			Name:      name,
			Help:      help,
		},
		[]string{"type", "outcome"},
	)
}

// NewPrometheusRecorder creates the counters. A nil registerer falls back to
// prometheus.DefaultRegisterer. Call Register before exposing them.
func NewPrometheusRecorder(registerer prometheus.Registerer) *PrometheusRecorder {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &PrometheusRecorder{
		registerer: registerer,
		built:      newEnvelopeCounterVec("built_total", "Envelopes built for publishing, by event type and outcome"),
		parsed:     newEnvelopeCounterVec("parsed_total", "Envelopes parsed against a known schema, by event type and outcome"),
		dispatched: newEnvelopeCounterVec("dispatched_total", "Envelopes routed by type tag, by event type and outcome"),
	}
}

// Register registers the collectors. Safe to call multiple times.
func (r *PrometheusRecorder) Register() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.registered {
		return nil
	}
	for _, c := range []prometheus.Collector{r.built, r.parsed, r.dispatched} {
		if err := r.registerer.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}
	r.registered = true
	return nil
}

func (r *PrometheusRecorder) EnvelopeBuilt(eventType, outcome string) {
	r.built.WithLabelValues(eventType, outcome).Inc()
}

func (r *PrometheusRecorder) EnvelopeParsed(eventType, outcome string) {
	r.parsed.WithLabelValues(eventType, outcome).Inc()
}

func (r *PrometheusRecorder) EnvelopeDispatched(eventType, outcome string) {
	r.dispatched.WithLabelValues(eventType, outcome).Inc()
}
