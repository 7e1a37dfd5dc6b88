// Package loggingtest provides a ServiceLogger that records entries for assertions.
package loggingtest

import (
	"sync"

	"github.com/drblury/schemaflow/internal/runtime/logging"
)

// Entry is one recorded log call. Fields include those inherited through With.
type Entry struct {
	Level  string
	Msg    string
	Fields logging.LogFields
	Err    error
}

type sink struct {
	mu      sync.Mutex
	entries []Entry
}

// Recorder implements logging.ServiceLogger. Children created with With share
// the parent's sink.
type Recorder struct {
	sink   *sink
	fields logging.LogFields
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{sink: &sink{}}
}

func (r *Recorder) With(fields logging.LogFields) logging.ServiceLogger {
	return &Recorder{sink: r.sink, fields: merge(r.fields, fields)}
}

func (r *Recorder) Debug(msg string, fields logging.LogFields) { r.record("debug", msg, nil, fields) }
func (r *Recorder) Info(msg string, fields logging.LogFields)  { r.record("info", msg, nil, fields) }
func (r *Recorder) Trace(msg string, fields logging.LogFields) { r.record("trace", msg, nil, fields) }

func (r *Recorder) Error(msg string, err error, fields logging.LogFields) {
	r.record("error", msg, err, fields)
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.sink.mu.Lock()
	defer r.sink.mu.Unlock()
	return append([]Entry(nil), r.sink.entries...)
}

// Find returns the first entry with msg.
func (r *Recorder) Find(msg string) (Entry, bool) {
	for _, e := range r.Entries() {
		if e.Msg == msg {
			return e, true
		}
	}
	return Entry{}, false
}

func (r *Recorder) record(level, msg string, err error, fields logging.LogFields) {
	r.sink.mu.Lock()
	defer r.sink.mu.Unlock()
	r.sink.entries = append(r.sink.entries, Entry{Level: level, Msg: msg, Fields: merge(r.fields, fields), Err: err})
}

func merge(base, extra logging.LogFields) logging.LogFields {
	out := make(logging.LogFields, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
