package logging_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/schemaflow/internal/runtime/logging"
	"github.com/drblury/schemaflow/internal/runtime/logging/loggingtest"
)

func TestSlogServiceLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger := logging.NewSlogServiceLogger(base).With(logging.LogFields{"component": "envelope"})

	logger.Info("Envelope built", logging.LogFields{"event_type": "agency-created"})
	logger.Error("Envelope rejected", errors.New("boom"), nil)

	out := buf.String()
	assert.Contains(t, out, "Envelope built")
	assert.Contains(t, out, "event_type=agency-created")
	assert.Contains(t, out, "component=envelope")
	assert.Contains(t, out, "boom")
}

func TestConstructorsPanicOnNil(t *testing.T) {
	assert.Panics(t, func() { logging.NewSlogServiceLogger(nil) })
	assert.Panics(t, func() { logging.NewWatermillServiceLogger(nil) })
	assert.Panics(t, func() { logging.NewWatermillAdapter(nil) })
}

func TestNopAndOrNop(t *testing.T) {
	nop := logging.NewNopServiceLogger()
	nop.With(logging.LogFields{"a": 1}).Info("ignored", nil)
	nop.Error("ignored", errors.New("x"), nil)

	assert.NotNil(t, logging.OrNop(nil))
	rec := loggingtest.New()
	assert.Same(t, rec, logging.OrNop(rec))
}

func TestWatermillAdapterDelegates(t *testing.T) {
	rec := loggingtest.New()
	adapter := logging.NewWatermillAdapter(rec)

	adapter.Debug("dbg", watermill.LogFields{"k": "v"})
	adapter.Info("info", nil)
	adapter.Trace("trace", nil)
	adapter.Error("err", errors.New("boom"), nil)
	adapter.With(watermill.LogFields{"child": "yes"}).Info("child_info", watermill.LogFields{"extra": 1})

	entries := rec.Entries()
	require.Len(t, entries, 5)
	assert.Equal(t, "debug", entries[0].Level)
	assert.Equal(t, "v", entries[0].Fields["k"])
	assert.Equal(t, "error", entries[3].Level)
	assert.EqualError(t, entries[3].Err, "boom")

	child, ok := rec.Find("child_info")
	require.True(t, ok)
	assert.Equal(t, logging.LogFields{"child": "yes", "extra": 1}, child.Fields)
}

func TestWatermillServiceLoggerRoundTrip(t *testing.T) {
	rec := loggingtest.New()
	logger := logging.NewWatermillServiceLogger(logging.NewWatermillAdapter(rec))

	logger.With(logging.LogFields{"topic": "events"}).Debug("received", logging.LogFields{"uuid": "01H"})

	entry, ok := rec.Find("received")
	require.True(t, ok)
	assert.Equal(t, logging.LogFields{"topic": "events", "uuid": "01H"}, entry.Fields)
}
