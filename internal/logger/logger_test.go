package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"rulebook/pkg/logging"
)

func newObservedLogger() (*SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &SugaredLogger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestNewFallsBackToInfoOnUnknownLevel(t *testing.T) {
	log, err := New("not-a-level")
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestInfowCtxAttachesContextFields(t *testing.T) {
	log, logs := newObservedLogger()

	ctx := logging.WithRequestID(context.Background(), "req-1")
	ctx = logging.WithTraceID(ctx, "trace-1")

	log.InfowCtx(ctx, "rule created", "rule_id", int64(7))

	entries := logs.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "trace-1", fields["trace_id"])
	assert.Equal(t, int64(7), fields["rule_id"])
}

func TestServiceNameStampedWhenContextLacksOne(t *testing.T) {
	log, logs := newObservedLogger()
	log.SetServiceName("rule-service")

	log.ErrorwCtx(context.Background(), "store unavailable")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "rule-service", entries[0].ContextMap()["service_name"])
}

func TestNopLoggerSatisfiesInterface(t *testing.T) {
	var log Logger = NopLogger()
	log.InfowCtx(context.Background(), "ignored")
	require.NoError(t, log.Sync())
}
