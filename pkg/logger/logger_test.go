package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "sfgnexus/internal/core/context"
)

func TestFromContext_AddsTraceFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := WithLogger(context.Background(), NewWithCore(core))
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})

	Info(ctx, "allocated", "formatted", "10001-ENQ")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "10001-ENQ", fields["formatted"])
}

func TestFromContext_WithoutTrace(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ctx := WithLogger(context.Background(), NewWithCore(core).WithComponent("allocation"))

	Debug(ctx, "dropped")
	Warn(ctx, "kept")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "kept", entry.Message)
	assert.Equal(t, "allocation", entry.ContextMap()["component"])
	assert.NotContains(t, entry.ContextMap(), "trace_id")
}

func TestNew(t *testing.T) {
	l, err := New(Config{Level: "bogus", Encoding: "console", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.True(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))

	_, err = New(Config{Encoding: "xml"})
	assert.Error(t, err)
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := NewWithCore(core)

	base.With("command", "allocate").Infow("done")
	base.Infow("plain")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "allocate", logs.All()[0].ContextMap()["command"])
	assert.NotContains(t, logs.All()[1].ContextMap(), "command")
}
