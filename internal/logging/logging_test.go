package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hanpama/gqlclient/internal/eventbus"
	"github.com/hanpama/gqlclient/internal/events"
	"github.com/hanpama/gqlclient/internal/reqid"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "debug", false)
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.DebugLevel))
	l.Info("hello", zap.String("k", "v"))
	require.Contains(t, buf.String(), `"msg":"hello"`)
	require.Contains(t, buf.String(), `"k":"v"`)

	l, err = New(&buf, "warn", true)
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = New(&buf, "loud", false)
	require.Error(t, err)
}

func TestRegisterRendersEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	eventbus.Use(eventbus.New())
	unsubscribe := Register(zap.New(core))
	t.Cleanup(func() {
		unsubscribe()
		eventbus.Use(nil)
	})

	ctx, id := reqid.NewContext(context.Background())
	eventbus.Publish(ctx, events.TransportFinish{OperationName: "Q", Mode: events.ModeSync, Err: errors.New("refused")})
	eventbus.Publish(ctx, events.HTTPClientFinish{Method: "POST", URL: "http://example.test", Status: 200})
	eventbus.Publish(context.Background(), events.WebSocketConnect{URL: "ws://example.test"})

	failed := logs.FilterMessage("transport failed").All()
	require.Len(t, failed, 1)
	require.Equal(t, id, failed[0].ContextMap()["request_id"])
	require.Equal(t, "refused", failed[0].ContextMap()["error"])
	require.Equal(t, 1, logs.FilterMessage("http round trip").Len())
	require.Equal(t, 1, logs.FilterMessage("websocket connected").Len())

	unsubscribe()
	eventbus.Publish(ctx, events.TransportFinish{Err: errors.New("again")})
	require.Equal(t, 1, logs.FilterMessage("transport failed").Len())
}
