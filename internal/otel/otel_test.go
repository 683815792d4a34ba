package otel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hanpama/gqlclient/internal/client"
	"github.com/hanpama/gqlclient/internal/eventbus"
	"github.com/hanpama/gqlclient/internal/events"
	"github.com/hanpama/gqlclient/internal/graphql"
	"github.com/hanpama/gqlclient/internal/reqid"
)

func setup(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	eventbus.Use(eventbus.New())
	unsubscribe := Register(tp.Tracer(tracerName))
	t.Cleanup(func() {
		unsubscribe()
		eventbus.Use(nil)
	})
	return rec
}

func byName(spans []sdktrace.ReadOnlySpan) map[string]sdktrace.ReadOnlySpan {
	out := make(map[string]sdktrace.ReadOnlySpan, len(spans))
	for _, s := range spans {
		out[s.Name()] = s
	}
	return out
}

func TestClientRequestSpans(t *testing.T) {
	rec := setup(t)
	resp, err := graphql.DecodeResponse([]byte(`{"data":{"a":1}}`))
	require.NoError(t, err)
	c, err := client.NewSync(client.NewMockSyncTransport(resp))
	require.NoError(t, err)

	_, err = c.Document("query Q { a }").OperationName("Q").ExecuteSync(context.Background())
	require.NoError(t, err)

	spans := byName(rec.Ended())
	req, ok := spans["graphql.query Q"]
	require.True(t, ok)
	tr, ok := spans["graphql.transport"]
	require.True(t, ok)
	require.Equal(t, req.SpanContext().SpanID(), tr.Parent().SpanID())
	require.Equal(t, codes.Unset, req.Status().Code)
}

func TestTransportChildSpansAndErrors(t *testing.T) {
	rec := setup(t)
	ctx, _ := reqid.NewContext(context.Background())
	boom := errors.New("boom")

	eventbus.Publish(ctx, events.ClientRequestStart{OperationType: "query", Mode: events.ModeSync})
	eventbus.Publish(ctx, events.TransportStart{Mode: events.ModeSync})
	eventbus.Publish(ctx, events.HTTPClientStart{Method: "POST", URL: "http://example.test/graphql"})
	eventbus.Publish(ctx, events.HTTPClientFinish{Method: "POST", Status: 502, Err: boom})
	eventbus.Publish(ctx, events.TransportFinish{Err: boom})
	eventbus.Publish(ctx, events.ClientRequestFinish{Err: boom})

	spans := byName(rec.Ended())
	require.Len(t, spans, 3)
	httpSpan := spans["http.request"]
	require.Equal(t, spans["graphql.transport"].SpanContext().SpanID(), httpSpan.Parent().SpanID())
	require.Equal(t, codes.Error, httpSpan.Status().Code)
	require.Equal(t, codes.Error, spans["graphql.query"].Status().Code)
}

func TestEventsWithoutRequestIDAreIgnored(t *testing.T) {
	rec := setup(t)
	eventbus.Publish(context.Background(), events.ClientRequestStart{OperationType: "query"})
	eventbus.Publish(context.Background(), events.ClientRequestFinish{})
	require.Empty(t, rec.Ended())
}

func TestWebSocketConnectSpan(t *testing.T) {
	rec := setup(t)
	eventbus.Publish(context.Background(), events.WebSocketConnect{URL: "ws://example.test", Duration: 10 * time.Millisecond})
	spans := rec.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "websocket.connect", spans[0].Name())
	require.GreaterOrEqual(t, spans[0].EndTime().Sub(spans[0].StartTime()), 10*time.Millisecond)
}

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup("", "gqlclient")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
