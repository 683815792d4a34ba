package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/hanpama/gqlclient/internal/eventbus"
	"github.com/hanpama/gqlclient/internal/events"
	"github.com/hanpama/gqlclient/internal/reqid"
)

const tracerName = "github.com/hanpama/gqlclient"

// Setup configures an OTLP/gRPC exporter and attaches the span subscriber to
// the global event bus. If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Register(tp.Tracer(tracerName))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

type spanKind int

const (
	requestSpan spanKind = iota
	transportSpan
	httpSpan
	grpcSpan
)

type spanKey struct {
	rid  int64
	kind spanKind
}

// subscriber turns client events into spans. Spans of one request are
// correlated by request id: request > transport > http or grpc.
type subscriber struct {
	tracer trace.Tracer
	spans  sync.Map // spanKey -> trace.Span
}

// Register subscribes a span producer on the global event bus. Events
// without a request id are ignored, except WebSocket connects.
func Register(tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	unsubs := []func(){
		eventbus.Subscribe(s.requestStart),
		eventbus.Subscribe(s.requestFinish),
		eventbus.Subscribe(s.subscriptionItem),
		eventbus.Subscribe(s.transportStart),
		eventbus.Subscribe(s.transportFinish),
		eventbus.Subscribe(s.httpStart),
		eventbus.Subscribe(s.httpFinish),
		eventbus.Subscribe(s.grpcStart),
		eventbus.Subscribe(s.grpcFinish),
		eventbus.Subscribe(s.websocketConnect),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *subscriber) start(ctx context.Context, kind spanKind, name string, parents []spanKind, attrs ...attribute.KeyValue) {
	rid, ok := reqid.FromContext(ctx)
	if !ok {
		return
	}
	parent := ctx
	for _, p := range parents {
		if v, ok := s.spans.Load(spanKey{rid, p}); ok {
			parent = trace.ContextWithSpan(ctx, v.(trace.Span))
			break
		}
	}
	_, span := s.tracer.Start(parent, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
	s.spans.Store(spanKey{rid, kind}, span)
}

func (s *subscriber) finish(ctx context.Context, kind spanKind, err error, attrs ...attribute.KeyValue) {
	rid, ok := reqid.FromContext(ctx)
	if !ok {
		return
	}
	v, ok := s.spans.LoadAndDelete(spanKey{rid, kind})
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *subscriber) requestStart(ctx context.Context, e events.ClientRequestStart) {
	name := "graphql." + e.OperationType
	if e.OperationName != "" {
		name += " " + e.OperationName
	}
	s.start(ctx, requestSpan, name, nil,
		attribute.String("graphql.operation.name", e.OperationName),
		attribute.String("graphql.operation.type", e.OperationType),
		attribute.String("graphql.document", e.Document),
		attribute.String("gqlclient.mode", e.Mode),
	)
}

func (s *subscriber) requestFinish(ctx context.Context, e events.ClientRequestFinish) {
	s.finish(ctx, requestSpan, e.Err, attribute.Int("graphql.error_count", e.ErrorCount))
}

func (s *subscriber) subscriptionItem(ctx context.Context, e events.SubscriptionItem) {
	rid, ok := reqid.FromContext(ctx)
	if !ok {
		return
	}
	if v, ok := s.spans.Load(spanKey{rid, requestSpan}); ok {
		v.(trace.Span).AddEvent("graphql.subscription.item", trace.WithAttributes(
			attribute.Int("index", e.Index),
			attribute.Int("graphql.error_count", e.ErrorCount),
		))
	}
}

func (s *subscriber) transportStart(ctx context.Context, e events.TransportStart) {
	s.start(ctx, transportSpan, "graphql.transport", []spanKind{requestSpan},
		attribute.String("gqlclient.mode", e.Mode))
}

func (s *subscriber) transportFinish(ctx context.Context, e events.TransportFinish) {
	s.finish(ctx, transportSpan, e.Err)
}

func (s *subscriber) httpStart(ctx context.Context, e events.HTTPClientStart) {
	s.start(ctx, httpSpan, "http.request", []spanKind{transportSpan, requestSpan},
		semconv.HTTPMethodKey.String(e.Method),
		semconv.HTTPURLKey.String(e.URL),
		attribute.Bool("http.stream", e.Stream),
	)
}

func (s *subscriber) httpFinish(ctx context.Context, e events.HTTPClientFinish) {
	s.finish(ctx, httpSpan, e.Err, semconv.HTTPStatusCodeKey.Int(e.Status))
}

func (s *subscriber) grpcStart(ctx context.Context, e events.GRPCClientStart) {
	s.start(ctx, grpcSpan, "grpc.client", []spanKind{transportSpan, requestSpan},
		semconv.RPCSystemKey.String("grpc"),
		semconv.RPCServiceKey.String(e.Service),
		semconv.RPCMethodKey.String(e.Method),
		attribute.String("net.peer.name", e.Target),
	)
}

func (s *subscriber) grpcFinish(ctx context.Context, e events.GRPCClientFinish) {
	s.finish(ctx, grpcSpan, e.Err, attribute.String("grpc.code", e.Code.String()))
}

// websocketConnect records the handshake as a span ending now.
func (s *subscriber) websocketConnect(ctx context.Context, e events.WebSocketConnect) {
	end := time.Now()
	_, span := s.tracer.Start(ctx, "websocket.connect",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(end.Add(-e.Duration)),
		trace.WithAttributes(attribute.String("url", e.URL)))
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End(trace.WithTimestamp(end))
}
