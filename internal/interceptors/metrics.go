package interceptors

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/client"
)

const (
	OutcomeSuccess      = "success"
	OutcomeGraphQLError = "graphql_error"
	OutcomeError        = "error"
)

// Metrics counts requests by operation and outcome and observes their
// duration. A subscription counts as one request ending with the stream.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gqlclient_requests_total",
			Help: "GraphQL client requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gqlclient_request_duration_seconds",
			Help:    "GraphQL client request duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Sync() client.SyncInterceptor {
	return client.SyncInterceptorFunc(func(ctx context.Context, req *client.Request, next client.SyncChain) (*client.Response, error) {
		done := m.start(req)
		resp, err := next(ctx, req)
		done(errorCount(resp), err)
		return resp, err
	})
}

func (m *Metrics) Async() client.Interceptor { return metricsInterceptor{m} }

type metricsInterceptor struct{ m *Metrics }

func (i metricsInterceptor) Intercept(ctx context.Context, req *client.Request, next client.Chain) *async.Future[*client.Response] {
	done := i.m.start(req)
	return async.Then(next(ctx, req), func(resp *client.Response, err error) (*client.Response, error) {
		done(errorCount(resp), err)
		return resp, err
	})
}

func (i metricsInterceptor) InterceptSubscription(ctx context.Context, req *client.Request, next client.SubscriptionChain) *async.Stream[*client.Response] {
	done := i.m.start(req)
	errs := 0
	return observeStream(next(ctx, req), func(resp *client.Response) {
		errs += errorCount(resp)
	}, func(err error) {
		done(errs, err)
	})
}

func (m *Metrics) start(req *client.Request) func(errorCount int, err error) {
	start := time.Now()
	op := operationLabel(req)
	return func(errorCount int, err error) {
		outcome := OutcomeSuccess
		switch {
		case err != nil:
			outcome = OutcomeError
		case errorCount > 0:
			outcome = OutcomeGraphQLError
		}
		m.requests.WithLabelValues(op, outcome).Inc()
		m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func operationLabel(req *client.Request) string {
	if name := req.OperationName(); name != "" {
		return name
	}
	return "anonymous"
}
