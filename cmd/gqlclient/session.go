package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/hanpama/gqlclient/internal/client"
	"github.com/hanpama/gqlclient/internal/document"
	"github.com/hanpama/gqlclient/internal/eventbus"
	"github.com/hanpama/gqlclient/internal/grpctp"
	"github.com/hanpama/gqlclient/internal/httptp"
	"github.com/hanpama/gqlclient/internal/interceptors"
	"github.com/hanpama/gqlclient/internal/logging"
	"github.com/hanpama/gqlclient/internal/otel"
	"github.com/hanpama/gqlclient/internal/wstp"
)

// session is one configured client plus what has to be released after use.
type session struct {
	client  *client.Client
	logger  *zap.Logger
	closers []func(context.Context) error
}

func (s *session) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i](ctx))
	}
	_ = s.logger.Sync()
	return errors.Join(errs...)
}

func (a *app) documentSource(dir string) (*document.FileSource, document.Source, error) {
	files := document.NewFileSource(document.WithFs(a.fs), document.WithLocations(dir))
	cached, err := document.NewCachingSource(document.WithSyntaxCheck(files), document.DefaultCacheSize)
	if err != nil {
		return nil, nil, err
	}
	return files, cached, nil
}

func (a *app) open(s *settings) (*session, error) {
	if s.Endpoint == "" {
		return nil, errors.New("no endpoint configured, set --endpoint or GQLCLIENT_ENDPOINT")
	}
	logger, err := logging.New(a.err, s.LogLevel, false)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	sess := &session{logger: logger}
	if err := a.connect(sess, s); err != nil {
		_ = sess.Close(context.Background())
		return nil, err
	}
	return sess, nil
}

// connect wires observability, documents and the transport into sess. Every
// resource it acquires is registered in sess.closers before the next step.
func (a *app) connect(sess *session, s *settings) error {
	eventbus.Use(eventbus.New())
	unsubscribe := logging.Register(sess.logger)
	sess.closers = append(sess.closers, func(context.Context) error { unsubscribe(); return nil })
	shutdown, err := otel.Setup(s.OtelEndpoint, s.OtelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	sess.closers = append(sess.closers, shutdown)

	_, source, err := a.documentSource(s.Documents)
	if err != nil {
		return err
	}
	opts := []client.Option{
		client.WithDocumentSource(source),
		client.WithBlockingTimeout(s.Timeout),
	}
	logs := interceptors.NewLogging(sess.logger)
	var retry *interceptors.Retry
	if s.Retries > 0 {
		retry = interceptors.NewRetry(backoff.WithMaxTries(uint(s.Retries) + 1))
	}

	if s.Transport == transportHTTP {
		chain := []client.SyncInterceptor{logs.Sync()}
		if retry != nil {
			chain = append(chain, retry.Sync())
		}
		tp := httptp.New(s.Endpoint, httptp.WithHeaders(s.Headers))
		sess.client, err = client.NewSync(tp, append(opts, client.WithSyncInterceptors(chain...))...)
		return err
	}

	var tp client.Transport
	switch s.Transport {
	case transportSSE:
		tp = httptp.NewStreaming(s.Endpoint, httptp.WithHeaders(s.Headers))
	case transportWS:
		ws := wstp.New(s.Endpoint, wstp.WithHeaders(s.Headers))
		sess.closers = append(sess.closers, func(context.Context) error { return ws.Close() })
		tp = ws
	case transportGRPC:
		g := grpctp.New(grpctp.WithProvider(grpctp.Single(s.Endpoint)), grpctp.WithRPCTimeout(s.Timeout))
		sess.closers = append(sess.closers, func(context.Context) error { return g.Close() })
		tp = g
	default:
		return fmt.Errorf("unknown transport %q", s.Transport)
	}
	chain := []client.Interceptor{logs.Async()}
	if retry != nil {
		chain = append(chain, retry.Async())
	}
	sess.client, err = client.New(tp, append(opts, client.WithInterceptors(chain...))...)
	return err
}

// spec builds the request spec from --query, --file or a document name.
func (a *app) spec(c *client.Client, in *requestInput, args []string) (*client.RequestSpec, error) {
	var spec *client.RequestSpec
	switch {
	case in.query != "":
		spec = c.Document(in.query)
	case in.file != "":
		b, err := afero.ReadFile(a.fs, in.file)
		if err != nil {
			return nil, err
		}
		spec = c.Document(string(b))
	case len(args) == 1:
		spec = c.DocumentName(args[0])
	default:
		return nil, errors.New("need a document: --query, --file or a document name")
	}
	vars, err := in.parseVariables()
	if err != nil {
		return nil, err
	}
	spec = spec.Variables(vars)
	if in.operation != "" {
		spec = spec.OperationName(in.operation)
	}
	return spec, nil
}
