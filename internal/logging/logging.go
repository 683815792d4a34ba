// Package logging builds the zap logger and renders client events as log
// lines.
package logging

import (
	"context"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hanpama/gqlclient/internal/eventbus"
	"github.com/hanpama/gqlclient/internal/events"
	"github.com/hanpama/gqlclient/internal/reqid"
)

// New returns a logger writing to w at level ("debug", "info", ...).
// Development loggers use the console encoder.
func New(w io.Writer, level string, development bool) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	encCfg := zap.NewProductionEncoderConfig()
	if development {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)
	if development {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	sink := zapcore.Lock(zapcore.AddSync(w))
	opts := []zap.Option{zap.ErrorOutput(sink)}
	if development {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}
	return zap.New(zapcore.NewCore(enc, sink, lvl), opts...), nil
}

// Register logs transport level events from the global event bus. Request
// level logging is left to the logging interceptor.
func Register(l *zap.Logger) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.TransportFinish) {
			log := with(ctx, l)
			if e.Err != nil {
				log.Warn("transport failed", zap.String("operation", e.OperationName), zap.String("mode", e.Mode), zap.Duration("duration", e.Duration), zap.Error(e.Err))
				return
			}
			log.Debug("transport done", zap.String("operation", e.OperationName), zap.String("mode", e.Mode), zap.Duration("duration", e.Duration))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPClientFinish) {
			with(ctx, l).Debug("http round trip", zap.String("method", e.Method), zap.String("url", e.URL), zap.Int("status", e.Status), zap.Duration("duration", e.Duration), zap.Error(e.Err))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.GRPCClientFinish) {
			with(ctx, l).Debug("grpc call", zap.String("method", e.Service+"/"+e.Method), zap.String("target", e.Target), zap.Stringer("code", e.Code), zap.Duration("duration", e.Duration), zap.Error(e.Err))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.WebSocketConnect) {
			if e.Err != nil {
				l.Warn("websocket connect failed", zap.String("url", e.URL), zap.Error(e.Err))
				return
			}
			l.Info("websocket connected", zap.String("url", e.URL), zap.Duration("duration", e.Duration))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.WebSocketClose) {
			l.Info("websocket closed", zap.String("url", e.URL), zap.Error(e.Err))
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func with(ctx context.Context, l *zap.Logger) *zap.Logger {
	if id, ok := reqid.FromContext(ctx); ok {
		return l.With(zap.Int64("request_id", id))
	}
	return l
}
