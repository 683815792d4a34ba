package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const (
	transportHTTP = "http"
	transportSSE  = "sse"
	transportWS   = "ws"
	transportGRPC = "grpc"
)

// settings is the resolved configuration: flags win over GQLCLIENT_*
// environment variables, which win over the config file.
type settings struct {
	Endpoint     string
	Transport    string
	Headers      http.Header
	Timeout      time.Duration
	Documents    string
	Retries      int
	LogLevel     string
	OtelEndpoint string
	OtelService  string
}

var globalKeys = []string{
	"endpoint", "transport", "header", "timeout", "documents",
	"retries", "log-level", "otel-endpoint", "otel-service",
}

func bindGlobalFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("config", "", "config file (yaml, json or toml)")
	f.StringP("endpoint", "e", "", "GraphQL endpoint URL, or host:port for grpc")
	f.StringP("transport", "t", transportHTTP, "transport: http, sse, ws or grpc")
	f.StringArrayP("header", "H", nil, "request header as 'Name: value'. Repeatable")
	f.Duration("timeout", 30*time.Second, "request timeout, 0 waits indefinitely")
	f.String("documents", "graphql-documents", "directory of named documents")
	f.Int("retries", 0, "retries on transport failures")
	f.String("log-level", "warn", "log level")
	f.String("otel-endpoint", "", "OTLP/gRPC collector endpoint")
	f.String("otel-service", "gqlclient", "OpenTelemetry service name")
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	v := a.v
	v.SetFs(a.fs)
	v.SetEnvPrefix("GQLCLIENT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, key := range globalKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
			return fmt.Errorf("bind flag %s: %w", key, err)
		}
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return nil
}

func (a *app) settings() (*settings, error) {
	v := a.v
	s := &settings{
		Endpoint:     v.GetString("endpoint"),
		Transport:    strings.ToLower(v.GetString("transport")),
		Headers:      http.Header{},
		Timeout:      v.GetDuration("timeout"),
		Documents:    v.GetString("documents"),
		Retries:      v.GetInt("retries"),
		LogLevel:     v.GetString("log-level"),
		OtelEndpoint: v.GetString("otel-endpoint"),
		OtelService:  v.GetString("otel-service"),
	}
	switch s.Transport {
	case transportHTTP, transportSSE, transportWS, transportGRPC:
	default:
		return nil, fmt.Errorf("unknown transport %q", s.Transport)
	}
	for _, h := range headerList(v.Get("header")) {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, want 'Name: value'", h)
		}
		s.Headers.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return s, nil
}

// headerList accepts the flag form ([]string) and the environment or config
// file form, a newline separated string.
func headerList(raw any) []string {
	switch h := raw.(type) {
	case nil:
		return nil
	case string:
		var out []string
		for _, line := range strings.Split(h, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	case []string:
		return h
	case []any:
		out := make([]string, 0, len(h))
		for _, x := range h {
			out = append(out, fmt.Sprint(x))
		}
		return out
	default:
		return []string{fmt.Sprint(h)}
	}
}
