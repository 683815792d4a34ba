package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/hanpama/gqlclient/internal/graphql"
)

// requestInput holds the per-request flags shared by execute and subscribe.
type requestInput struct {
	query     string
	file      string
	operation string
	vars      []string
	variables string
}

func (in *requestInput) bind(f *pflag.FlagSet) {
	f.StringVarP(&in.query, "query", "q", "", "document text")
	f.StringVarP(&in.file, "file", "f", "", "read the document from a file")
	f.StringVarP(&in.operation, "operation", "o", "", "operation name")
	f.StringArrayVar(&in.vars, "var", nil, "variable as name=value, value parsed as JSON when possible. Repeatable")
	f.StringVar(&in.variables, "variables", "", "variables as a JSON object")
}

// parseVariables merges --variables with --var; --var wins.
func (in *requestInput) parseVariables() (map[string]any, error) {
	vars := map[string]any{}
	if in.variables != "" {
		if err := graphql.JSON.UnmarshalFromString(in.variables, &vars); err != nil {
			return nil, fmt.Errorf("--variables: %w", err)
		}
	}
	for _, kv := range in.vars {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("--var %q: want name=value", kv)
		}
		var v any
		if err := graphql.JSON.UnmarshalFromString(raw, &v); err != nil {
			v = raw
		}
		vars[name] = v
	}
	return vars, nil
}
