package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hanpama/gqlclient/internal/graphql"
)

func newExecuteCmd(a *app) *cobra.Command {
	var (
		in   requestInput
		path string
	)
	cmd := &cobra.Command{
		Use:   "execute [document-name]",
		Short: "Execute a query or mutation and print the response",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			sess, err := a.open(s)
			if err != nil {
				return err
			}
			defer sess.Close(cmd.Context())

			spec, err := a.spec(sess.client, &in, args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if s.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, s.Timeout)
				defer cancel()
			}
			var out any
			if path != "" {
				f, err := spec.RetrieveSync(path).Field(ctx)
				if err != nil {
					return err
				}
				out = f.Value
			} else {
				resp, err := spec.ExecuteSync(ctx)
				if err != nil {
					return err
				}
				out = resp.ToMap()
			}
			return printJSON(a, out, true)
		},
	}
	in.bind(cmd.Flags())
	cmd.Flags().StringVarP(&path, "path", "p", "", "print only the field at this path, failing on field errors")
	return cmd
}

func printJSON(a *app, v any, indent bool) error {
	var (
		b   []byte
		err error
	)
	if indent {
		b, err = graphql.JSON.MarshalIndent(v, "", "  ")
	} else {
		b, err = graphql.JSON.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}
