package main

import (
	"iter"

	"github.com/spf13/cobra"

	"github.com/hanpama/gqlclient/internal/client"
)

func newSubscribeCmd(a *app) *cobra.Command {
	var (
		in    requestInput
		path  string
		count int
	)
	cmd := &cobra.Command{
		Use:   "subscribe [document-name]",
		Short: "Run a subscription and print one JSON line per response",
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
			if path != "" {
				return printUntil(a, count, spec.RetrieveSubscription(path).Fields(ctx).All(ctx), func(f *client.ResponseField) any {
					return f.Value
				})
			}
			return printUntil(a, count, spec.ExecuteSubscription(ctx).All(ctx), func(r *client.Response) any {
				return r.ToMap()
			})
		},
	}
	in.bind(cmd.Flags())
	cmd.Flags().StringVarP(&path, "path", "p", "", "print only the field at this path, failing on field errors")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after this many responses, 0 for no limit")
	return cmd
}

func printUntil[T any](a *app, count int, seq iter.Seq2[T, error], render func(T) any) error {
	n := 0
	for item, err := range seq {
		if err != nil {
			return err
		}
		if err := printJSON(a, render(item), false); err != nil {
			return err
		}
		n++
		if count > 0 && n >= count {
			return nil
		}
	}
	return nil
}
