package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDocumentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Inspect the named documents directory",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List document names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			files, _, err := a.documentSource(a.v.GetString("documents"))
			if err != nil {
				return err
			}
			names, err := files.Names()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(a.out, n)
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "show NAME",
		Short: "Print a document after a syntax check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, source, err := a.documentSource(a.v.GetString("documents"))
			if err != nil {
				return err
			}
			doc, err := source.Document(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, doc)
			return nil
		},
	})
	return cmd
}
