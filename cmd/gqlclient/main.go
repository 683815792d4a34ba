package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd := newRootCmd(afero.NewOsFs(), os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app carries what every command needs: configuration, the filesystem
// documents and config files are read from, and the output streams.
type app struct {
	v   *viper.Viper
	fs  afero.Fs
	out io.Writer
	err io.Writer
}

func newRootCmd(fs afero.Fs, out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), fs: fs, out: out, err: errOut}
	root := &cobra.Command{
		Use:           "gqlclient",
		Short:         "GraphQL client over HTTP, SSE, WebSocket and gRPC",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	bindGlobalFlags(root)

	root.AddCommand(newExecuteCmd(a), newSubscribeCmd(a), newDocumentsCmd(a))
	return root
}
