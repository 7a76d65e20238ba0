// Command tsdclean deletes the generated sources and the results directory.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alexis-ROYER/tsd-default-export/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	opts := &cli.RootOptions{}
	code := cli.Execute(ctx, cli.NewCleanRootCommandWithOptions(opts), opts)

	stop()
	os.Exit(code)
}
