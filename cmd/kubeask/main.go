package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/doeshing/kubeask/internal/infrastructure/cli"
	"github.com/doeshing/kubeask/internal/infrastructure/cli/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root, rt := cli.NewRootCmd()

	err := root.ExecuteContext(ctx)
	if closeErr := rt.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	stop()

	if err != nil {
		// verify already printed the verdict.
		if !errors.Is(err, commands.ErrCommandRejected) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
