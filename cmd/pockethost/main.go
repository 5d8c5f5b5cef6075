package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/SyNdicateFoundation/pockethost/cmd/pockethost/cmds"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmds.NewPocketHostCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
