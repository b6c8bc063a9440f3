package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/srerickson/objpath/cmd/objpath/run"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := run.CLI(ctx, os.Args, os.Stdout, os.Stderr); err != nil {
		cancel()
		os.Exit(1)
	}
}
