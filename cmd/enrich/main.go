package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hoopmetrics/enrich/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}
