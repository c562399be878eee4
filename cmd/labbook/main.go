package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"labbook/internal/cli"
	"labbook/internal/logger"
)

func main() {
	log := zap.NewNop()
	if os.Getenv("LABBOOK_DEBUG") != "" {
		if l, err := logger.New("dev"); err == nil {
			log = l
		}
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(os.Stdin, os.Stdout, log).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "labbook:", err)
		os.Exit(1)
	}
}
