package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sdejongh/dedupnorris/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		cli.ReportError(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func run() error {
	cli.Version, cli.Commit, cli.BuildDate = version, commit, date

	// Interrupts cancel the run; the audit log of completed actions is still written
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.NewRootCommand().ExecuteContext(ctx)
}
