package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/arnavsurve/stepcheck/cmd/cli"
)

var CLI struct {
	Run   cli.RunCmd   `cmd:"" help:"Run a scenario against a posts service."`
	Lint  cli.LintCmd  `cmd:"" help:"Validate a scenario without running it."`
	Serve cli.ServeCmd `cmd:"" help:"Serve an in-memory posts service."`
	Show  cli.ShowCmd  `cmd:"" help:"Print the built-in posts scenario."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx := kong.Parse(&CLI,
		kong.Name("stepcheck"),
		kong.Description("Sequential API scenario runner."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run()
	stop()
	kctx.FatalIfErrorf(err)
}
