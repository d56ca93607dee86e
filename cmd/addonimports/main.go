package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"github.com/ben-ranford/addonimports/internal/app"
	"github.com/ben-ranford/addonimports/internal/cli"
)

var exitFunc = os.Exit

func run(args []string, out io.Writer, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := log.NewWithOptions(errOut, log.Options{Prefix: "addonimports"})
	runner := app.New(logger)
	commandLine := cli.New(runner, out, errOut)
	return commandLine.Run(ctx, args)
}

func main() {
	exitFunc(run(os.Args[1:], os.Stdout, os.Stderr))
}
