package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/artifactpub/cmd/artifactpub/commands"
	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
	"git.home.luguber.info/inful/artifactpub/internal/version"
	"github.com/alecthomas/kong"
)

func main() {
	var cli commands.CLI
	kctx := kong.Parse(&cli,
		kong.Name("artifactpub"),
		kong.Description("Build a source repository and publish its artifacts to a distribution repository."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := kctx.Run(&commands.Global{Logger: slog.Default(), Context: ctx}, &cli)
	stop()

	if err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
