package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/doccmerge/cmd/doccmerge/commands"
	"git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/doccmerge/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("doccmerge"),
		kong.Description("Build documentation archives for several modules and merge them into one site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
