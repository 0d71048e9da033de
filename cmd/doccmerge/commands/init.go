package commands

import (
	"fmt"

	"git.home.luguber.info/inful/doccmerge/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	fmt.Fprintf(root.out(), "Wrote example configuration to %s\n", root.Config)
	fmt.Fprintln(root.out(), "Set main_target and targets, then run: doccmerge merge -o <output>")
	return nil
}
