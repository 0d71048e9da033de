package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/doccmerge/internal/navindex"
)

// InspectCmd implements the 'inspect' command.
type InspectCmd struct {
	Index string `arg:"" name:"index" help:"Path to an index.json file or an archive directory" type:"path"`
	Depth int    `name:"depth" short:"d" help:"Maximum tree depth (0 = unlimited)" default:"0"`
}

func (i *InspectCmd) Run(_ *Global, root *CLI) error {
	path := i.Index
	if filepath.Ext(path) != ".json" {
		path = filepath.Join(path, "index", "index.json")
	}
	idx, err := navindex.ReadFile(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryIndex, "failed to read navigation index").
			WithContext("path", path).
			Build()
	}
	fmt.Fprint(root.out(), navindex.Render(filepath.Base(filepath.Dir(filepath.Dir(path))), idx, i.Depth))
	return nil
}
