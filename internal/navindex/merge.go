package navindex

import (
	"fmt"

	"git.home.luguber.info/inful/doccmerge/internal/module"
)

const (
	// DefaultPrimaryLanguage is the interface language whose root node lists the secondary modules.
	DefaultPrimaryLanguage = "swift"
	// DefaultBackLinkFormat is the title format of the link back to the main module.
	DefaultBackLinkFormat = "Back to %s"
)

// Source pairs a module with its parsed navigation index.
type Source struct {
	Module module.Module
	Index  *Index
}

// MergeOptions tunes Merge. The zero value uses the defaults.
type MergeOptions struct {
	PrimaryLanguage string
	BackLinkFormat  string
}

func (o MergeOptions) withDefaults() MergeOptions {
	if o.PrimaryLanguage == "" {
		o.PrimaryLanguage = DefaultPrimaryLanguage
	}
	if o.BackLinkFormat == "" {
		o.BackLinkFormat = DefaultBackLinkFormat
	}
	return o
}

// ModuleLink builds the synthesized link node pointing at a module root.
func ModuleLink(title string, target module.Module) Node {
	return Node{
		Title: title,
		Type:  TypeModule,
		Path:  "../" + target.Key(),
	}
}

// Merge combines the main module's index with the secondary modules' indexes.
//
// The result carries the main schema version and lists every module in
// includedArchiveIdentifiers. Each secondary forest is appended per language
// after a back link to the main module has been prepended to the children of
// its top-level nodes. Finally the main module's first primary-language node is
// appended with its children replaced by one link per secondary module.
// Languages of the main index other than the primary one are not carried over.
//
// Inputs are not modified.
func Merge(main Source, secondaries []Source, opts MergeOptions) *Index {
	opts = opts.withDefaults()

	merged := &Index{
		IncludedArchiveIdentifiers: make([]string, 0, len(secondaries)+1),
		InterfaceLanguages:         make(map[string]Forest),
	}
	merged.IncludedArchiveIdentifiers = append(merged.IncludedArchiveIdentifiers, main.Module.Name)
	for _, s := range secondaries {
		merged.IncludedArchiveIdentifiers = append(merged.IncludedArchiveIdentifiers, s.Module.Name)
	}
	if main.Index != nil && main.Index.SchemaVersion != nil {
		v := *main.Index.SchemaVersion
		merged.SchemaVersion = &v
	}

	backLink := ModuleLink(fmt.Sprintf(opts.BackLinkFormat, main.Module.Name), main.Module)
	for _, s := range secondaries {
		if s.Index == nil {
			continue
		}
		for _, lang := range s.Index.Languages() {
			forest := withBackLink(s.Index.InterfaceLanguages[lang], backLink)
			if existing, ok := merged.InterfaceLanguages[lang]; ok {
				merged.InterfaceLanguages[lang] = append(existing, forest...)
			} else {
				merged.InterfaceLanguages[lang] = forest
			}
		}
	}

	root := mainRoot(main.Index, opts.PrimaryLanguage)
	root.Children = make([]Node, 0, len(secondaries))
	for _, s := range secondaries {
		root.Children = append(root.Children, ModuleLink(s.Module.Name, s.Module))
	}
	merged.InterfaceLanguages[opts.PrimaryLanguage] = append(merged.InterfaceLanguages[opts.PrimaryLanguage], root)

	return merged
}

// withBackLink returns a copy of forest where every top-level node that has a
// children list gets link prepended to it.
func withBackLink(forest Forest, link Node) Forest {
	out := forest.Clone()
	if out == nil {
		out = Forest{}
	}
	for i := range out {
		if !out[i].HasChildren() {
			continue
		}
		children := make([]Node, 0, len(out[i].Children)+1)
		children = append(children, link.Clone())
		out[i].Children = append(children, out[i].Children...)
	}
	return out
}

// mainRoot returns a copy of the first node of the main index's primary-language
// forest, or an empty node when there is none.
func mainRoot(idx *Index, lang string) Node {
	if idx == nil {
		return Node{}
	}
	forest := idx.InterfaceLanguages[lang]
	if len(forest) == 0 {
		return Node{}
	}
	return forest[0].Clone()
}
