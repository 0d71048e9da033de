package navindex

import (
	"fmt"

	"github.com/disiqueira/gotree/v3"
)

// Render draws the index as a text tree, one branch per interface language.
// depth limits how many node levels are drawn below each language; zero means unlimited.
func Render(label string, idx *Index, depth int) string {
	if idx.SchemaVersion != nil {
		label = fmt.Sprintf("%s (schema %s)", label, idx.SchemaVersion)
	}
	root := gotree.New(label)
	for _, lang := range idx.Languages() {
		branch := root.Add(lang)
		addNodes(branch, idx.InterfaceLanguages[lang], depth, 1)
	}
	return root.Print()
}

func addNodes(parent gotree.Tree, nodes []Node, maxDepth, level int) {
	for _, n := range nodes {
		child := parent.Add(nodeLabel(n))
		if maxDepth > 0 && level >= maxDepth {
			continue
		}
		addNodes(child, n.Children, maxDepth, level+1)
	}
}

func nodeLabel(n Node) string {
	label := n.Title
	if label == "" {
		label = "(untitled)"
	}
	if n.Type != "" {
		label += " [" + string(n.Type) + "]"
	}
	if n.Path != "" {
		label += " " + n.Path
	}
	return label
}
