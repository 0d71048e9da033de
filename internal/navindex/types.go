package navindex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// NodeType is the kind of a navigation node ("module", "article", "class", ...).
type NodeType string

// TypeModule marks a node linking to a module root. Synthesized links use it.
const TypeModule NodeType = "module"

// SchemaVersion is the index format version.
type SchemaVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Index is the navigation index document of one archive.
type Index struct {
	IncludedArchiveIdentifiers []string          `json:"includedArchiveIdentifiers,omitempty"`
	InterfaceLanguages         map[string]Forest `json:"interfaceLanguages"`
	SchemaVersion              *SchemaVersion    `json:"schemaVersion,omitempty"`
}

// Forest is the ordered list of top-level nodes for one interface language.
type Forest []Node

// Node is one entry of the navigation tree.
type Node struct {
	Title    string
	Type     NodeType
	Path     string
	Children []Node
	// Extra carries fields not modeled above, keyed by their JSON name.
	Extra map[string]json.RawMessage
}

var knownNodeKeys = []string{"title", "type", "path", "children"}

// HasChildren reports whether the node carries a children list (possibly empty).
func (n Node) HasChildren() bool { return n.Children != nil }

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := Node{Title: n.Title, Type: n.Type, Path: n.Path}
	if n.Children != nil {
		out.Children = make([]Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	if n.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(n.Extra))
		for k, v := range n.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// Clone returns a deep copy of the forest. A nil forest stays nil.
func (f Forest) Clone() Forest {
	if f == nil {
		return nil
	}
	out := make(Forest, len(f))
	for i, n := range f {
		out[i] = n.Clone()
	}
	return out
}

// Clone returns a deep copy of the index.
func (idx *Index) Clone() *Index {
	if idx == nil {
		return nil
	}
	out := &Index{}
	if idx.IncludedArchiveIdentifiers != nil {
		out.IncludedArchiveIdentifiers = append([]string(nil), idx.IncludedArchiveIdentifiers...)
	}
	if idx.SchemaVersion != nil {
		v := *idx.SchemaVersion
		out.SchemaVersion = &v
	}
	if idx.InterfaceLanguages != nil {
		out.InterfaceLanguages = make(map[string]Forest, len(idx.InterfaceLanguages))
		for lang, forest := range idx.InterfaceLanguages {
			out.InterfaceLanguages[lang] = forest.Clone()
		}
	}
	return out
}

// Languages returns the interface languages of the index in sorted order.
func (idx *Index) Languages() []string {
	langs := make([]string, 0, len(idx.InterfaceLanguages))
	for lang := range idx.InterfaceLanguages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// UnmarshalJSON decodes a node, keeping unknown fields in Extra.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Node{}
	if v, ok := raw["title"]; ok {
		if err := json.Unmarshal(v, &n.Title); err != nil {
			return fmt.Errorf("node title: %w", err)
		}
	}
	if v, ok := raw["type"]; ok {
		if err := json.Unmarshal(v, &n.Type); err != nil {
			return fmt.Errorf("node type: %w", err)
		}
	}
	if v, ok := raw["path"]; ok {
		if err := json.Unmarshal(v, &n.Path); err != nil {
			return fmt.Errorf("node path: %w", err)
		}
	}
	if v, ok := raw["children"]; ok && string(v) != "null" {
		children := []Node{}
		if err := json.Unmarshal(v, &children); err != nil {
			return fmt.Errorf("node %q children: %w", n.Title, err)
		}
		n.Children = children
	}
	for _, k := range knownNodeKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		n.Extra = raw
	}
	return nil
}

// MarshalJSON encodes a node. Empty strings are omitted; Children is written
// whenever the node has a children list, even an empty one.
func (n Node) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Extra)+4)
	for k, v := range n.Extra {
		out[k] = v
	}
	if n.Title != "" {
		out["title"] = n.Title
	}
	if n.Type != "" {
		out["type"] = n.Type
	}
	if n.Path != "" {
		out["path"] = n.Path
	}
	if n.Children != nil {
		out["children"] = n.Children
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
