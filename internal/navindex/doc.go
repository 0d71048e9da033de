// Package navindex models the documentation compiler's navigation index
// (index/index.json) and merges the indexes of several modules into one.
//
// An Index holds one Forest per interface language. A Forest is an ordered
// list of top-level Nodes; each Node may carry an ordered children list.
// A nil Children slice means the node has no children list at all, while an
// empty non-nil slice is an explicit empty list. The distinction matters to
// Merge: only nodes that have a children list receive a back link.
//
// Fields the merge does not interpret (icons, beta/deprecated flags, ...)
// are preserved verbatim through Node.Extra.
package navindex
