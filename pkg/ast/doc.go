// Package ast defines the document tree that is the single source of
// truth for a transcribed sermon document.
//
// A document is a tree of Nodes discriminated by Kind (root, paragraph,
// heading, text, passage). Node identity is stable: an id assigned at
// creation survives edits, re-renderings and round-trips through the
// rich-text bridge. The package also builds the derived views keyed off
// a root: the NodeIndex (id → node lookup), the PassageIndex (flat list
// of quoted passages in reading order) and the Extracted quote cache.
// All derived views are pure functions of the root and are rebuilt
// together whenever the root is replaced.
package ast
