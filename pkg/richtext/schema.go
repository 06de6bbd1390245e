package richtext

import (
	"encoding/json"
	"errors"
)

// ErrConversion indicates the bridge failed to map a tree: malformed
// view payload or an unknown node type. Conversions never return a
// partially converted tree alongside this error.
var ErrConversion = errors.New("richtext: conversion failed")

// Node is one element of the editor's native document tree, the JSON
// shape rich-text editors exchange: a type tag, a free-form attribute
// map, child content and leaf text.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
}

// View node types produced and accepted by the bridge.
const (
	TypeDoc       = "doc"
	TypeParagraph = "paragraph"
	TypeHeading   = "heading"
	TypeText      = "text"
	TypePassage   = "passage"
)

// AttrNodeID is the view attribute carrying the AST node id, embedded
// so round-trips through the editor can recover identity.
const AttrNodeID = "nodeId"

// AttrSyncVersion is the view attribute stamped by the sync coordinator
// onto programmatic pushes, used to detect and drop stale payloads.
const AttrSyncVersion = "syncVersion"

// Options controls what the bridge embeds into the view tree.
type Options struct {
	PreserveIDs          bool
	IncludeMetadata      bool
	IncludeInterjections bool
}

// DefaultOptions embeds everything; lossless round-trips need all three.
func DefaultOptions() Options {
	return Options{PreserveIDs: true, IncludeMetadata: true, IncludeInterjections: true}
}

// Marshal serializes the view tree to its JSON wire form.
func (n *Node) Marshal() ([]byte, error) {
	return json.Marshal(n)
}

// attr accessors tolerate the loose typing of JSON-decoded attributes.

func attrString(attrs map[string]any, key string) string {
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}

func attrInt(attrs map[string]any, key string) int {
	switch v := attrs[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
	}
	return 0
}

func attrBool(attrs map[string]any, key string) bool {
	if v, ok := attrs[key].(bool); ok {
		return v
	}
	return false
}
