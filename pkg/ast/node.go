package ast

import (
	"github.com/google/uuid"
)

// NodeKind discriminates the variants of a Node.
type NodeKind string

const (
	KindRoot      NodeKind = "root"
	KindParagraph NodeKind = "paragraph"
	KindHeading   NodeKind = "heading"
	KindText      NodeKind = "text"
	KindPassage   NodeKind = "passage"
)

// Node is a single element of the document tree.
//
// It is a tagged union in the style of yaml.v3's Node: Kind selects the
// variant, and only the fields relevant to that variant are populated.
// Text carries leaf content (KindText), Level the heading depth
// (KindHeading), Ref the passage metadata (KindPassage) and Doc the
// document-level metadata (KindRoot).
type Node struct {
	ID       string      `json:"id"`
	Kind     NodeKind    `json:"kind"`
	Children []*Node     `json:"children,omitempty"`
	Text     string      `json:"text,omitempty"`
	Level    int         `json:"level,omitempty"`
	Ref      *PassageRef `json:"ref,omitempty"`
	Doc      *DocMeta    `json:"doc,omitempty"`
}

// DocMeta is the document-level metadata carried by the root node.
type DocMeta struct {
	Title            string   `json:"title,omitempty"`
	Speaker          string   `json:"speaker,omitempty"`
	PrimaryReference string   `json:"primaryReference,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

// NewID generates a fresh node identifier.
func NewID() string {
	return uuid.NewString()
}

// NewRoot creates an empty document root with a fresh id.
func NewRoot() *Node {
	return &Node{
		ID:   NewID(),
		Kind: KindRoot,
		Doc:  &DocMeta{},
	}
}

// NewText creates a text leaf.
func NewText(text string) *Node {
	return &Node{ID: NewID(), Kind: KindText, Text: text}
}

// NewParagraph creates a paragraph containing a single text leaf.
func NewParagraph(text string) *Node {
	return &Node{ID: NewID(), Kind: KindParagraph, Children: []*Node{NewText(text)}}
}

// NewHeading creates a heading of the given level containing text.
func NewHeading(level int, text string) *Node {
	if level < 1 {
		level = 1
	}
	return &Node{ID: NewID(), Kind: KindHeading, Level: level, Children: []*Node{NewText(text)}}
}

// NewPassage creates a passage block quoting text with the given reference.
func NewPassage(ref *PassageRef, text string) *Node {
	return &Node{ID: NewID(), Kind: KindPassage, Ref: ref, Children: []*Node{NewText(text)}}
}

// IsLeaf reports whether the node carries content directly instead of children.
func (n *Node) IsLeaf() bool {
	return n.Kind == KindText
}

// Clone returns a deep copy of the node and its subtree.
// Ids are preserved; the copy shares no pointers with the original.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		ID:    n.ID,
		Kind:  n.Kind,
		Text:  n.Text,
		Level: n.Level,
	}
	if n.Ref != nil {
		c.Ref = n.Ref.Clone()
	}
	if n.Doc != nil {
		meta := *n.Doc
		if n.Doc.Tags != nil {
			meta.Tags = append([]string(nil), n.Doc.Tags...)
		}
		c.Doc = &meta
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// Equal reports structural equality of two subtrees, ids included.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.ID != other.ID || n.Kind != other.Kind || n.Text != other.Text || n.Level != other.Level {
		return false
	}
	if (n.Ref == nil) != (other.Ref == nil) {
		return false
	}
	if n.Ref != nil && !n.Ref.Equal(other.Ref) {
		return false
	}
	if (n.Doc == nil) != (other.Doc == nil) {
		return false
	}
	if n.Doc != nil {
		if n.Doc.Title != other.Doc.Title || n.Doc.Speaker != other.Doc.Speaker ||
			n.Doc.PrimaryReference != other.Doc.PrimaryReference {
			return false
		}
		if len(n.Doc.Tags) != len(other.Doc.Tags) {
			return false
		}
		for i, tag := range n.Doc.Tags {
			if tag != other.Doc.Tags[i] {
				return false
			}
		}
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	for i, child := range n.Children {
		if !child.Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// Walk visits the subtree in pre-order (document reading order).
// The callback returns false to stop the traversal.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// PlainText concatenates the textual leaf content of the subtree,
// recursing through containers and skipping non-text leaves.
func (n *Node) PlainText() string {
	var out []byte
	n.Walk(func(node *Node) bool {
		if node.Kind == KindText {
			out = append(out, node.Text...)
		}
		return true
	})
	return string(out)
}
