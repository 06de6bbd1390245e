package richtext

import (
	"fmt"

	"github.com/homiletic/scribe/pkg/ast"
)

// FromAST converts a document tree into the editor's native view tree.
// Each AST node maps to the nearest view equivalent, with the node id
// embedded as a view attribute (opts.PreserveIDs) and passage metadata
// embedded as attributes on the passage view node (opts.IncludeMetadata).
func FromAST(root *ast.Node, opts Options) (*Node, error) {
	if root == nil || root.Kind != ast.KindRoot {
		return nil, fmt.Errorf("%w: expected a root node", ErrConversion)
	}
	return encodeNode(root, opts)
}

func encodeNode(n *ast.Node, opts Options) (*Node, error) {
	var view *Node

	switch n.Kind {
	case ast.KindRoot:
		view = &Node{Type: TypeDoc, Attrs: map[string]any{}}
		if opts.IncludeMetadata && n.Doc != nil {
			if n.Doc.Title != "" {
				view.Attrs["title"] = n.Doc.Title
			}
			if n.Doc.Speaker != "" {
				view.Attrs["speaker"] = n.Doc.Speaker
			}
			if n.Doc.PrimaryReference != "" {
				view.Attrs["primaryReference"] = n.Doc.PrimaryReference
			}
			if len(n.Doc.Tags) > 0 {
				view.Attrs["tags"] = append([]string(nil), n.Doc.Tags...)
			}
		}
	case ast.KindParagraph:
		view = &Node{Type: TypeParagraph, Attrs: map[string]any{}}
	case ast.KindHeading:
		view = &Node{Type: TypeHeading, Attrs: map[string]any{"level": n.Level}}
	case ast.KindText:
		// Text leaves carry no attributes in the view schema; identity
		// is recovered positionally through the parent on the way back.
		return &Node{Type: TypeText, Text: n.Text}, nil
	case ast.KindPassage:
		view = &Node{Type: TypePassage, Attrs: map[string]any{}}
		if ref := n.Ref; ref != nil {
			if display := ast.FormatReference(ref); display != "" {
				view.Attrs["reference"] = display
			}
			if opts.IncludeMetadata {
				encodeRef(view.Attrs, ref, opts.IncludeInterjections)
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown node kind %q", ErrConversion, n.Kind)
	}

	if opts.PreserveIDs {
		view.Attrs[AttrNodeID] = n.ID
	}
	for _, child := range n.Children {
		encoded, err := encodeNode(child, opts)
		if err != nil {
			return nil, err
		}
		view.Content = append(view.Content, encoded)
	}
	return view, nil
}

func encodeRef(attrs map[string]any, ref *ast.PassageRef, interjections bool) {
	if ref.Normalized != "" {
		attrs["normalized"] = ref.Normalized
	}
	if ref.Book != "" {
		attrs["book"] = ref.Book
	}
	if ref.Chapter > 0 {
		attrs["chapter"] = ref.Chapter
	}
	if ref.VerseStart > 0 {
		attrs["verseStart"] = ref.VerseStart
	}
	if ref.VerseEnd > 0 {
		attrs["verseEnd"] = ref.VerseEnd
	}
	if ref.NonBiblical {
		attrs["nonBiblical"] = true
	}
	if ref.Verified {
		attrs["verified"] = true
	}
	if ref.StartChar > 0 {
		attrs["startChar"] = ref.StartChar
	}
	if ref.EndChar > 0 {
		attrs["endChar"] = ref.EndChar
	}
	if ref.OriginalText != "" {
		attrs["originalText"] = ref.OriginalText
	}
	if interjections && len(ref.Interjections) > 0 {
		list := make([]any, len(ref.Interjections))
		for i, ij := range ref.Interjections {
			list[i] = map[string]any{"offset": ij.Offset, "text": ij.Text}
		}
		attrs["interjections"] = list
	}
}

// ToAST converts an editor view tree back into a document tree.
//
// When hint is supplied, identity is preserved across the two
// independently evolving representations: a view node whose embedded id
// matches a node in the hint keeps that id, and text leaves under a
// matched parent are re-keyed positionally. View nodes with no matching
// hint id are treated as newly inserted and receive fresh ids. Without
// a hint, embedded ids are trusted as-is.
func ToAST(doc *Node, opts Options, hint *ast.Node) (*ast.Node, error) {
	if doc == nil || doc.Type != TypeDoc {
		return nil, fmt.Errorf("%w: expected a %q view node", ErrConversion, TypeDoc)
	}
	var hintIdx ast.NodeIndex
	if hint != nil {
		hintIdx = ast.BuildNodeIndex(hint)
	}
	return decodeNode(doc, opts, hintIdx)
}

func decodeNode(view *Node, opts Options, hintIdx ast.NodeIndex) (*ast.Node, error) {
	n := &ast.Node{}

	switch view.Type {
	case TypeDoc:
		n.Kind = ast.KindRoot
		n.Doc = &ast.DocMeta{
			Title:            attrString(view.Attrs, "title"),
			Speaker:          attrString(view.Attrs, "speaker"),
			PrimaryReference: attrString(view.Attrs, "primaryReference"),
		}
		if tags, ok := view.Attrs["tags"].([]any); ok {
			for _, tag := range tags {
				if s, ok := tag.(string); ok {
					n.Doc.Tags = append(n.Doc.Tags, s)
				}
			}
		} else if tags, ok := view.Attrs["tags"].([]string); ok {
			n.Doc.Tags = append([]string(nil), tags...)
		}
	case TypeParagraph:
		n.Kind = ast.KindParagraph
	case TypeHeading:
		n.Kind = ast.KindHeading
		n.Level = attrInt(view.Attrs, "level")
		if n.Level < 1 {
			n.Level = 1
		}
	case TypeText:
		n.Kind = ast.KindText
		n.Text = view.Text
	case TypePassage:
		n.Kind = ast.KindPassage
		n.Ref = decodeRef(view.Attrs)
	default:
		return nil, fmt.Errorf("%w: unknown view node type %q", ErrConversion, view.Type)
	}

	n.ID = resolveID(view, hintIdx)

	// Positional re-keying of text leaves under a matched parent.
	var hintTexts []*ast.Node
	if hintIdx != nil {
		if hintNode := hintIdx.Get(n.ID); hintNode != nil {
			for _, child := range hintNode.Children {
				if child.Kind == ast.KindText {
					hintTexts = append(hintTexts, child)
				}
			}
		}
	}

	textSeen := 0
	for _, child := range view.Content {
		decoded, err := decodeNode(child, opts, hintIdx)
		if err != nil {
			return nil, err
		}
		if decoded.Kind == ast.KindText {
			if textSeen < len(hintTexts) {
				decoded.ID = hintTexts[textSeen].ID
			}
			textSeen++
		}
		n.Children = append(n.Children, decoded)
	}
	return n, nil
}

func resolveID(view *Node, hintIdx ast.NodeIndex) string {
	embedded := attrString(view.Attrs, AttrNodeID)
	if embedded == "" {
		return ast.NewID()
	}
	if hintIdx == nil {
		return embedded
	}
	if hintIdx.Has(embedded) {
		return embedded
	}
	return ast.NewID()
}

func decodeRef(attrs map[string]any) *ast.PassageRef {
	ref := &ast.PassageRef{
		Normalized:   attrString(attrs, "normalized"),
		Book:         attrString(attrs, "book"),
		Chapter:      attrInt(attrs, "chapter"),
		VerseStart:   attrInt(attrs, "verseStart"),
		VerseEnd:     attrInt(attrs, "verseEnd"),
		NonBiblical:  attrBool(attrs, "nonBiblical"),
		Verified:     attrBool(attrs, "verified"),
		StartChar:    attrInt(attrs, "startChar"),
		EndChar:      attrInt(attrs, "endChar"),
		OriginalText: attrString(attrs, "originalText"),
	}
	if ref.Normalized == "" && ref.Book == "" && ref.OriginalText == "" {
		// The view may only carry the display reference.
		ref.Normalized = attrString(attrs, "reference")
	}
	if list, ok := attrs["interjections"].([]any); ok {
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			ref.Interjections = append(ref.Interjections, ast.Interjection{
				Offset: attrInt(m, "offset"),
				Text:   attrString(m, "text"),
			})
		}
	}
	return ref
}
