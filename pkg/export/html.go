package export

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/homiletic/scribe/pkg/ast"
)

// ErrUnsupportedFormat indicates a format tag outside the known set.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// Format tags the target the host-side writer converts the rendered
// HTML into.
type Format string

const (
	FormatTxt  Format = "txt"
	FormatMd   Format = "md"
	FormatDocx Format = "docx"
	FormatPdf  Format = "pdf"
)

// ParseFormat validates a format tag.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTxt, FormatMd, FormatDocx, FormatPdf:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Request describes one export job.
type Request struct {
	Format Format `json:"format"`
	HTML   string `json:"html"`
	Title  string `json:"title,omitempty"`
}

// NewRequest renders the tree and tags it with a validated format.
func NewRequest(root *ast.Node, format string) (*Request, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	rendered, err := RenderHTML(root)
	if err != nil {
		return nil, err
	}
	title := ""
	if root.Doc != nil {
		title = root.Doc.Title
	}
	return &Request{Format: f, HTML: rendered, Title: title}, nil
}

// RenderHTML renders the tree to an HTML fragment. Children render in
// document order, text is escaped, and passages become blockquotes
// with a reference header.
func RenderHTML(root *ast.Node) (string, error) {
	if root == nil || root.Kind != ast.KindRoot {
		return "", errors.New("export: root node required")
	}

	var b strings.Builder
	for _, child := range root.Children {
		if err := renderNode(&b, child); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func renderNode(b *strings.Builder, n *ast.Node) error {
	switch n.Kind {
	case ast.KindHeading:
		level := n.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		fmt.Fprintf(b, "<h%d>%s</h%d>\n", level, html.EscapeString(n.PlainText()), level)

	case ast.KindParagraph:
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(n.PlainText()))
		b.WriteString("</p>\n")

	case ast.KindPassage:
		b.WriteString("<blockquote class=\"passage\">")
		if ref := ast.FormatReference(n.Ref); ref != "" {
			fmt.Fprintf(b, "<cite>%s</cite>", html.EscapeString(ref))
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(n.PlainText()))
		b.WriteString("</p></blockquote>\n")

	case ast.KindText:
		b.WriteString(html.EscapeString(n.Text))

	default:
		return fmt.Errorf("export: unexpected node kind %q", n.Kind)
	}
	return nil
}
