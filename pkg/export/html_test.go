package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homiletic/scribe/pkg/ast"
)

func sermonTree() *ast.Node {
	root := ast.NewRoot()
	root.Doc.Title = "On Grace"
	root.Children = []*ast.Node{
		ast.NewHeading(2, "Reading"),
		ast.NewParagraph("Turn with me to John <the gospel>."),
		ast.NewPassage(&ast.PassageRef{Book: "John", Chapter: 3, VerseStart: 16},
			"For God so loved the world"),
	}
	return root
}

func TestRenderHTML(t *testing.T) {
	got, err := RenderHTML(sermonTree())
	require.NoError(t, err)

	want := "<h2>Reading</h2>\n" +
		"<p>Turn with me to John &lt;the gospel&gt;.</p>\n" +
		"<blockquote class=\"passage\"><cite>John 3:16</cite>" +
		"<p>For God so loved the world</p></blockquote>\n"
	assert.Equal(t, want, got)
}

func TestRenderHTMLIsDeterministic(t *testing.T) {
	tree := sermonTree()
	first, err := RenderHTML(tree)
	require.NoError(t, err)
	second, err := RenderHTML(tree)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderHTMLRequiresRoot(t *testing.T) {
	_, err := RenderHTML(nil)
	assert.Error(t, err)
	_, err = RenderHTML(ast.NewParagraph("loose"))
	assert.Error(t, err)
}

func TestRenderHTMLClampsHeadingLevels(t *testing.T) {
	root := ast.NewRoot()
	root.Children = []*ast.Node{ast.NewHeading(9, "Deep")}
	got, err := RenderHTML(root)
	require.NoError(t, err)
	assert.Equal(t, "<h6>Deep</h6>\n", got)
}

func TestParseFormat(t *testing.T) {
	for _, ok := range []string{"txt", "md", "docx", "pdf"} {
		f, err := ParseFormat(ok)
		require.NoError(t, err)
		assert.Equal(t, Format(ok), f)
	}

	_, err := ParseFormat("epub")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest(sermonTree(), "md")
	require.NoError(t, err)
	assert.Equal(t, FormatMd, req.Format)
	assert.Equal(t, "On Grace", req.Title)
	assert.Contains(t, req.HTML, "<h2>Reading</h2>")

	_, err = NewRequest(sermonTree(), "epub")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
