package richtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homiletic/scribe/pkg/ast"
)

func sermonRoot() *ast.Node {
	root := ast.NewRoot()
	root.Doc.Title = "On Grace"
	root.Doc.Speaker = "J. Doe"
	root.Doc.Tags = []string{"grace"}
	root.Children = []*ast.Node{
		ast.NewHeading(2, "Reading"),
		ast.NewParagraph("Turn with me to John."),
		ast.NewPassage(&ast.PassageRef{
			Book: "John", Chapter: 3, VerseStart: 16, VerseEnd: 17,
			Interjections: []ast.Interjection{{Offset: 4, Text: "amen"}},
		}, "For God so loved the world"),
	}
	return root
}

func TestFromASTMapsEveryKind(t *testing.T) {
	root := sermonRoot()
	doc, err := FromAST(root, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, TypeDoc, doc.Type)
	assert.Equal(t, root.ID, doc.Attrs[AttrNodeID])
	assert.Equal(t, "On Grace", doc.Attrs["title"])
	require.Len(t, doc.Content, 3)
	assert.Equal(t, TypeHeading, doc.Content[0].Type)
	assert.Equal(t, 2, doc.Content[0].Attrs["level"])
	assert.Equal(t, TypeParagraph, doc.Content[1].Type)
	assert.Equal(t, TypePassage, doc.Content[2].Type)
	assert.Equal(t, "John 3:16-17", doc.Content[2].Attrs["reference"])

	text := doc.Content[1].Content[0]
	assert.Equal(t, TypeText, text.Type)
	assert.Equal(t, "Turn with me to John.", text.Text)
	assert.Nil(t, text.Attrs, "text leaves carry no attributes")
}

func TestFromASTRejectsNonRoot(t *testing.T) {
	_, err := FromAST(ast.NewParagraph("loose"), DefaultOptions())
	assert.ErrorIs(t, err, ErrConversion)
}

func TestRoundTripPreservesIdentityAndContent(t *testing.T) {
	root := sermonRoot()
	doc, err := FromAST(root, DefaultOptions())
	require.NoError(t, err)

	back, err := ToAST(doc, DefaultOptions(), root)
	require.NoError(t, err)
	assert.True(t, root.Equal(back), "lossless round trip, ids included")
}

func TestRoundTripWithoutHintTrustsEmbeddedIDs(t *testing.T) {
	root := sermonRoot()
	doc, err := FromAST(root, DefaultOptions())
	require.NoError(t, err)

	back, err := ToAST(doc, DefaultOptions(), nil)
	require.NoError(t, err)
	assert.True(t, root.Equal(back))
}

func TestToASTAssignsFreshIDsToInsertedNodes(t *testing.T) {
	root := sermonRoot()
	doc, err := FromAST(root, DefaultOptions())
	require.NoError(t, err)

	// The editor inserts a new paragraph with no embedded id.
	doc.Content = append(doc.Content, &Node{
		Type:    TypeParagraph,
		Content: []*Node{{Type: TypeText, Text: "fresh thought"}},
	})

	back, err := ToAST(doc, DefaultOptions(), root)
	require.NoError(t, err)
	require.Len(t, back.Children, 4)

	inserted := back.Children[3]
	assert.NotEmpty(t, inserted.ID)
	assert.False(t, ast.BuildNodeIndex(root).Has(inserted.ID), "inserted node gets a fresh id")
	// Existing nodes keep theirs.
	assert.Equal(t, root.Children[0].ID, back.Children[0].ID)
}

func TestToASTRekeysUnknownEmbeddedIDs(t *testing.T) {
	root := sermonRoot()
	doc, err := FromAST(root, DefaultOptions())
	require.NoError(t, err)

	// A stale id from another document must not leak through.
	doc.Content[1].Attrs[AttrNodeID] = "stale-foreign-id"

	back, err := ToAST(doc, DefaultOptions(), root)
	require.NoError(t, err)
	assert.NotEqual(t, "stale-foreign-id", back.Children[1].ID)
}

func TestToASTRejectsUnknownType(t *testing.T) {
	doc := &Node{Type: TypeDoc, Content: []*Node{{Type: "video"}}}
	_, err := ToAST(doc, DefaultOptions(), nil)
	assert.ErrorIs(t, err, ErrConversion)
}

func TestToASTRejectsNonDoc(t *testing.T) {
	_, err := ToAST(&Node{Type: TypeParagraph}, DefaultOptions(), nil)
	assert.ErrorIs(t, err, ErrConversion)
}

func TestPassageMetadataRoundTrip(t *testing.T) {
	root := sermonRoot()
	doc, err := FromAST(root, DefaultOptions())
	require.NoError(t, err)

	back, err := ToAST(doc, DefaultOptions(), root)
	require.NoError(t, err)

	ref := back.Children[2].Ref
	require.NotNil(t, ref)
	assert.Equal(t, "John", ref.Book)
	assert.Equal(t, 3, ref.Chapter)
	assert.Equal(t, 16, ref.VerseStart)
	assert.Equal(t, 17, ref.VerseEnd)
	require.Len(t, ref.Interjections, 1)
	assert.Equal(t, ast.Interjection{Offset: 4, Text: "amen"}, ref.Interjections[0])
}
