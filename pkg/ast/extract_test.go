package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatReference(t *testing.T) {
	tests := []struct {
		name string
		ref  *PassageRef
		want string
	}{
		{"nil ref", nil, ""},
		{"normalized wins", &PassageRef{Normalized: "Jn 3:16", Book: "John", Chapter: 3, VerseStart: 16}, "Jn 3:16"},
		{"book chapter verse", &PassageRef{Book: "John", Chapter: 3, VerseStart: 16}, "John 3:16"},
		{"verse range", &PassageRef{Book: "John", Chapter: 3, VerseStart: 16, VerseEnd: 17}, "John 3:16-17"},
		{"range collapsed when equal", &PassageRef{Book: "John", Chapter: 3, VerseStart: 16, VerseEnd: 16}, "John 3:16"},
		{"chapter only", &PassageRef{Book: "Psalm", Chapter: 23}, "Psalm 23"},
		{"original text fallback", &PassageRef{OriginalText: "see the gospel"}, "see the gospel"},
		{"absent", &PassageRef{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatReference(tt.ref))
		})
	}
}

func TestParseReference(t *testing.T) {
	ref, ok := ParseReference("John 3:16-17")
	require.True(t, ok)
	assert.Equal(t, "John", ref.Book)
	assert.Equal(t, 3, ref.Chapter)
	assert.Equal(t, 16, ref.VerseStart)
	assert.Equal(t, 17, ref.VerseEnd)
	assert.Equal(t, "John 3:16-17", ref.Normalized)

	ref, ok = ParseReference("1 John 4:8")
	require.True(t, ok)
	assert.Equal(t, "1 John", ref.Book)
	assert.Equal(t, 4, ref.Chapter)
	assert.Equal(t, 8, ref.VerseStart)
	assert.Zero(t, ref.VerseEnd)

	_, ok = ParseReference("not a reference")
	assert.False(t, ok)

	_, ok = ParseReference("John 3:17-16")
	assert.False(t, ok, "descending range is rejected")
}

func TestBuildPassageIndexPreOrder(t *testing.T) {
	root := sermonFixture()
	second := NewPassage(&PassageRef{Book: "Romans", Chapter: 8, VerseStart: 28}, "all things work together")
	root.Children = append(root.Children, second)

	idx := BuildNodeIndex(root)
	passages := BuildPassageIndex(root, idx)

	require.Len(t, passages, 2)
	assert.Equal(t, "John 3:16", passages[0].Reference)
	assert.Equal(t, "For God so loved the world", passages[0].Text)
	assert.Equal(t, "Romans 8:28", passages[1].Reference)
}

func TestBuildPassageIndexIsIdempotent(t *testing.T) {
	root := sermonFixture()
	idx := BuildNodeIndex(root)

	first := BuildPassageIndex(root, idx)
	second := BuildPassageIndex(root, idx)
	assert.Equal(t, first, second)

	extractedFirst := BuildExtracted(root, idx)
	extractedSecond := BuildExtracted(root, idx)
	assert.Equal(t, extractedFirst, extractedSecond)
}

func TestBuildExtractedCarriesFlags(t *testing.T) {
	root := sermonFixture()
	passage := root.Children[2]
	passage.Ref.Verified = true

	idx := BuildNodeIndex(root)
	extracted := BuildExtracted(root, idx)

	require.Len(t, extracted.Quotes, 1)
	quote := extracted.Quotes[0]
	assert.Equal(t, passage.ID, quote.NodeID)
	assert.True(t, quote.Verified)
	assert.False(t, quote.NonBiblical)
	assert.Equal(t, "For God so loved the world", quote.DisplayText)
}

func TestBuildExtractedEmptyTree(t *testing.T) {
	root := NewRoot()
	idx := BuildNodeIndex(root)
	assert.Empty(t, BuildPassageIndex(root, idx))
	assert.Empty(t, BuildExtracted(root, idx).Quotes)
}
