package session

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/homiletic/scribe/pkg/ast"
)

// RootFromText builds a document tree from a plain transcript:
// blank-line separated blocks become paragraphs.
func RootFromText(text string) *ast.Node {
	root := ast.NewRoot()
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		block = strings.ReplaceAll(block, "\n", " ")
		root.Children = append(root.Children, ast.NewParagraph(block))
	}
	return root
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives a library entry ID from a media file name. Falls
// back to a UUID when nothing survives sanitization.
func slugify(mediaPath string) string {
	base := filepath.Base(mediaPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	slug := slugPattern.ReplaceAllString(strings.ToLower(base), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return uuid.NewString()
	}
	return slug
}
