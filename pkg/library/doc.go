// Package library persists the sermon library on the filesystem: one
// Markdown file per sermon with YAML frontmatter and the plain
// transcript as its body, plus a JSON sidecar holding the full
// versioned document snapshot. Every mutation is committed to git so
// the library carries its own history.
//
// The store also watches the library directory for external changes
// (a sync client, another editor) and emits events for them while
// suppressing echoes of its own writes.
package library
