// Package reconcile keeps the two representations of an open document
// agreeing: the versioned AST held by the document engine and the
// rich-text document held by the editor view.
//
// A Coordinator owns the sync state for exactly one document. Edits
// observed in the view are debounced with last-write-wins coalescing
// before they reach the engine; AST changes that did not originate in
// the view are stamped with a monotonic sync version and pushed back
// into it behind an echo guard, so a programmatic update never loops
// back as a fresh local edit.
package reconcile
