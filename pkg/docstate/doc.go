// Package docstate implements the event-sourced document state engine.
//
// A State is an immutable, versioned container around one ast tree.
// Mutations never modify a State in place: each accepted edit returns a
// successor State (version+1) together with an invertible Event whose
// Before/After snapshots satisfy the undo contract: replaying After
// from version-1 reproduces the new root, and replaying Before
// reproduces the old one. Undo and redo walk those snapshots, moving event ids
// between the two stacks while the event log stays append-only for
// audit.
//
// All operations are pure (old state in, new state out) so the single
// owning controller can swap its current-state reference atomically;
// no locking is needed because edit traffic is interleaved, never
// parallel, per document.
package docstate
