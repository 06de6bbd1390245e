package docstate

import "errors"

// Error taxonomy for document mutations. Mutator operations return
// these instead of panicking; a failed operation leaves the previous
// state untouched.
var (
	// ErrNothingToUndo indicates an empty undo stack.
	ErrNothingToUndo = errors.New("docstate: nothing to undo")

	// ErrNothingToRedo indicates an empty redo stack.
	ErrNothingToRedo = errors.New("docstate: nothing to redo")

	// ErrInvalidBoundary indicates a boundary edit with out-of-range
	// offsets or non-contiguous paragraphs.
	ErrInvalidBoundary = errors.New("docstate: invalid boundary")

	// ErrNotFound indicates a target node id missing from the tree.
	ErrNotFound = errors.New("docstate: node not found")

	// ErrIdentityConflict indicates two nodes resolving to the same id
	// after a merge. It must not occur in normal operation.
	ErrIdentityConflict = errors.New("docstate: identity conflict")
)
