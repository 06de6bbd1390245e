package docstate

import (
	"time"

	"github.com/homiletic/scribe/pkg/ast"
)

// State is the versioned container for one document: the root tree,
// its derived indices, the append-only event log and the undo/redo
// stacks. A State is immutable once created; every accepted mutation,
// undo or redo produces a replacement State. Exactly one State is live
// per document at a time, owned by the view-level controller.
type State struct {
	Version      int
	Root         *ast.Node
	Nodes        ast.NodeIndex
	Passages     ast.PassageIndex
	Extracted    ast.Extracted
	EventLog     []*Event
	UndoStack    []string // event ids eligible for inversion, oldest first
	RedoStack    []string
	CreatedAt    time.Time
	LastModified time.Time
}

// New creates a fresh State at version 0 with an empty event log.
// Used when a transcription completes or a saved document is reloaded.
func New(root *ast.Node) *State {
	if root == nil {
		root = ast.NewRoot()
	}
	now := time.Now().UTC()
	s := &State{
		Version:      0,
		Root:         root,
		EventLog:     []*Event{},
		UndoStack:    []string{},
		RedoStack:    []string{},
		CreatedAt:    now,
		LastModified: now,
	}
	s.rebuildIndices()
	return s
}

// rebuildIndices regenerates the node index, the passage index and the
// extracted cache from the current root. The three are always rebuilt
// together so no derived view can go stale independently.
func (s *State) rebuildIndices() {
	s.Nodes = ast.BuildNodeIndex(s.Root)
	s.Passages = ast.BuildPassageIndex(s.Root, s.Nodes)
	s.Extracted = ast.BuildExtracted(s.Root, s.Nodes)
}

// next prepares the successor State for a new root, carrying over the
// event log and stacks by copy. The caller finishes it by appending the
// event and adjusting the stacks.
func (s *State) next(root *ast.Node, version int) *State {
	n := &State{
		Version:      version,
		Root:         root,
		EventLog:     append([]*Event(nil), s.EventLog...),
		UndoStack:    append([]string(nil), s.UndoStack...),
		RedoStack:    append([]string(nil), s.RedoStack...),
		CreatedAt:    s.CreatedAt,
		LastModified: time.Now().UTC(),
	}
	n.rebuildIndices()
	return n
}

// findEvent looks up an event in the log by id.
func (s *State) findEvent(id string) *Event {
	for _, e := range s.EventLog {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// CanUndo reports whether an undo is available.
func (s *State) CanUndo() bool { return len(s.UndoStack) > 0 }

// CanRedo reports whether a redo is available.
func (s *State) CanRedo() bool { return len(s.RedoStack) > 0 }
