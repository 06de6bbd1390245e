package docstate

import (
	"fmt"
	"unicode/utf8"

	"github.com/homiletic/scribe/pkg/ast"
)

// ApplyContentReplacement accepts a replacement root, typically the
// output of the rich-text bridge after a debounced local edit, and
// returns the successor State plus the ContentReplaced event recording
// the change.
//
// The incoming root may carry a different id than the current root when
// it was produced by an independent editor. Identity is stabilized by
// re-keying the incoming root to the current root's id at the mutation
// boundary, so historical references to the document stay valid.
func (s *State) ApplyContentReplacement(newRoot *ast.Node, actor Actor) (*State, *Event, error) {
	if newRoot == nil {
		return nil, nil, fmt.Errorf("%w: replacement root is nil", ErrNotFound)
	}

	stabilized := newRoot.Clone()
	stabilized.ID = s.Root.ID

	// The stabilized id must identify exactly one node in the new tree.
	seen := 0
	stabilized.Walk(func(n *ast.Node) bool {
		if n.ID == stabilized.ID {
			seen++
		}
		return true
	})
	if seen > 1 {
		return nil, nil, fmt.Errorf("%w: root id %s duplicated in replacement tree", ErrIdentityConflict, stabilized.ID)
	}

	event := newEvent(ContentReplaced, s.Root.ID, s.Root, stabilized, s.Version+1, actor)
	next := s.next(stabilized, s.Version+1)
	next.EventLog = append(next.EventLog, event)
	next.UndoStack = append(next.UndoStack, event.ID)
	next.RedoStack = []string{}
	return next, event, nil
}

// ApplyBoundaryChange edits the boundary of the passage node quoteID:
// the quoted text becomes newContent with the reference offsets set to
// [newStart, newEnd), and the sibling paragraphs listed in
// paragraphsToMerge (whose text the caller has already folded into
// newContent) are removed from the tree.
//
// It fails with ErrInvalidBoundary when the offsets are out of range
// for newContent or the paragraphs are not contiguous siblings of the
// passage. On failure the receiver State remains the live state.
func (s *State) ApplyBoundaryChange(quoteID string, newStart, newEnd int, newContent string, paragraphsToMerge []string, actor Actor) (*State, *Event, error) {
	quote := s.Nodes.Get(quoteID)
	if quote == nil || quote.Kind != ast.KindPassage {
		return nil, nil, fmt.Errorf("%w: passage %s", ErrNotFound, quoteID)
	}

	length := utf8.RuneCountInString(newContent)
	if newStart < 0 || newEnd < newStart || newEnd > length {
		return nil, nil, fmt.Errorf("%w: offsets [%d,%d) out of range for %d characters", ErrInvalidBoundary, newStart, newEnd, length)
	}

	parents := parentMap(s.Root)
	parent := parents[quoteID]
	if parent == nil {
		return nil, nil, fmt.Errorf("%w: passage %s has no parent", ErrInvalidBoundary, quoteID)
	}

	// The passage and every paragraph to merge must form one contiguous
	// run of the same parent's children.
	positions := map[string]int{}
	for i, child := range parent.Children {
		positions[child.ID] = i
	}
	lo, hi := positions[quoteID], positions[quoteID]
	for _, id := range paragraphsToMerge {
		node := s.Nodes.Get(id)
		if node == nil || node.Kind != ast.KindParagraph {
			return nil, nil, fmt.Errorf("%w: %s is not a paragraph", ErrInvalidBoundary, id)
		}
		pos, ok := positions[id]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s is not a sibling of passage %s", ErrInvalidBoundary, id, quoteID)
		}
		if pos < lo {
			lo = pos
		}
		if pos > hi {
			hi = pos
		}
	}
	if hi-lo != len(paragraphsToMerge) {
		return nil, nil, fmt.Errorf("%w: paragraphs are not contiguous with passage %s", ErrInvalidBoundary, quoteID)
	}

	merged := map[string]bool{}
	for _, id := range paragraphsToMerge {
		merged[id] = true
	}

	newRoot := s.Root.Clone()
	newIdx := ast.BuildNodeIndex(newRoot)
	newQuote := newIdx.Get(quoteID)
	newParent := newIdx.Get(parent.ID)

	// Replace the quoted text, keeping the leaf id stable when one exists.
	leafID := ast.NewID()
	for _, child := range newQuote.Children {
		if child.Kind == ast.KindText {
			leafID = child.ID
			break
		}
	}
	newQuote.Children = []*ast.Node{{ID: leafID, Kind: ast.KindText, Text: newContent}}
	if newQuote.Ref == nil {
		newQuote.Ref = &ast.PassageRef{}
	}
	newQuote.Ref.StartChar = newStart
	newQuote.Ref.EndChar = newEnd

	kept := newParent.Children[:0]
	for _, child := range newParent.Children {
		if !merged[child.ID] {
			kept = append(kept, child)
		}
	}
	newParent.Children = kept

	event := newEvent(BoundaryChanged, quoteID, s.Root, newRoot, s.Version+1, actor)
	next := s.next(newRoot, s.Version+1)
	next.EventLog = append(next.EventLog, event)
	next.UndoStack = append(next.UndoStack, event.ID)
	next.RedoStack = []string{}
	return next, event, nil
}

// UpdateDocumentMeta replaces the document-level metadata on the root,
// copy-on-write, recording a MetadataChanged event.
func (s *State) UpdateDocumentMeta(meta ast.DocMeta, actor Actor) (*State, *Event, error) {
	newRoot := s.Root.Clone()
	copied := meta
	if meta.Tags != nil {
		copied.Tags = append([]string(nil), meta.Tags...)
	}
	newRoot.Doc = &copied

	event := newEvent(MetadataChanged, s.Root.ID, s.Root, newRoot, s.Version+1, actor)
	next := s.next(newRoot, s.Version+1)
	next.EventLog = append(next.EventLog, event)
	next.UndoStack = append(next.UndoStack, event.ID)
	next.RedoStack = []string{}
	return next, event, nil
}

// SetPassageVerified flips the user-verification flag on a passage
// node, recording a MetadataChanged event targeting that node.
func (s *State) SetPassageVerified(nodeID string, verified bool, actor Actor) (*State, *Event, error) {
	target := s.Nodes.Get(nodeID)
	if target == nil || target.Kind != ast.KindPassage {
		return nil, nil, fmt.Errorf("%w: passage %s", ErrNotFound, nodeID)
	}

	newRoot := s.Root.Clone()
	newTarget := ast.BuildNodeIndex(newRoot).Get(nodeID)
	if newTarget.Ref == nil {
		newTarget.Ref = &ast.PassageRef{}
	}
	newTarget.Ref.Verified = verified

	event := newEvent(MetadataChanged, nodeID, s.Root, newRoot, s.Version+1, actor)
	next := s.next(newRoot, s.Version+1)
	next.EventLog = append(next.EventLog, event)
	next.UndoStack = append(next.UndoStack, event.ID)
	next.RedoStack = []string{}
	return next, event, nil
}

// Undo reverts the most recent undoable event by applying its Before
// snapshot. The event id moves from the undo stack to the redo stack
// and the version steps back to the version the snapshot belongs to.
// The event log itself is append-only and unaffected.
func (s *State) Undo() (*State, *Event, error) {
	if !s.CanUndo() {
		return nil, nil, ErrNothingToUndo
	}
	id := s.UndoStack[len(s.UndoStack)-1]
	event := s.findEvent(id)
	if event == nil {
		return nil, nil, fmt.Errorf("%w: event %s missing from log", ErrNotFound, id)
	}

	next := s.next(event.Before.Clone(), event.ResultingVersion-1)
	next.UndoStack = next.UndoStack[:len(next.UndoStack)-1]
	next.RedoStack = append(next.RedoStack, id)
	return next, event, nil
}

// Redo re-applies the most recently undone event via its After
// snapshot, moving the event id back onto the undo stack.
func (s *State) Redo() (*State, *Event, error) {
	if !s.CanRedo() {
		return nil, nil, ErrNothingToRedo
	}
	id := s.RedoStack[len(s.RedoStack)-1]
	event := s.findEvent(id)
	if event == nil {
		return nil, nil, fmt.Errorf("%w: event %s missing from log", ErrNotFound, id)
	}

	next := s.next(event.After.Clone(), event.ResultingVersion)
	next.RedoStack = next.RedoStack[:len(next.RedoStack)-1]
	next.UndoStack = append(next.UndoStack, id)
	return next, event, nil
}

// parentMap builds a child-id → parent lookup for one tree.
func parentMap(root *ast.Node) map[string]*ast.Node {
	parents := map[string]*ast.Node{}
	root.Walk(func(n *ast.Node) bool {
		for _, child := range n.Children {
			parents[child.ID] = n
		}
		return true
	})
	return parents
}
