package docstate

import (
	"time"

	"github.com/google/uuid"

	"github.com/homiletic/scribe/pkg/ast"
)

// EventKind classifies a change record.
type EventKind string

const (
	// ContentReplaced records a wholesale content replacement at a node,
	// typically the document root after a rich-text edit.
	ContentReplaced EventKind = "ContentReplaced"

	// BoundaryChanged records a structural edit to a passage boundary,
	// possibly merging neighbouring paragraphs into the passage.
	BoundaryChanged EventKind = "BoundaryChanged"

	// MetadataChanged records a metadata-only update on a node
	// (document title/speaker/tags, passage verification).
	MetadataChanged EventKind = "MetadataChanged"
)

// Actor identifies who caused a mutation.
type Actor string

const (
	ActorUser   Actor = "user"
	ActorSystem Actor = "system"
)

// Event is an immutable, invertible change record.
//
// Before and After are full root snapshots: applying After to a state
// at ResultingVersion-1 reproduces the root at ResultingVersion, and
// applying Before reproduces the root at ResultingVersion-1. That
// round-trip invertibility is the undo contract, and holding complete
// snapshots makes it hold bit-for-bit by construction.
type Event struct {
	ID               string    `json:"id"`
	Kind             EventKind `json:"kind"`
	TargetNodeID     string    `json:"targetNodeId"`
	Before           *ast.Node `json:"before"`
	After            *ast.Node `json:"after"`
	ResultingVersion int       `json:"resultingVersion"`
	Actor            Actor     `json:"actor"`
	Timestamp        time.Time `json:"timestamp"`
}

func newEvent(kind EventKind, targetID string, before, after *ast.Node, resultingVersion int, actor Actor) *Event {
	return &Event{
		ID:               uuid.NewString(),
		Kind:             kind,
		TargetNodeID:     targetID,
		Before:           before.Clone(),
		After:            after.Clone(),
		ResultingVersion: resultingVersion,
		Actor:            actor,
		Timestamp:        time.Now().UTC(),
	}
}
