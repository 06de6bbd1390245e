package docstate

import (
	"time"

	"github.com/homiletic/scribe/pkg/ast"
)

// Snapshot is the persisted form of a State: the canonical root plus
// the version and an optionally truncated event log. Derived indices
// are not stored; they are rebuilt on load.
type Snapshot struct {
	Version      int       `json:"version"`
	Root         *ast.Node `json:"root"`
	EventLog     []*Event  `json:"eventLog,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
}

// Snapshot captures the state for persistence. maxEvents caps the
// stored event log for storage size; zero or negative keeps the whole
// log. Truncation drops the oldest events first.
func (s *State) Snapshot(maxEvents int) *Snapshot {
	log := s.EventLog
	if maxEvents > 0 && len(log) > maxEvents {
		log = log[len(log)-maxEvents:]
	}
	snap := &Snapshot{
		Version:      s.Version,
		Root:         s.Root.Clone(),
		EventLog:     append([]*Event(nil), log...),
		CreatedAt:    s.CreatedAt,
		LastModified: s.LastModified,
	}
	return snap
}

// FromSnapshot reconstructs a live State from a persisted snapshot.
// Indices are rebuilt, and the undo stack is reseeded with the ids of
// the retained events whose lineage leads up to the stored version, so
// history survives a reload as far as the truncated log allows.
func FromSnapshot(snap *Snapshot) *State {
	if snap == nil || snap.Root == nil {
		return New(nil)
	}
	now := time.Now().UTC()
	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	lastModified := snap.LastModified
	if lastModified.IsZero() {
		lastModified = now
	}

	s := &State{
		Version:      snap.Version,
		Root:         snap.Root.Clone(),
		EventLog:     append([]*Event(nil), snap.EventLog...),
		UndoStack:    []string{},
		RedoStack:    []string{},
		CreatedAt:    createdAt,
		LastModified: lastModified,
	}
	for _, e := range s.EventLog {
		if e.ResultingVersion <= snap.Version {
			s.UndoStack = append(s.UndoStack, e.ID)
		}
	}
	s.rebuildIndices()
	return s
}
