package reconcile

import (
	"github.com/aretw0/introspection"
)

// CoordinatorState exposes internal state for observability.
type CoordinatorState struct {
	DocumentID      string `json:"document_id"`
	Phase           string `json:"phase"`
	ExternalVersion int64  `json:"external_version"`
	Closed          bool   `json:"closed"`
}

// State implements introspection.Introspectable.
func (c *Coordinator) State() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CoordinatorState{
		DocumentID:      c.docID,
		Phase:           c.phase.String(),
		ExternalVersion: c.extVersion,
		Closed:          c.closed,
	}
}

// ComponentType implements introspection.Component.
func (c *Coordinator) ComponentType() string {
	return "sync-coordinator"
}

var _ introspection.Introspectable = (*Coordinator)(nil)
var _ introspection.Component = (*Coordinator)(nil)
