package library

import "context"

// EventType represents the kind of change observed in the library.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents an external change to a library entry.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

type contextKey string

// ChangeReasonKey is the context key for passing a specific commit
// message during Save/Delete operations.
const ChangeReasonKey contextKey = "change_reason"

// WithChangeReason attaches a commit message to the context for the
// next Save or Delete.
func WithChangeReason(ctx context.Context, reason string) context.Context {
	return context.WithValue(ctx, ChangeReasonKey, reason)
}
