package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/homiletic/scribe/pkg/ast"
	"github.com/homiletic/scribe/pkg/docstate"
	"github.com/homiletic/scribe/pkg/export"
	"github.com/homiletic/scribe/pkg/library"
	"github.com/homiletic/scribe/pkg/reconcile"
	"github.com/homiletic/scribe/pkg/richtext"
)

// Controller drives one open document. It owns the live DocumentState
// and the sync coordinator, and is the only writer of either: edits
// from the view arrive via LocalEdit, structural operations (undo,
// boundary changes, metadata) go through the mutator and are pushed
// back into the view as external changes.
type Controller struct {
	docID    string
	store    *library.Store
	logger   *slog.Logger
	coord    *reconcile.Coordinator
	autoSave bool

	mu    sync.Mutex
	state *docstate.State
	entry library.Entry
}

// ControllerConfig wires a controller to one document and its view.
type ControllerConfig struct {
	DocID    string
	Entry    library.Entry
	State    *docstate.State
	View     reconcile.ViewAdapter
	Store    *library.Store // nil disables persistence
	AutoSave bool
	Debounce time.Duration
	Logger   *slog.Logger
}

// NewController creates a controller over an existing document state.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.State == nil {
		return nil, fmt.Errorf("session: document state is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		docID:    cfg.DocID,
		store:    cfg.Store,
		logger:   logger,
		autoSave: cfg.AutoSave,
		state:    cfg.State,
		entry:    cfg.Entry,
	}

	coord, err := reconcile.New(reconcile.Config{
		DocumentID: cfg.DocID,
		View:       cfg.View,
		Apply:      c.applyLocal,
		Debounce:   cfg.Debounce,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	c.coord = coord
	return c, nil
}

// ID returns the document's library ID.
func (c *Controller) ID() string { return c.docID }

// State returns the current document state. The state is immutable;
// callers may hold it across later mutations safely.
func (c *Controller) State() *docstate.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Coordinator exposes the document's sync coordinator.
func (c *Controller) Coordinator() *reconcile.Coordinator { return c.coord }

// LocalEdit records a view edit; it is debounced and committed through
// the mutator as a content replacement.
func (c *Controller) LocalEdit(payload []byte) {
	c.coord.LocalEdit(payload)
}

// Flush commits any pending debounced edit immediately.
func (c *Controller) Flush() { c.coord.Flush() }

// applyLocal is the coordinator's commit callback: decode the payload
// against the current tree and replace the content.
func (c *Controller) applyLocal(payload []byte) error {
	viewDoc, err := richtext.ParsePayload(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	newRoot, err := richtext.ToAST(viewDoc, richtext.DefaultOptions(), c.state.Root)
	if err != nil {
		return err
	}

	next, _, err := c.state.ApplyContentReplacement(newRoot, docstate.ActorUser)
	if err != nil {
		return err
	}
	c.state = next
	c.persistLocked()
	return nil
}

// Undo reverts the last mutation and pushes the restored tree into the
// view.
func (c *Controller) Undo() (*docstate.State, error) {
	return c.structural(func(s *docstate.State) (*docstate.State, *docstate.Event, error) {
		return s.Undo()
	})
}

// Redo re-applies the last undone mutation.
func (c *Controller) Redo() (*docstate.State, error) {
	return c.structural(func(s *docstate.State) (*docstate.State, *docstate.Event, error) {
		return s.Redo()
	})
}

// ChangeBoundary adjusts a passage's boundaries, optionally absorbing
// adjacent paragraphs.
func (c *Controller) ChangeBoundary(quoteID string, newStart, newEnd int, newContent string, merge []string) (*docstate.State, error) {
	return c.structural(func(s *docstate.State) (*docstate.State, *docstate.Event, error) {
		return s.ApplyBoundaryChange(quoteID, newStart, newEnd, newContent, merge, docstate.ActorUser)
	})
}

// UpdateMetadata replaces the document's descriptive metadata.
func (c *Controller) UpdateMetadata(meta ast.DocMeta) (*docstate.State, error) {
	return c.structural(func(s *docstate.State) (*docstate.State, *docstate.Event, error) {
		return s.UpdateDocumentMeta(meta, docstate.ActorUser)
	})
}

// VerifyPassage marks a passage as verified against the source text.
func (c *Controller) VerifyPassage(nodeID string, verified bool) (*docstate.State, error) {
	return c.structural(func(s *docstate.State) (*docstate.State, *docstate.Event, error) {
		return s.SetPassageVerified(nodeID, verified, docstate.ActorUser)
	})
}

// structural runs a mutator operation and reconciles the view with the
// result. A failed operation leaves both the state and the view alone.
func (c *Controller) structural(op func(*docstate.State) (*docstate.State, *docstate.Event, error)) (*docstate.State, error) {
	// Commit any debounced view edit first, so the operation applies to
	// the text the user actually sees instead of discarding it.
	c.coord.Flush()

	c.mu.Lock()
	next, _, err := op(c.state)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.state = next
	c.persistLocked()
	root := next.Root
	c.mu.Unlock()

	viewDoc, err := richtext.FromAST(root, richtext.DefaultOptions())
	if err != nil {
		return next, fmt.Errorf("session: encoding view update: %w", err)
	}
	payload, err := viewDoc.Marshal()
	if err != nil {
		return next, fmt.Errorf("session: encoding view update: %w", err)
	}
	if err := c.coord.ExternalChange(payload); err != nil {
		return next, err
	}
	return next, nil
}

// persistLocked autosaves the entry and snapshot. Persistence failures
// are logged, not fatal: the in-memory state is already committed.
func (c *Controller) persistLocked() {
	if !c.autoSave || c.store == nil {
		return
	}

	e := c.entry
	e.ID = c.docID
	e.FullText = c.state.Root.PlainText()
	if c.state.Root.Doc != nil {
		e.Title = c.state.Root.Doc.Title
		e.Speaker = c.state.Root.Doc.Speaker
		e.PrimaryReference = c.state.Root.Doc.PrimaryReference
		e.Tags = c.state.Root.Doc.Tags
	}
	c.entry = e

	ctx := library.WithChangeReason(context.Background(), "edit "+c.docID)
	if err := c.store.Save(ctx, e, c.state.Snapshot(snapshotEventCap)); err != nil {
		c.logger.Error("autosave failed", "doc", c.docID, "error", err)
	}
}

// Save persists the document explicitly.
func (c *Controller) Save(ctx context.Context) error {
	if c.store == nil {
		return fmt.Errorf("session: no store configured")
	}

	c.mu.Lock()
	e := c.entry
	e.ID = c.docID
	e.FullText = c.state.Root.PlainText()
	if c.state.Root.Doc != nil {
		e.Title = c.state.Root.Doc.Title
		e.Speaker = c.state.Root.Doc.Speaker
		e.PrimaryReference = c.state.Root.Doc.PrimaryReference
		e.Tags = c.state.Root.Doc.Tags
	}
	c.entry = e
	snap := c.state.Snapshot(snapshotEventCap)
	c.mu.Unlock()

	return c.store.Save(ctx, e, snap)
}

// ExportRequest renders the current tree for the given format tag.
func (c *Controller) ExportRequest(format string) (*export.Request, error) {
	c.mu.Lock()
	root := c.state.Root
	c.mu.Unlock()
	return export.NewRequest(root, format)
}

// Close discards any pending debounced edit and releases the
// coordinator. No partial mutation is committed for a document that is
// no longer active.
func (c *Controller) Close() {
	c.coord.Close()
}

// snapshotEventCap bounds how much event history is persisted per
// document.
const snapshotEventCap = 200
