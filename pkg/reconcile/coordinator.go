package reconcile

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/homiletic/scribe/pkg/richtext"
)

// Phase is the coordinator's logical state for one document.
type Phase int32

const (
	// Idle: the two representations agree; nothing pending.
	Idle Phase = iota
	// PendingLocalSync: a local edit is debounced, waiting to be
	// committed to the AST.
	PendingLocalSync
	// PendingExternalSync: an AST change that did not originate in the
	// view (undo/redo, structural mutation, another surface) is being
	// pushed into the rich-text view.
	PendingExternalSync
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case PendingLocalSync:
		return "pending-local-sync"
	case PendingExternalSync:
		return "pending-external-sync"
	default:
		return "unknown"
	}
}

// ErrClosed indicates the coordinator was shut down, usually because
// the user switched documents.
var ErrClosed = errors.New("reconcile: coordinator closed")

// DefaultDebounce is the reconciliation delay applied to local edits.
const DefaultDebounce = 400 * time.Millisecond

// ViewAdapter is the handle to the active rich-text view. It is passed
// at construction; the coordinator never reaches into ambient state to
// find the current editor.
type ViewAdapter interface {
	// ApplyExternal replaces the view's document with the payload.
	// The coordinator's echo guard is raised for the duration of the
	// call, so the adapter may synchronously re-enter LocalEdit
	// without causing a feedback loop.
	ApplyExternal(payload []byte) error
}

// ApplyFunc commits a coalesced local payload into the document state.
// It must either fully apply the payload or leave the last-known-good
// state untouched and return an error.
type ApplyFunc func(payload []byte) error

// Config wires a coordinator to one document.
type Config struct {
	DocumentID string
	View       ViewAdapter
	Apply      ApplyFunc
	Debounce   time.Duration // zero means DefaultDebounce
	Logger     *slog.Logger
}

// Coordinator decides, for one document, which of the two
// representations is authoritative at any instant and prevents update
// loops between them. Local edits are debounced with last-write-wins
// coalescing before they reach the mutator; external AST changes are
// stamped with a monotonically increasing sync version and pushed into
// the view behind an echo guard.
type Coordinator struct {
	docID    string
	view     ViewAdapter
	apply    ApplyFunc
	logger   *slog.Logger
	debounce *debouncer

	mu           sync.Mutex
	phase        Phase
	extVersion   int64
	suppressEcho bool
	closed       bool
}

// New creates a coordinator for one document. View and Apply are
// required; there is no implicit registration of either.
func New(cfg Config) (*Coordinator, error) {
	if cfg.View == nil {
		return nil, errors.New("reconcile: view adapter is required")
	}
	if cfg.Apply == nil {
		return nil, errors.New("reconcile: apply func is required")
	}
	delay := cfg.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		docID:    cfg.DocumentID,
		view:     cfg.View,
		apply:    cfg.Apply,
		logger:   logger,
		debounce: newDebouncer(delay),
		phase:    Idle,
	}, nil
}

// LocalEdit records an edit observed in the rich-text view. Edits
// arriving before the debounce expires replace the pending payload and
// restart the countdown; exactly one commit happens per burst, with the
// newest payload. Edits observed while an external push is in flight
// are echoes of that push and are dropped.
func (c *Coordinator) LocalEdit(payload []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.suppressEcho {
		c.logger.Debug("suppressed echo of programmatic update", "doc", c.docID)
		c.mu.Unlock()
		return
	}
	c.phase = PendingLocalSync
	c.mu.Unlock()

	c.debounce.add(payload, c.commit)
}

// commit runs on debounce expiry with the coalesced payload.
func (c *Coordinator) commit(payload []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.phase = Idle
	c.mu.Unlock()

	if err := c.apply(payload); err != nil {
		// The mutator guarantees the previous state survives a failed
		// apply, so logging and dropping is safe.
		c.logger.Error("local sync failed, payload dropped", "doc", c.docID, "error", err)
	}
}

// ExternalChange pushes an AST change that originated outside the view
// (undo, redo, structural mutation, a secondary surface) into the
// rich-text view. The payload is stamped with the next external sync
// version; a push that is superseded before it lands is dropped as
// stale. Any debounced local edit is superseded too: the view is about
// to be replaced wholesale.
func (c *Coordinator) ExternalChange(payload []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.extVersion++
	version := c.extVersion
	c.phase = PendingExternalSync
	c.suppressEcho = true
	c.mu.Unlock()

	c.debounce.cancel()

	defer func() {
		c.mu.Lock()
		c.suppressEcho = false
		if c.phase == PendingExternalSync {
			c.phase = Idle
		}
		c.mu.Unlock()
	}()

	stamped, err := richtext.StampSyncVersion(payload, version)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	c.mu.Lock()
	stale := c.extVersion != version
	c.mu.Unlock()
	if stale {
		c.logger.Debug("dropping stale external sync", "doc", c.docID, "version", version)
		return nil
	}

	if err := c.view.ApplyExternal(stamped); err != nil {
		return fmt.Errorf("reconcile: pushing external change: %w", err)
	}
	return nil
}

// Flush forces an immediate commit of any debounced local edit.
// Used on document deactivation paths that must not lose the edit.
func (c *Coordinator) Flush() {
	c.mu.Lock()
	pending := c.phase == PendingLocalSync && !c.closed
	c.mu.Unlock()
	if !pending {
		return
	}
	c.debounce.flush()
}

// Phase returns the coordinator's current logical state.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// ExternalVersion returns the version of the last external push.
func (c *Coordinator) ExternalVersion() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.extVersion
}

// Close cancels any pending debounce outright and stops the
// coordinator. No partial mutation is committed for a document that is
// no longer active. Safe to call more than once.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.phase = Idle
	c.mu.Unlock()

	c.debounce.stopAndWait(5 * time.Second)
}
