package session

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/introspection"

	"github.com/homiletic/scribe/pkg/docstate"
	"github.com/homiletic/scribe/pkg/library"
	"github.com/homiletic/scribe/pkg/reconcile"
	"github.com/homiletic/scribe/pkg/transcribe"
)

// Config assembles a session from its collaborators.
type Config struct {
	Store    *library.Store
	Engine   *transcribe.Engine // nil disables transcription
	AutoSave bool
	Debounce time.Duration
	Logger   *slog.Logger
}

// Session is the application facade: the library, the transcription
// engine, and at most one active document at a time.
type Session struct {
	store    *library.Store
	engine   *transcribe.Engine
	logger   *slog.Logger
	autoSave bool
	debounce time.Duration

	mu     sync.Mutex
	active *Controller
}

// New creates a session. The store must already be initialized.
func New(cfg Config) (*Session, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:    cfg.Store,
		engine:   cfg.Engine,
		logger:   logger,
		autoSave: cfg.AutoSave,
		debounce: cfg.Debounce,
	}, nil
}

// Store exposes the library store.
func (s *Session) Store() *library.Store { return s.store }

// Transcribe runs one transcription job and saves the outcome as a
// library entry. The engine may hand back a structured document; when
// it does not, the plain text is lifted into a paragraph tree so the
// entry is editable either way.
func (s *Session) Transcribe(ctx context.Context, req transcribe.Request, onProgress func(transcribe.Progress)) (*library.Entry, error) {
	if s.engine == nil {
		return nil, fmt.Errorf("session: no transcription engine configured")
	}

	res, err := s.engine.Run(ctx, req, onProgress)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("session: transcription failed: %s", res.Error)
	}

	id := slugify(req.FilePath)

	// The engine payload is untrusted: a document without a root is
	// treated as absent rather than dereferenced.
	snap := res.Document
	if snap != nil && snap.Root == nil {
		snap = nil
	}
	text := res.Text
	if snap == nil {
		state := docstate.New(RootFromText(text))
		snap = state.Snapshot(snapshotEventCap)
	} else if text == "" {
		text = snap.Root.PlainText()
	}

	entry := library.Entry{
		ID:       id,
		Date:     time.Now().UTC(),
		FileName: filepath.Base(req.FilePath),
		FilePath: req.FilePath,
		IsSermon: true,
		FullText: text,
	}
	if snap.Root.Doc != nil {
		entry.Title = snap.Root.Doc.Title
		entry.Speaker = snap.Root.Doc.Speaker
		entry.PrimaryReference = snap.Root.Doc.PrimaryReference
		entry.Tags = snap.Root.Doc.Tags
	}

	saveCtx := library.WithChangeReason(ctx, "transcribe "+req.FilePath)
	if err := s.store.Save(saveCtx, entry, snap); err != nil {
		return nil, fmt.Errorf("session: saving transcription: %w", err)
	}

	s.logger.Info("transcription saved", "id", id)
	return &entry, nil
}

// CancelTranscription stops a running job and waits for the engine to
// go idle.
func (s *Session) CancelTranscription() {
	if s.engine != nil {
		s.engine.Cancel()
	}
}

// ActivateDocument opens a library entry for editing, closing any
// previously active document first (its pending debounce is
// cancelled). Entries without a structured sidecar are lifted from
// their plain text.
func (s *Session) ActivateDocument(ctx context.Context, id string, view reconcile.ViewAdapter) (*Controller, error) {
	entry, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session: loading entry %s: %w", id, err)
	}

	var state *docstate.State
	snap, err := s.store.LoadSnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session: loading snapshot %s: %w", id, err)
	}
	if snap != nil {
		state = docstate.FromSnapshot(snap)
	} else {
		state = docstate.New(RootFromText(entry.FullText))
	}

	ctrl, err := NewController(ControllerConfig{
		DocID:    id,
		Entry:    entry,
		State:    state,
		View:     view,
		Store:    s.store,
		AutoSave: s.autoSave,
		Debounce: s.debounce,
		Logger:   s.logger,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	previous := s.active
	s.active = ctrl
	s.mu.Unlock()

	if previous != nil {
		previous.Close()
	}

	return ctrl, nil
}

// Active returns the currently open document controller, or nil.
func (s *Session) Active() *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// CloseDocument closes the active document, if any.
func (s *Session) CloseDocument() {
	s.mu.Lock()
	active := s.active
	s.active = nil
	s.mu.Unlock()

	if active != nil {
		active.Close()
	}
}

// Close shuts the session down.
func (s *Session) Close() {
	s.CloseDocument()
}

// SessionState exposes internal state for observability.
type SessionState struct {
	ActiveDocument string `json:"active_document,omitempty"`
	EngineBusy     bool   `json:"engine_busy"`
	AutoSave       bool   `json:"auto_save"`
}

// State implements introspection.Introspectable.
func (s *Session) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := SessionState{AutoSave: s.autoSave}
	if s.active != nil {
		state.ActiveDocument = s.active.docID
	}
	if s.engine != nil {
		state.EngineBusy = s.engine.Busy()
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Session) ComponentType() string {
	return "session"
}

var _ introspection.Introspectable = (*Session)(nil)
var _ introspection.Component = (*Session)(nil)
