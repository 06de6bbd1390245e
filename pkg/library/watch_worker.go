package library

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

type watchWorker struct {
	*worker.BaseWorker
	store     *Store
	pattern   string
	events    chan<- Event
	watcher   *fsnotify.Watcher
	debouncer *eventDebouncer
	cancel    context.CancelFunc
}

func newWatchWorker(store *Store, pattern string, events chan<- Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("library-watcher"),
		store:      store,
		pattern:    pattern,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := w.recursiveAdd(watcher); err != nil {
		_ = watcher.Close()
		return err
	}

	// Watched for index.lock only; content events from .git are dropped.
	_ = watcher.Add(filepath.Join(w.store.Path, ".git"))

	w.watcher = watcher
	w.debouncer = newEventDebouncer(50 * time.Millisecond)
	w.store.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// recursiveAdd registers every directory under the library root,
// skipping .git and the system dir.
func (w *watchWorker) recursiveAdd(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(w.store.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" || d.Name() == w.store.config.SystemDir {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// shouldIgnore filters out noise: temp files, lock files, sidecars,
// system paths, non-matching patterns, and echoes of our own writes.
func (w *watchWorker) shouldIgnore(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, TempFilePrefix) || strings.HasSuffix(base, ".lock") {
		return true
	}

	relPath, err := filepath.Rel(w.store.Path, event.Name)
	if err != nil {
		return true
	}
	relPath = filepath.ToSlash(relPath)

	sysPrefix := w.store.config.SystemDir + "/"
	if strings.HasPrefix(relPath, ".git/") || strings.HasPrefix(relPath, sysPrefix) {
		return true
	}

	// Sidecars change in lockstep with their entry; the entry event is
	// the signal.
	if strings.HasSuffix(relPath, SidecarSuffix) {
		return true
	}

	if w.pattern != "" {
		ok, err := doublestar.Match(w.pattern, relPath)
		if err != nil || !ok {
			return true
		}
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return w.store.isSelfDelete(relPath)
	}
	return w.store.isSelfWrite(relPath)
}

// mapEventType translates fsnotify ops to library event types.
func mapEventType(event fsnotify.Event) EventType {
	switch {
	case event.Has(fsnotify.Create):
		return EventCreate
	case event.Has(fsnotify.Write):
		return EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return EventDelete
	default:
		return ""
	}
}

// resolveEventID maps a filesystem path back to an entry ID.
func (w *watchWorker) resolveEventID(path string) (string, error) {
	relPath, err := filepath.Rel(w.store.Path, path)
	if err != nil {
		return "", err
	}
	relPath = filepath.ToSlash(relPath)
	return strings.TrimSuffix(relPath, ".md"), nil
}

// handleGitLockEvent processes .git/index.lock events (git operations
// pause/resume). Returns whether the event was consumed and the new
// lock state.
func (w *watchWorker) handleGitLockEvent(event fsnotify.Event, gitLocked *bool) (handled bool, gitLockedNew bool) {
	gitLockedNew = *gitLocked
	handled = false

	if filepath.Base(event.Name) == "index.lock" {
		dir := filepath.Dir(event.Name)
		if filepath.Base(dir) == ".git" {
			handled = true
			if event.Has(fsnotify.Create) {
				gitLockedNew = true
				w.store.config.Logger.Debug("git operations detected, pausing watcher")
			} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				gitLockedNew = false
				w.store.config.Logger.Debug("git operations finished, reconciling")
			}
		}
	}
	return handled, gitLockedNew
}

// reconcileAfterGitUnlock replays changes that happened while the
// watcher was paused behind a git lock.
func (w *watchWorker) reconcileAfterGitUnlock(ctx context.Context) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		reconciledEvents, err := w.store.Reconcile(ctx)
		if err != nil {
			w.store.config.Logger.Error("reconcile failed", "error", err)
			return err
		}
		for _, e := range reconciledEvents {
			w.sendEvent(ctx, e)
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		if w.store.config.ErrorHandler != nil {
			w.store.config.ErrorHandler(fmt.Errorf("reconcile panic: %w", err))
		} else {
			w.store.config.Logger.Error("reconcile panic", "error", err)
		}
	}))
}

// processFilesystemEvent filters, maps, and debounces one event.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) (processed bool) {
	w.store.config.Logger.Debug("event received", "name", event.Name)

	if w.shouldIgnore(event) {
		return false
	}

	eType := mapEventType(event)
	if eType == "" {
		return false
	}

	id, err := w.resolveEventID(event.Name)
	if err != nil {
		if w.store.config.ErrorHandler != nil {
			w.store.config.ErrorHandler(fmt.Errorf("failed to resolve ID for %s: %w", event.Name, err))
		} else {
			w.store.config.Logger.Debug("resolve ID failed", "path", event.Name, "err", err)
		}
		return false
	}

	w.sendEvent(ctx, Event{
		Type:      eType,
		ID:        id,
		Timestamp: time.Now().Unix(),
	})

	return true
}

// sendEvent enqueues an event via the debouncer, protecting against
// channel closure during shutdown.
func (w *watchWorker) sendEvent(ctx context.Context, event Event) {
	w.debouncer.add(event, func(e Event) {
		defer func() {
			// Recover if the channel closed while the worker is stopping.
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

func (w *watchWorker) handleWatcherError(err error) {
	w.store.config.Logger.Error("fsnotify error", "error", err)
	if w.store.config.ErrorHandler != nil {
		w.store.config.ErrorHandler(err)
	}
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)

			// Stack only at debug level; production logs stay lean.
			var stack string
			if w.store.config.Logger.Enabled(ctx, slog.LevelDebug) {
				stack = string(debug.Stack())
			}

			if stack != "" {
				w.store.config.Logger.Error("watcher panic", "error", panicErr, "stack", stack)
			} else {
				w.store.config.Logger.Error("watcher panic", "error", panicErr)
			}
		}
	}()
	defer w.store.setWatcherActive(false)
	defer w.watcher.Close()

	var gitLocked bool
	err = w.mainEventLoop(ctx, &gitLocked)

	// Stop accepting new events and wait for in-flight timers, so
	// nothing races the events channel being closed by the caller.
	w.debouncer.stopAndWait(5 * time.Second)

	return err
}

// mainEventLoop is the core select loop over filesystem and error
// channels.
func (w *watchWorker) mainEventLoop(ctx context.Context, gitLocked *bool) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}

			if handled, newGitLocked := w.handleGitLockEvent(event, gitLocked); handled {
				*gitLocked = newGitLocked
				if !*gitLocked { // Transitioned from locked to unlocked
					w.reconcileAfterGitUnlock(ctx)
				}
				continue
			}

			if *gitLocked {
				continue
			}

			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}

// eventDebouncer coalesces rapid filesystem events per entry ID, so a
// burst of Create/Write notifications for one file surfaces as a
// single event. The newest event in a burst wins.
type eventDebouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending map[string]*pendingEvent
	stopped bool
	wg      sync.WaitGroup
}

type pendingEvent struct {
	timer *time.Timer
	event Event
}

func newEventDebouncer(delay time.Duration) *eventDebouncer {
	return &eventDebouncer{
		delay:   delay,
		pending: make(map[string]*pendingEvent),
	}
}

// add schedules delivery of the event after the delay. A follow-up
// event for the same ID restarts the countdown; the burst keeps its
// first type (a Create followed by Writes is still a Create) unless a
// Delete arrives, which supersedes everything before it.
func (d *eventDebouncer) add(event Event, deliver func(Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	key := event.ID
	if p, ok := d.pending[key]; ok && p.timer.Stop() {
		if event.Type == EventDelete {
			p.event = event
		}
		p.timer.Reset(d.delay)
		return
	}

	p := &pendingEvent{event: event}
	d.wg.Add(1)
	p.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()

		d.mu.Lock()
		e := p.event
		delete(d.pending, key)
		stopped := d.stopped
		d.mu.Unlock()

		if stopped {
			return
		}
		deliver(e)
	})
	d.pending[key] = p
}

// stopAndWait cancels pending timers and waits for in-flight
// deliveries, up to the timeout.
func (d *eventDebouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for key, p := range d.pending {
		if p.timer.Stop() {
			d.wg.Done()
		}
		delete(d.pending, key)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
