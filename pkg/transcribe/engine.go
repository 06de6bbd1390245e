package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
)

var (
	// ErrBusy indicates a job is already running; the engine is
	// strictly one job at a time.
	ErrBusy = errors.New("transcribe: engine busy")
	// ErrCancelled indicates the job was stopped before completion.
	ErrCancelled = errors.New("transcribe: cancelled")
)

// Engine runs transcription jobs through the Python helper.
type Engine struct {
	python string
	script string
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	stdin   io.WriteCloser
	kill    context.CancelFunc
	done    chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithPython overrides the python interpreter (default: $SCRIBE_PY,
// then "python3").
func WithPython(python string) Option {
	return func(e *Engine) { e.python = python }
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an engine client for the given helper script.
func NewEngine(script string, opts ...Option) *Engine {
	e := &Engine{script: script}
	for _, opt := range opts {
		opt(e)
	}
	if e.python == "" {
		if py := os.Getenv("SCRIBE_PY"); py != "" {
			e.python = py
		} else {
			e.python = "python3"
		}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Busy reports whether a job is currently running.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Run executes one transcription job and blocks until the engine
// produces its terminal result. Progress events are forwarded to
// onProgress as they arrive. Cancelling ctx kills the helper.
func (e *Engine) Run(ctx context.Context, req Request, onProgress func(Progress)) (*Result, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, ErrBusy
	}

	runCtx, kill := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, e.python, e.script)
	cmd.Env = os.Environ()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		kill()
		e.mu.Unlock()
		return nil, fmt.Errorf("transcribe: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		kill()
		e.mu.Unlock()
		return nil, fmt.Errorf("transcribe: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		kill()
		e.mu.Unlock()
		return nil, fmt.Errorf("transcribe: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		kill()
		e.mu.Unlock()
		return nil, fmt.Errorf("transcribe: starting engine: %w", err)
	}

	done := make(chan struct{})
	e.running = true
	e.stdin = stdin
	e.kill = kill
	e.done = done
	e.mu.Unlock()

	defer func() {
		kill()
		_ = cmd.Wait()
		e.mu.Lock()
		e.running = false
		e.stdin = nil
		e.kill = nil
		e.done = nil
		e.mu.Unlock()
		close(done)
	}()

	// Drain stderr into the debug log so the helper's diagnostics are
	// not lost when something goes wrong.
	go func() {
		data, _ := io.ReadAll(stderr)
		if s := strings.TrimSpace(string(data)); s != "" {
			e.logger.Debug("engine stderr", "output", s)
		}
	}()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("transcribe: encoding request: %w", err)
	}
	if _, err := stdin.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("transcribe: writing request: %w", err)
	}

	res, err := decodeStream(stdout, onProgress)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, err
	}
	if res.Cancelled {
		return res, ErrCancelled
	}
	return res, nil
}

// Cancel asks the running job to stop and waits for the helper to
// exit, so the engine is guaranteed idle when Cancel returns. A cancel
// with no job running is a no-op.
func (e *Engine) Cancel() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	stdin := e.stdin
	kill := e.kill
	done := e.done
	e.mu.Unlock()

	msg, _ := json.Marshal(cancelMessage{Command: "cancel"})
	if _, err := stdin.Write(append(msg, '\n')); err != nil {
		// Helper is not listening; fall back to killing it.
		kill()
	}

	<-done
}
