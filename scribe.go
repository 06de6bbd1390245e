package scribe

import (
	"log/slog"
	"time"

	"github.com/homiletic/scribe/internal/platform"
	"github.com/homiletic/scribe/pkg/library"
	"github.com/homiletic/scribe/pkg/session"
	"github.com/homiletic/scribe/pkg/transcribe"
)

// --- Types ---

// Session is the application facade: the library, the transcription
// engine, and at most one active document.
type Session = session.Session

// Controller drives one open document.
type Controller = session.Controller

// Entry is one sermon in the library.
type Entry = library.Entry

// Summary is the cheap listing view of an entry.
type Summary = library.Summary

// TranscribeRequest describes one transcription job.
type TranscribeRequest = transcribe.Request

// TranscribeProgress is one progress event from the engine.
type TranscribeProgress = transcribe.Progress

// --- Configuration ---

// Option defines a functional option for configuring a session.
type Option = platform.Option

// WithAutoInit enables automatic initialization of the library
// (creates the directory and git init).
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning enables or disables git history for the library.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithMustExist requires the library directory to already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLogger sets the logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithSystemDir overrides the hidden directory name (e.g. ".scribe").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithAutoSave controls persistence of document mutations as they
// happen.
func WithAutoSave(enabled bool) Option {
	return platform.WithAutoSave(enabled)
}

// WithDebounce overrides the local-edit reconciliation delay.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithEngine sets the transcription helper script.
func WithEngine(script string) Option {
	return platform.WithEngine(script)
}

// WithPython overrides the python interpreter for the helper.
func WithPython(python string) Option {
	return platform.WithPython(python)
}

// WithWatcherErrorHandler registers a callback for library watch
// errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// Open assembles a session over the library at path.
func Open(path string, opts ...Option) (*Session, error) {
	return platform.Open(path, opts...)
}

// --- Utils ---

// FindLibraryRoot looks upwards for a library root indicator.
func FindLibraryRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
