package platform

import (
	"log/slog"
	"time"
)

// options holds the internal configuration assembled by Open.
type options struct {
	logger       *slog.Logger
	autoInit     bool
	gitless      bool
	mustExist    bool
	systemDir    string
	autoSave     bool
	debounce     time.Duration
	engineScript string
	python       string
	errorHandler func(error)
}

// Option defines a functional option for configuring a session.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		systemDir: ".scribe",
		autoSave:  true,
	}
}

// WithLogger sets the logger for the session and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAutoInit enables automatic initialization of the library
// directory (mkdir and git init).
func WithAutoInit(auto bool) Option {
	return func(o *options) { o.autoInit = auto }
}

// WithVersioning enables or disables git history for the library.
// Enabled by default.
func WithVersioning(enabled bool) Option {
	return func(o *options) { o.gitless = !enabled }
}

// WithMustExist requires the library directory to already exist.
func WithMustExist(must bool) Option {
	return func(o *options) { o.mustExist = must }
}

// WithSystemDir overrides the hidden system directory name.
// Defaults to ".scribe".
func WithSystemDir(name string) Option {
	return func(o *options) { o.systemDir = name }
}

// WithAutoSave controls whether document mutations are persisted to
// the library as they happen. Enabled by default.
func WithAutoSave(enabled bool) Option {
	return func(o *options) { o.autoSave = enabled }
}

// WithDebounce overrides the local-edit reconciliation delay.
// Zero keeps the default.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// WithEngine sets the transcription helper script. Without it the
// session has no transcription capability.
func WithEngine(script string) Option {
	return func(o *options) { o.engineScript = script }
}

// WithPython overrides the python interpreter used for the
// transcription helper.
func WithPython(python string) Option {
	return func(o *options) { o.python = python }
}

// WithWatcherErrorHandler registers a callback for errors occurring in
// the library watch loop, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) { o.errorHandler = fn }
}
