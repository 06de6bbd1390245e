package platform

import (
	"context"
	"log/slog"

	"github.com/homiletic/scribe/pkg/library"
	"github.com/homiletic/scribe/pkg/session"
	"github.com/homiletic/scribe/pkg/transcribe"
)

// Open assembles a session over the library at path:
//
//	s, err := scribe.Open("./sermons", scribe.WithAutoInit(true))
func Open(path string, opts ...Option) (*session.Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	store := library.NewStore(library.Config{
		Path:         path,
		AutoInit:     o.autoInit,
		Gitless:      o.gitless,
		MustExist:    o.mustExist,
		Logger:       o.logger,
		SystemDir:    o.systemDir,
		ErrorHandler: o.errorHandler,
	})
	if err := store.Initialize(context.Background()); err != nil {
		return nil, err
	}

	var engine *transcribe.Engine
	if o.engineScript != "" {
		engineOpts := []transcribe.Option{transcribe.WithLogger(o.logger)}
		if o.python != "" {
			engineOpts = append(engineOpts, transcribe.WithPython(o.python))
		}
		engine = transcribe.NewEngine(o.engineScript, engineOpts...)
	}

	return session.New(session.Config{
		Store:    store,
		Engine:   engine,
		AutoSave: o.autoSave,
		Debounce: o.debounce,
		Logger:   o.logger,
	})
}
