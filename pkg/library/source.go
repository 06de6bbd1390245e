package library

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"
)

// String makes Event usable as a lifecycle.Event.
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}

type eventSource struct {
	events <-chan Event
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits library events,
// bridging the typed Watch channel to the generic lifecycle Event
// interface so library changes can feed a managed event loop.
func NewSource(events <-chan Event) lifecycle.Source {
	return &eventSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *eventSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *eventSource) Start(ctx context.Context) error {
	// lifecycle.Go keeps the bridge goroutine tracked and panic-safe.
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
