// Package grid is the data grid the filter panes sit beside: it owns the
// rows, applies registered row filters on Draw and announces its lifecycle
// through an event bus.
package grid

import (
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/atomicstack/searchpanes/internal/backend"
	"github.com/atomicstack/searchpanes/internal/logging"
)

// EventKind names a grid lifecycle event.
type EventKind string

const (
	EventInitialized EventKind = "initialized"
	EventDraw        EventKind = "draw-completed"
	EventStateSave   EventKind = "state-save-requested"
	EventStateLoad   EventKind = "state-load-completed"
	EventFetchFailed EventKind = "fetch-failed"
)

// State is a persisted grid state. Each key holds one component's block; the
// grid stores its own global search under "search".
type State map[string]json.RawMessage

// Event is delivered to subscribers. State is set for save and load events
// and may be written to by save handlers. Response is set on server draws.
type Event struct {
	Kind     EventKind
	State    State
	Response *backend.Response
	Err      error
}

// Handler receives grid events.
type Handler func(Event)

type subscription struct {
	id      string
	kind    EventKind
	handler Handler
}

// Bus is a synchronous publisher. Handlers run in registration order on the
// publishing goroutine.
type Bus struct {
	subs []subscription
}

// Subscribe registers handler for kind and returns its subscription id.
func (b *Bus) Subscribe(kind EventKind, handler Handler) string {
	id := uuid.NewString()
	b.subs = append(b.subs, subscription{id: id, kind: kind, handler: handler})
	return id
}

// Unsubscribe removes a subscription. It reports whether id was found.
func (b *Bus) Unsubscribe(id string) bool {
	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	return len(b.subs)
}

// Publish calls every handler subscribed to evt.Kind. Handlers added or
// removed during delivery take effect from the next Publish.
func (b *Bus) Publish(evt Event) {
	subs := make([]subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.kind == evt.Kind {
			subs = append(subs, sub)
		}
	}
	for _, sub := range subs {
		safeCall(sub.handler, evt)
	}
}

func safeCall(handler Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error(fmt.Errorf("grid handler panicked for %s: %v\n%s", evt.Kind, r, debug.Stack()))
		}
	}()
	handler(evt)
}
